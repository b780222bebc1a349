package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/amuvet/internal/domain/models"
	"github.com/mamadbah2/amuvet/internal/service/treatments"
)

type stubIdentity struct{}

func (stubIdentity) Current() (models.User, error) {
	return models.User{Email: "vet@example.com", Role: models.RoleVet}, nil
}

type fakeInbox struct {
	payload *models.TreatmentInbox
}

func (f *fakeInbox) TreatmentInbox(context.Context, string) (*models.TreatmentInbox, error) {
	return f.payload, nil
}

func (f *fakeInbox) SubmitTreatment(context.Context, string, models.TreatmentIntent) (int64, error) {
	return 0, errors.New("not used")
}

type fakeSheet struct {
	sheetRange string
	rows       [][]interface{}
	err        error
}

func (f *fakeSheet) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.sheetRange = sheetRange
	f.rows = rows
	return f.err
}

func storeWithHistory(t *testing.T, history ...models.TreatmentRequest) *treatments.Store {
	t.Helper()

	s := treatments.NewStore(&fakeInbox{payload: &models.TreatmentInbox{History: history}}, stubIdentity{}, nil)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestGenerateWeeklyAMUReport_AggregatesPerFarmAndDrug(t *testing.T) {
	// 2026-08-28 is a Friday; the week starts Monday 2026-08-24.
	now := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	store := storeWithHistory(t,
		models.TreatmentRequest{ID: 1, FarmNumber: "TN-001", FarmName: "Sunrise", AntibioticName: "Tylosin", Date: "2026-08-25", Status: models.StatusApproved},
		models.TreatmentRequest{ID: 2, FarmNumber: "TN-001", FarmName: "Sunrise", AntibioticName: "Tylosin", Date: "2026-08-26", Status: models.StatusRejected},
		models.TreatmentRequest{ID: 3, FarmNumber: "TN-002", FarmName: "Green Valley", AntibioticName: "Colistin", Date: "2026-08-27", Status: models.StatusApproved},
		// Decided before this week, must not be counted.
		models.TreatmentRequest{ID: 4, FarmNumber: "TN-001", FarmName: "Sunrise", AntibioticName: "Tylosin", Date: "2026-08-20", Status: models.StatusApproved},
	)
	sheet := &fakeSheet{}
	svc := NewService(store, sheet, nil)

	summary, err := svc.GenerateWeeklyAMUReport(context.Background(), now)
	require.NoError(t, err)
	assert.Contains(t, summary, "2 approved, 1 rejected")

	require.Len(t, sheet.rows, 2)
	assert.Equal(t, "AMU!A:G", sheet.sheetRange)
	assert.Equal(t, "TN-001", sheet.rows[0][2])
	assert.Equal(t, 1, sheet.rows[0][5])
	assert.Equal(t, 1, sheet.rows[0][6])
	assert.Equal(t, "TN-002", sheet.rows[1][2])
}

func TestGenerateWeeklyAMUReport_NilRepoOnlySummarizes(t *testing.T) {
	now := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	store := storeWithHistory(t,
		models.TreatmentRequest{ID: 1, FarmNumber: "TN-001", AntibioticName: "Tylosin", Date: "2026-08-25", Status: models.StatusApproved},
	)
	svc := NewService(store, nil, nil)

	summary, err := svc.GenerateWeeklyAMUReport(context.Background(), now)
	require.NoError(t, err)
	assert.Contains(t, summary, "1 approved")
}

func TestGenerateWeeklyAMUReport_EmptyWeek(t *testing.T) {
	now := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	store := storeWithHistory(t)
	svc := NewService(store, &fakeSheet{}, nil)

	summary, err := svc.GenerateWeeklyAMUReport(context.Background(), now)
	require.NoError(t, err)
	assert.Contains(t, summary, "no decided treatments")
}

func TestGenerateWeeklyAMUReport_ExportFailure(t *testing.T) {
	now := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	store := storeWithHistory(t,
		models.TreatmentRequest{ID: 1, FarmNumber: "TN-001", AntibioticName: "Tylosin", Date: "2026-08-25", Status: models.StatusApproved},
	)
	sheet := &fakeSheet{err: errors.New("quota exceeded")}
	svc := NewService(store, sheet, nil)

	_, err := svc.GenerateWeeklyAMUReport(context.Background(), now)
	require.Error(t, err)
}
