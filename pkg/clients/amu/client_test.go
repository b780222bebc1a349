package amu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/amuvet/internal/domain/models"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() (string, bool) { return s.token, s.token != "" }

func TestTreatmentInbox_Success(t *testing.T) {
	var gotAuth, gotRequestID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/treatments", r.URL.Path)
		require.Equal(t, "vet@example.com", r.URL.Query().Get("vet_email"))
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.TreatmentInbox{
			Pending: []models.TreatmentRequest{{ID: 42, Status: models.StatusPending}},
			History: []models.TreatmentRequest{{ID: 17, Status: models.StatusApproved}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, WithTokenSource(staticTokens{token: "tok-123"}))

	inbox, err := client.TreatmentInbox(context.Background(), "vet@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	require.Len(t, inbox.Pending, 1)
	require.Len(t, inbox.History, 1)
	assert.Equal(t, int64(42), inbox.Pending[0].ID)
	assert.Equal(t, int64(17), inbox.History[0].ID)
}

func TestNoAuthorizationHeaderWithoutSession(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.Farm{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, WithTokenSource(staticTokens{}))

	_, err := client.ListFarms(context.Background(), "op@example.com")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	expired := false
	client := NewClient(srv.URL, time.Second, WithExpiryHandler(func() { expired = true }))

	_, err := client.TreatmentInbox(context.Background(), "vet@example.com")
	require.Error(t, err)

	assert.True(t, expired)
	assert.True(t, IsSessionExpired(err))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestValidationMessageSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Farm ID required"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	_, err := client.SubmitTreatment(context.Background(), "op@example.com", models.TreatmentIntent{})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.Equal(t, "Farm ID required", apiErr.Message)
}

func TestUnparseableErrorBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>boom</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	err := client.ActOnTreatment(context.Background(), 17, models.Decision{Action: models.ActionReject})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindUnknown, apiErr.Kind)
	assert.Equal(t, "unknown error occurred", apiErr.Message)
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	client := NewClient(srv.URL, time.Second)

	_, err := client.ListFarms(context.Background(), "op@example.com")
	require.Error(t, err)
	assert.True(t, IsConnection(err))
}

func TestSubmitTreatment_ReturnsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/treatments/prescribe", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["farm"])
		assert.Equal(t, "Oxytetracycline", body["antibiotic_name"])
		_, hasAnimal := body["animal_id"]
		assert.False(t, hasAnimal, "zero animal reference must be omitted")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Treatment logged successfully","id":99}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	id, err := client.SubmitTreatment(context.Background(), "op@example.com", models.TreatmentIntent{
		FarmID:         3,
		AntibioticName: "Oxytetracycline",
		Reason:         models.ReasonTreatDisease,
		TreatedFor:     models.TreatedForEnteric,
		Date:           "2026-08-24",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)
}

func TestActOnTreatment_PostsDecision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/treatments/42/action", r.URL.Path)

		var dec models.Decision
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dec))
		assert.Equal(t, models.ActionApprove, dec.Action)
		assert.Equal(t, "500mg", dec.Dosage)

		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	err := client.ActOnTreatment(context.Background(), 42, models.Decision{
		Action: models.ActionApprove,
		Dosage: "500mg",
	})
	require.NoError(t, err)
}
