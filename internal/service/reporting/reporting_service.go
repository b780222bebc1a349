package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
	repo "github.com/mamadbah2/amuvet/internal/repository/sheets"
	"github.com/mamadbah2/amuvet/internal/service/treatments"
)

const (
	dateLayout    = "2006-01-02"
	amuWriteRange = "AMU!A:G"
)

// Service aggregates decided treatments into regulator-facing AMU summaries.
type Service struct {
	store  *treatments.Store
	repo   repo.Repository
	logger *zap.Logger
}

// NewService wires a new reporting service instance. repo may be nil when no
// spreadsheet export is configured; summaries are then only logged.
func NewService(store *treatments.Store, repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, repo: repository, logger: logger}
}

// usageKey groups treatment rows for aggregation.
type usageKey struct {
	FarmNumber string
	FarmName   string
	Antibiotic string
}

// usageCount tallies decided requests per key.
type usageCount struct {
	Approved int
	Rejected int
}

// GenerateWeeklyAMUReport aggregates the current week's decided treatments
// per farm and antibiotic, exports the rows when a sheet is configured, and
// returns a human-readable summary.
func (s *Service) GenerateWeeklyAMUReport(ctx context.Context, now time.Time) (string, error) {
	weekStart := mondayStart(now.UTC())

	history := s.store.History()
	usage := make(map[usageKey]*usageCount)

	for _, req := range history {
		decidedOn, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			s.logger.Debug("skip history row with invalid date",
				zap.Int64("treatment_id", req.ID), zap.String("date", req.Date))
			continue
		}
		if decidedOn.Before(weekStart) || decidedOn.After(now) {
			continue
		}

		key := usageKey{
			FarmNumber: req.FarmNumber,
			FarmName:   req.FarmName,
			Antibiotic: req.AntibioticName,
		}
		count, ok := usage[key]
		if !ok {
			count = &usageCount{}
			usage[key] = count
		}
		switch req.Status {
		case models.StatusApproved:
			count.Approved++
		case models.StatusRejected:
			count.Rejected++
		}
	}

	if len(usage) == 0 {
		return fmt.Sprintf("AMU summary (%s-%s): no decided treatments.",
			weekStart.Format(dateLayout), now.Format(dateLayout)), nil
	}

	keys := make([]usageKey, 0, len(usage))
	for key := range usage {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].FarmNumber != keys[j].FarmNumber {
			return keys[i].FarmNumber < keys[j].FarmNumber
		}
		return keys[i].Antibiotic < keys[j].Antibiotic
	})

	var rows [][]interface{}
	var totalApproved, totalRejected int
	for _, key := range keys {
		count := usage[key]
		totalApproved += count.Approved
		totalRejected += count.Rejected
		rows = append(rows, []interface{}{
			weekStart.Format(dateLayout),
			now.Format(dateLayout),
			key.FarmNumber,
			key.FarmName,
			key.Antibiotic,
			count.Approved,
			count.Rejected,
		})
	}

	if s.repo != nil {
		if err := s.repo.AppendRows(ctx, amuWriteRange, rows); err != nil {
			return "", fmt.Errorf("export weekly AMU report: %w", err)
		}
	}

	return fmt.Sprintf("AMU summary (%s-%s): %d approved, %d rejected across %d farm/drug pairs.",
		weekStart.Format(dateLayout), now.Format(dateLayout),
		totalApproved, totalRejected, len(usage)), nil
}

func mondayStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	daysSinceMonday := (weekday + 6) % 7
	start := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
