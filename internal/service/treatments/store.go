package treatments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
)

// Identity supplies the account whose treatment inbox the store mirrors.
type Identity interface {
	Current() (models.User, error)
}

// Client is the slice of the AMU API the store depends on.
type Client interface {
	TreatmentInbox(ctx context.Context, vetEmail string) (*models.TreatmentInbox, error)
	SubmitTreatment(ctx context.Context, email string, intent models.TreatmentIntent) (int64, error)
}

// Store holds the authoritative client-side view of the pending and history
// treatment partitions. A request lives in exactly one partition at a time,
// and both partitions always come from the same inbox fetch.
type Store struct {
	client   Client
	identity Identity
	logger   *zap.Logger

	mu       sync.Mutex
	pending  []models.TreatmentRequest
	history  []models.TreatmentRequest
	lastSync time.Time

	// refreshSeq supersedes overlapping refreshes (poll vs explicit): only
	// the latest-issued fetch may replace the partitions.
	refreshSeq uint64
}

// NewStore wires a treatment store for the active session.
func NewStore(client Client, identity Identity, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, identity: identity, logger: logger}
}

// Refresh fetches both partitions in one round-trip and replaces them
// atomically. On failure the partitions keep their last known-good values
// and the error is returned, never swallowed.
func (s *Store) Refresh(ctx context.Context) error {
	user, err := s.identity.Current()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	s.mu.Unlock()

	inbox, fetchErr := s.client.TreatmentInbox(ctx, user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.refreshSeq {
		s.logger.Debug("discarding superseded inbox fetch", zap.Uint64("seq", seq))
		return nil
	}
	if fetchErr != nil {
		return fmt.Errorf("refresh treatment inbox: %w", fetchErr)
	}

	s.pending = inbox.Pending
	s.history = inbox.History
	s.lastSync = time.Now()
	s.logger.Debug("treatment partitions replaced",
		zap.Int("pending", len(s.pending)),
		zap.Int("history", len(s.history)))
	return nil
}

// Submit validates a prescription intent locally, posts it, then refreshes
// the partitions. The store state is untouched when the post fails; the
// server's validation message travels back verbatim inside the error.
func (s *Store) Submit(ctx context.Context, intent models.TreatmentIntent) (int64, error) {
	if err := intent.Validate(); err != nil {
		return 0, err
	}

	user, err := s.identity.Current()
	if err != nil {
		return 0, err
	}

	id, err := s.client.SubmitTreatment(ctx, user.Email, intent)
	if err != nil {
		return 0, err
	}

	s.logger.Info("treatment submitted",
		zap.Int64("treatment_id", id),
		zap.Int64("farm_id", intent.FarmID),
		zap.String("antibiotic", intent.AntibioticName))

	if err := s.Refresh(ctx); err != nil {
		// The submission itself succeeded; report the reconcile failure
		// without pretending the submit failed.
		s.logger.Warn("post-submit refresh failed", zap.Error(err))
	}
	return id, nil
}

// Pending returns a copy of the pending partition.
func (s *Store) Pending() []models.TreatmentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TreatmentRequest(nil), s.pending...)
}

// History returns a copy of the decided partition.
func (s *Store) History() []models.TreatmentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TreatmentRequest(nil), s.history...)
}

// LastSync reports when the partitions were last replaced from the server.
func (s *Store) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// FindPending looks a request up in the pending partition.
func (s *Store) FindPending(id int64) (models.TreatmentRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.pending {
		if req.ID == id {
			return req, true
		}
	}
	return models.TreatmentRequest{}, false
}

// RemovePending optimistically drops a request from the pending partition
// and returns it so the caller can restore it if the decision fails.
func (s *Store) RemovePending(id int64) (models.TreatmentRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, req := range s.pending {
		if req.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return req, true
		}
	}
	return models.TreatmentRequest{}, false
}

// RestorePending reverts an optimistic removal after a failed decision call.
func (s *Store) RestorePending(req models.TreatmentRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.pending {
		if existing.ID == req.ID {
			return
		}
	}
	s.pending = append(s.pending, req)
}
