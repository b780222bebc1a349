package decision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
	"github.com/mamadbah2/amuvet/internal/service/treatments"
)

// Identity supplies the deciding vet for audit records.
type Identity interface {
	Current() (models.User, error)
}

// Client is the slice of the AMU API the workflow depends on.
type Client interface {
	ActOnTreatment(ctx context.Context, treatmentID int64, decision models.Decision) error
}

// AuditSink records confirmed decisions. Implementations are best-effort;
// failures are logged and never fail the decision itself.
type AuditSink interface {
	SaveDecisionRecord(ctx context.Context, record models.DecisionRecord) error
}

var (
	// ErrNotPending means the request is not in the pending partition.
	ErrNotPending = errors.New("treatment request is not pending")
	// ErrDecisionInFlight means another decision on the same request has
	// not completed yet.
	ErrDecisionInFlight = errors.New("a decision for this request is already in flight")
	// ErrNoReview means no review draft exists for the request.
	ErrNoReview = errors.New("no open review for this request")
	// ErrTerminalStatus rejects transitions out of approved or rejected.
	ErrTerminalStatus = errors.New("treatment status is already decided")
)

// Transition is the pure state function of the approval lifecycle:
// pending moves to approved or rejected, decided states are terminal.
func Transition(from models.TreatmentStatus, action models.DecisionAction) (models.TreatmentStatus, error) {
	if from.Decided() {
		return from, ErrTerminalStatus
	}
	if from != models.StatusPending {
		return from, fmt.Errorf("cannot decide a request in status %q", from)
	}

	switch action {
	case models.ActionApprove:
		return models.StatusApproved, nil
	case models.ActionReject:
		return models.StatusRejected, nil
	default:
		return from, fmt.Errorf("unknown decision action %q", action)
	}
}

// ReviewDraft is the transient modify-before-approve state. It only exists
// in memory while a vet edits fields; discarding it has no side effects.
type ReviewDraft struct {
	Request      models.TreatmentRequest `json:"request"`
	Dosage       string                  `json:"dosage"`
	MethodIntake string                  `json:"method_intake"`
	VetNotes     string                  `json:"vet_notes"`
}

// ReviewFields carries the vet's edits when confirming a review.
type ReviewFields struct {
	Dosage       string `json:"dosage"`
	MethodIntake string `json:"method_intake"`
	VetNotes     string `json:"vet_notes"`
}

// Workflow drives vet decisions over the treatment store: optimistic local
// removal, remote confirmation, revert on failure.
type Workflow struct {
	store    *treatments.Store
	client   Client
	identity Identity
	audit    AuditSink
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
	reviews  map[int64]*ReviewDraft
	now      func() time.Time
}

// NewWorkflow wires the decision workflow. audit may be nil when no trail
// is configured.
func NewWorkflow(store *treatments.Store, client Client, identity Identity, audit AuditSink, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		store:    store,
		client:   client,
		identity: identity,
		audit:    audit,
		logger:   logger,
		inFlight: make(map[int64]struct{}),
		reviews:  make(map[int64]*ReviewDraft),
		now:      time.Now,
	}
}

// QuickApprove approves a pending request with no field changes.
func (w *Workflow) QuickApprove(ctx context.Context, treatmentID int64) error {
	return w.decide(ctx, treatmentID, models.Decision{Action: models.ActionApprove})
}

// Reject refuses a pending request.
func (w *Workflow) Reject(ctx context.Context, treatmentID int64) error {
	return w.decide(ctx, treatmentID, models.Decision{Action: models.ActionReject})
}

// StartReview opens the modify-before-approve sub-flow, pre-populated with
// the request's current field values. The request stays pending.
func (w *Workflow) StartReview(treatmentID int64) (ReviewDraft, error) {
	req, ok := w.store.FindPending(treatmentID)
	if !ok {
		return ReviewDraft{}, ErrNotPending
	}

	draft := &ReviewDraft{
		Request:      req,
		Dosage:       req.Dosage,
		MethodIntake: req.MethodIntake,
		VetNotes:     req.VetNotes,
	}

	w.mu.Lock()
	w.reviews[treatmentID] = draft
	w.mu.Unlock()

	return *draft, nil
}

// ConfirmReview collapses an open review into an approval carrying the
// edited fields. Blank edits keep the draft's pre-populated values.
func (w *Workflow) ConfirmReview(ctx context.Context, treatmentID int64, fields ReviewFields) error {
	w.mu.Lock()
	draft, ok := w.reviews[treatmentID]
	w.mu.Unlock()
	if !ok {
		return ErrNoReview
	}

	dec := models.Decision{
		Action:       models.ActionApprove,
		Dosage:       firstNonEmpty(fields.Dosage, draft.Dosage),
		MethodIntake: firstNonEmpty(fields.MethodIntake, draft.MethodIntake),
		VetNotes:     firstNonEmpty(fields.VetNotes, draft.VetNotes),
	}

	if err := w.decide(ctx, treatmentID, dec); err != nil {
		return err
	}

	w.mu.Lock()
	delete(w.reviews, treatmentID)
	w.mu.Unlock()
	return nil
}

// DiscardReview abandons an open review. No network call is made and the
// request remains pending; unsaved edits are dropped without confirmation.
func (w *Workflow) DiscardReview(treatmentID int64) {
	w.mu.Lock()
	delete(w.reviews, treatmentID)
	w.mu.Unlock()
}

// OpenReview returns the current draft for a request, if one exists.
func (w *Workflow) OpenReview(treatmentID int64) (ReviewDraft, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	draft, ok := w.reviews[treatmentID]
	if !ok {
		return ReviewDraft{}, false
	}
	return *draft, true
}

// decide runs one ruling end to end. Decisions are never presumed
// successful: the optimistic removal is reverted unless the server confirms.
func (w *Workflow) decide(ctx context.Context, treatmentID int64, dec models.Decision) error {
	w.mu.Lock()
	if _, busy := w.inFlight[treatmentID]; busy {
		w.mu.Unlock()
		return ErrDecisionInFlight
	}
	w.inFlight[treatmentID] = struct{}{}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.inFlight, treatmentID)
		w.mu.Unlock()
	}()

	snapshot, ok := w.store.RemovePending(treatmentID)
	if !ok {
		return ErrNotPending
	}

	if _, err := Transition(snapshot.Status, dec.Action); err != nil {
		w.store.RestorePending(snapshot)
		return err
	}

	if err := w.client.ActOnTreatment(ctx, treatmentID, dec); err != nil {
		w.store.RestorePending(snapshot)
		w.logger.Warn("decision call failed, pending entry restored",
			zap.Int64("treatment_id", treatmentID),
			zap.String("action", string(dec.Action)),
			zap.Error(err))
		return err
	}

	w.logger.Info("treatment decided",
		zap.Int64("treatment_id", treatmentID),
		zap.String("action", string(dec.Action)))

	w.recordAudit(ctx, snapshot, dec)

	// Reconcile with the server's history partition; the decision itself is
	// already confirmed, so a refresh failure only gets logged.
	if err := w.store.Refresh(ctx); err != nil {
		w.logger.Warn("post-decision refresh failed", zap.Error(err))
	}
	return nil
}

func (w *Workflow) recordAudit(ctx context.Context, snapshot models.TreatmentRequest, dec models.Decision) {
	if w.audit == nil {
		return
	}

	vetEmail := ""
	if user, err := w.identity.Current(); err == nil {
		vetEmail = user.Email
	}

	record := models.DecisionRecord{
		TreatmentID:  snapshot.ID,
		Action:       dec.Action,
		VetEmail:     vetEmail,
		FarmNumber:   snapshot.FarmNumber,
		Antibiotic:   snapshot.AntibioticName,
		Dosage:       dec.Dosage,
		MethodIntake: dec.MethodIntake,
		VetNotes:     dec.VetNotes,
		DecidedAt:    w.now().UTC(),
	}

	if err := w.audit.SaveDecisionRecord(ctx, record); err != nil {
		w.logger.Warn("decision audit write failed",
			zap.Int64("treatment_id", snapshot.ID), zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
