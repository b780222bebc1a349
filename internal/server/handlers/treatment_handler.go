package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
	"github.com/mamadbah2/amuvet/internal/service/cascade"
	"github.com/mamadbah2/amuvet/internal/service/decision"
	"github.com/mamadbah2/amuvet/internal/service/treatments"
)

// TreatmentHandler exposes the treatment store and the vet decision workflow.
type TreatmentHandler struct {
	store    *treatments.Store
	workflow *decision.Workflow
	resolver *cascade.Resolver
	logger   *zap.Logger
}

// NewTreatmentHandler constructs the treatment HTTP adapter.
func NewTreatmentHandler(store *treatments.Store, workflow *decision.Workflow, resolver *cascade.Resolver, logger *zap.Logger) *TreatmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreatmentHandler{store: store, workflow: workflow, resolver: resolver, logger: logger}
}

// List refreshes and returns both treatment partitions.
func (h *TreatmentHandler) List(c *gin.Context) {
	if err := h.store.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TreatmentInbox{
		Pending: h.store.Pending(),
		History: h.store.History(),
	})
}

type submitRequest struct {
	FarmID         int64                  `json:"farm"`
	FlockID        int64                  `json:"flock_id"`
	AnimalID       int64                  `json:"animal_id"`
	AntibioticName string                 `json:"antibiotic_name"`
	Reason         models.TreatmentReason `json:"reason"`
	TreatedFor     models.TreatedFor      `json:"treated_for"`
	Date           string                 `json:"date"`
}

// Submit logs a new prescription intent. When no explicit target is given,
// the current cascade selection supplies it.
func (h *TreatmentHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid treatment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid treatment body"})
		return
	}

	intent := models.TreatmentIntent{
		FarmID:         req.FarmID,
		FlockID:        req.FlockID,
		AnimalID:       req.AnimalID,
		AntibioticName: req.AntibioticName,
		Reason:         req.Reason,
		TreatedFor:     req.TreatedFor,
		Date:           req.Date,
	}
	if intent.FarmID == 0 {
		target, err := h.resolver.TargetIntent()
		if err != nil {
			respondError(c, err)
			return
		}
		intent.FarmID = target.FarmID
		intent.FlockID = target.FlockID
		intent.AnimalID = target.AnimalID
	}

	id, err := h.store.Submit(c.Request.Context(), intent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "treatment logged successfully", "id": id})
}

// Approve rules a pending request approved with no field changes.
func (h *TreatmentHandler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.workflow.QuickApprove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "treatment approved"})
}

// Reject rules a pending request rejected.
func (h *TreatmentHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.workflow.Reject(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "treatment rejected"})
}

// StartReview opens the modify-before-approve sub-flow and returns the
// pre-populated draft.
func (h *TreatmentHandler) StartReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	draft, err := h.workflow.StartReview(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ConfirmReview collapses an open review into an approval with the edited
// fields.
func (h *TreatmentHandler) ConfirmReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var fields decision.ReviewFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review body"})
		return
	}

	if err := h.workflow.ConfirmReview(c.Request.Context(), id, fields); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "treatment approved with modifications"})
}

// DiscardReview abandons an open review; the request stays pending and no
// remote call is made.
func (h *TreatmentHandler) DiscardReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	h.workflow.DiscardReview(id)
	c.Status(http.StatusNoContent)
}
