package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/repository/mongodb"
)

// AuditHandler exposes the decision audit trail to regulators.
type AuditHandler struct {
	repo   mongodb.Repository
	logger *zap.Logger
}

// NewAuditHandler constructs the audit HTTP adapter. repo may be nil when
// no audit trail is configured.
func NewAuditHandler(repo mongodb.Repository, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{repo: repo, logger: logger}
}

// Decisions lists audit entries decided within the last `days` days
// (default 7, capped at 90), newest first.
func (h *AuditHandler) Decisions(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision audit trail is not configured"})
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}
	if days > 90 {
		days = 90
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	records, err := h.repo.DecisionsSince(c.Request.Context(), since)
	if err != nil {
		h.logger.Error("audit trail query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load decision records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"since": since, "decisions": records})
}
