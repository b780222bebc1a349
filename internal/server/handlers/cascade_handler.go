package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/service/cascade"
)

// CascadeHandler exposes the farm/flock/animal selection cascade.
type CascadeHandler struct {
	resolver *cascade.Resolver
	logger   *zap.Logger
}

// NewCascadeHandler constructs the selection HTTP adapter.
func NewCascadeHandler(resolver *cascade.Resolver, logger *zap.Logger) *CascadeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CascadeHandler{resolver: resolver, logger: logger}
}

type selectRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// Farms reloads and returns the top-level farm list.
func (h *CascadeHandler) Farms(c *gin.Context) {
	if err := h.resolver.LoadFarms(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.resolver.Farms())
}

// SelectFarm fixes the farm and returns its flocks.
func (h *CascadeHandler) SelectFarm(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "farm id is required"})
		return
	}

	if err := h.resolver.SelectFarm(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.resolver.Flocks())
}

// SelectFlock fixes the flock and returns its animals.
func (h *CascadeHandler) SelectFlock(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flock id is required"})
		return
	}

	if err := h.resolver.SelectFlock(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.resolver.Animals())
}

// SelectAnimal fixes the terminal selection.
func (h *CascadeHandler) SelectAnimal(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "animal id is required"})
		return
	}

	if err := h.resolver.SelectAnimal(req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.resolver.Selection())
}

// Selection returns the current farm/flock/animal snapshot.
func (h *CascadeHandler) Selection(c *gin.Context) {
	c.JSON(http.StatusOK, h.resolver.Selection())
}

// Drugs returns the antibiotic reference list for the selected species.
func (h *CascadeHandler) Drugs(c *gin.Context) {
	drugs, err := h.resolver.DrugsForSelection(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drugs)
}

// parseID reads a numeric path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
