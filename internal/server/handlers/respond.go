package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/amuvet/internal/domain/models"
	"github.com/mamadbah2/amuvet/internal/service/cascade"
	"github.com/mamadbah2/amuvet/internal/service/decision"
	"github.com/mamadbah2/amuvet/internal/session"
	"github.com/mamadbah2/amuvet/pkg/clients/amu"
)

// respondError maps workflow and adapter errors onto HTTP statuses with the
// single {error: message} body shape the dashboards expect.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch amu.KindOf(err) {
	case amu.KindSessionExpired:
		status = http.StatusUnauthorized
	case amu.KindValidation:
		status = http.StatusUnprocessableEntity
	case amu.KindConnection:
		status = http.StatusBadGateway
	case amu.KindUnknown:
		status = http.StatusBadGateway
	default:
		switch {
		case errors.Is(err, session.ErrNoSession):
			status = http.StatusUnauthorized
		case errors.Is(err, decision.ErrNotPending),
			errors.Is(err, decision.ErrNoReview):
			status = http.StatusNotFound
		case errors.Is(err, decision.ErrDecisionInFlight):
			status = http.StatusConflict
		case errors.Is(err, decision.ErrTerminalStatus),
			errors.Is(err, models.ErrMissingTarget),
			errors.Is(err, cascade.ErrNoFarmSelected),
			errors.Is(err, cascade.ErrNoFlockSelected),
			errors.Is(err, cascade.ErrUnknownFarm),
			errors.Is(err, cascade.ErrUnknownFlock),
			errors.Is(err, cascade.ErrUnknownAnimal):
			status = http.StatusBadRequest
		}
	}

	c.JSON(status, gin.H{"error": userMessage(err)})
}

// userMessage prefers the adapter's normalized message over wrapped chains.
func userMessage(err error) string {
	var apiErr *amu.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
