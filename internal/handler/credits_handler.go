package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arielvz/portal-alumnos-api/internal/dto"
	"github.com/arielvz/portal-alumnos-api/internal/middleware"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
	"github.com/arielvz/portal-alumnos-api/pkg/response"
)

type creditsViewService interface {
	View(ctx context.Context, expediente string) (*dto.CreditsResponse, bool, error)
}

// CreditsHandler serves the credit-progress view.
type CreditsHandler struct {
	service  creditsViewService
	sessions expedienteResolver
}

// NewCreditsHandler constructs the handler.
func NewCreditsHandler(service creditsViewService, sessions expedienteResolver) *CreditsHandler {
	return &CreditsHandler{service: service, sessions: sessions}
}

// View godoc
// @Summary Credit progress
// @Tags Creditos
// @Produce json
// @Param studentId query string false "Expediente (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /creditos [get]
func (h *CreditsHandler) View(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	expediente, err := resolveExpediente(c, h.sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, cacheHit, err := h.service.View(c.Request.Context(), expediente)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}
