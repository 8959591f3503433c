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

type scheduleViewService interface {
	View(ctx context.Context, expediente string) (*dto.ScheduleResponse, bool, error)
}

// ScheduleHandler serves the current-schedule view.
type ScheduleHandler struct {
	service  scheduleViewService
	sessions expedienteResolver
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleViewService, sessions expedienteResolver) *ScheduleHandler {
	return &ScheduleHandler{service: service, sessions: sessions}
}

// View godoc
// @Summary Current schedule
// @Tags Horario
// @Produce json
// @Param studentId query string false "Expediente (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /horario [get]
func (h *ScheduleHandler) View(c *gin.Context) {
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
