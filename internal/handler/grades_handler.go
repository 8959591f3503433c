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

type gradesViewService interface {
	Overview(ctx context.Context, expediente string) (*dto.GradesResponse, bool, error)
	History(ctx context.Context, expediente, view, term string) (*dto.HistoryViewResponse, bool, error)
	Map(ctx context.Context, expediente string) (*dto.MapResponse, bool, error)
}

// GradesHandler wires the grade views to HTTP endpoints.
type GradesHandler struct {
	service  gradesViewService
	sessions expedienteResolver
}

// NewGradesHandler constructs the handler.
func NewGradesHandler(service gradesViewService, sessions expedienteResolver) *GradesHandler {
	return &GradesHandler{service: service, sessions: sessions}
}

// Overview godoc
// @Summary Current-enrollment grades
// @Tags Calificaciones
// @Produce json
// @Param studentId query string false "Expediente (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /calificaciones [get]
func (h *GradesHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	expediente, err := resolveExpediente(c, h.sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, cacheHit, err := h.service.Overview(c.Request.Context(), expediente)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// History godoc
// @Summary Course history
// @Tags Calificaciones
// @Produce json
// @Param studentId query string false "Expediente (defaults to the active session)"
// @Param vista query string false "View selector: global, enrolled or term" default(global)
// @Param semestre query string false "Period label for the term view, e.g. 2024-2"
// @Success 200 {object} response.Envelope
// @Router /calificaciones/historial [get]
func (h *GradesHandler) History(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	expediente, err := resolveExpediente(c, h.sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, cacheHit, err := h.service.History(c.Request.Context(), expediente, c.Query("vista"), c.Query("semestre"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// Map godoc
// @Summary Degree-plan map
// @Tags Calificaciones
// @Produce json
// @Param studentId query string false "Expediente (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /calificaciones/mapa [get]
func (h *GradesHandler) Map(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	expediente, err := resolveExpediente(c, h.sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, cacheHit, err := h.service.Map(c.Request.Context(), expediente)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}
