package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arielvz/portal-alumnos-api/internal/service"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
	"github.com/arielvz/portal-alumnos-api/pkg/response"
)

type transcriptExporter interface {
	Transcript(ctx context.Context, expediente, format string) (*service.ExportFile, error)
}

// ExportHandler serves transcript downloads.
type ExportHandler struct {
	service  transcriptExporter
	sessions expedienteResolver
}

// NewExportHandler constructs the handler.
func NewExportHandler(service transcriptExporter, sessions expedienteResolver) *ExportHandler {
	return &ExportHandler{service: service, sessions: sessions}
}

// Transcript godoc
// @Summary Export the academic transcript
// @Tags Calificaciones
// @Produce text/csv
// @Produce application/pdf
// @Param studentId query string false "Expediente (defaults to the active session)"
// @Param formato query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /calificaciones/export [get]
func (h *ExportHandler) Transcript(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	expediente, err := resolveExpediente(c, h.sessions)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.Query("formato")
	if format == "" {
		format = c.Query("format")
	}

	file, err := h.service.Transcript(c.Request.Context(), expediente, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
