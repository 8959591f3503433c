package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arielvz/portal-alumnos-api/internal/dto"
	"github.com/arielvz/portal-alumnos-api/internal/service"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
	"github.com/arielvz/portal-alumnos-api/pkg/response"
)

type kardexService interface {
	Upload(ctx context.Context, req service.UploadRequest) (*dto.UploadResponse, error)
	History(ctx context.Context, expediente string) (*dto.UploadHistoryResponse, error)
}

// KardexHandler forwards kardex uploads and serves the upload history.
type KardexHandler struct {
	service  kardexService
	sessions expedienteResolver
	maxSize  int64
}

// NewKardexHandler constructs the handler. maxSize caps the accepted
// multipart body before the file reaches the service.
func NewKardexHandler(service kardexService, sessions expedienteResolver, maxSize int64) *KardexHandler {
	if maxSize <= 0 {
		maxSize = 15 * 1024 * 1024
	}
	return &KardexHandler{service: service, sessions: sessions, maxSize: maxSize}
}

// Upload godoc
// @Summary Upload a kardex PDF
// @Tags Kardex
// @Accept multipart/form-data
// @Produce json
// @Param expediente formData string true "Expediente"
// @Param file formData file true "Kardex PDF"
// @Success 200 {object} response.Envelope
// @Router /kardex/upload [post]
func (h *KardexHandler) Upload(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	// cap the request body; an oversized upload fails the form parse
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+4096)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field is required"))
		return
	}

	expediente := strings.TrimSpace(c.PostForm("expediente"))
	if expediente == "" {
		expediente = strings.TrimSpace(c.Query("expediente"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload"))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), service.UploadRequest{
		Expediente:  expediente,
		Filename:    fileHeader.Filename,
		SizeBytes:   fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		File:        file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// History godoc
// @Summary Previous kardex uploads
// @Tags Kardex
// @Produce json
// @Param expediente query string false "Expediente (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /kardex/history [get]
func (h *KardexHandler) History(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	expediente, err := resolveExpediente(c, h.sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.service.History(c.Request.Context(), expediente)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history)
}
