package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
	"github.com/arielvz/portal-alumnos-api/pkg/response"
)

type realtimeService interface {
	Subscribe(ctx context.Context, expediente string) (<-chan models.Event, func(), error)
}

// RealtimeHandler streams portal events over SSE.
type RealtimeHandler struct {
	service   realtimeService
	sessions  expedienteResolver
	heartbeat time.Duration
}

// NewRealtimeHandler constructs the handler.
func NewRealtimeHandler(service realtimeService, sessions expedienteResolver, heartbeat time.Duration) *RealtimeHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &RealtimeHandler{service: service, sessions: sessions, heartbeat: heartbeat}
}

// Stream godoc
// @Summary Portal event stream
// @Tags Realtime
// @Produce text/event-stream
// @Param studentId query string false "Expediente (defaults to the active session)"
// @Success 200
// @Router /realtime/sse [get]
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	// canal is the upstream channel parameter kept for compatibility
	explicit := strings.TrimSpace(c.Query("canal"))
	var (
		expediente string
		err        error
	)
	if explicit != "" {
		expediente = explicit
	} else {
		expediente, err = resolveExpediente(c, h.sessions)
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	events, cancel, err := h.service.Subscribe(c.Request.Context(), expediente)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			if err := sse.Encode(c.Writer, sse.Event{Event: "heartbeat", Data: "ping"}); err != nil {
				return
			}
			c.Writer.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sse.Encode(c.Writer, sse.Event{Event: string(event.Type), Data: event}); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
