package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type expedienteResolver interface {
	Resolve(ctx context.Context, explicit string) (string, error)
}

// resolveExpediente picks the student for a request: an explicit
// studentId (or expediente) query wins, otherwise the active session.
func resolveExpediente(c *gin.Context, sessions expedienteResolver) (string, error) {
	explicit := strings.TrimSpace(c.Query("studentId"))
	if explicit == "" {
		explicit = strings.TrimSpace(c.Query("expediente"))
	}
	if sessions == nil {
		if explicit == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "studentId is required")
		}
		return explicit, nil
	}
	return sessions.Resolve(c.Request.Context(), explicit)
}
