package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type sessionStore interface {
	Activate(ctx context.Context, expediente string) error
	Active(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// SessionService tracks the active expediente. Views that do not receive
// an explicit studentId fall back to the stored session, and clearing it
// publishes a lock event so realtime consumers drop their state.
type SessionService struct {
	store  sessionStore
	bus    *EventBus
	logger *zap.Logger
}

// NewSessionService constructs a session service.
func NewSessionService(store sessionStore, bus *EventBus, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, bus: bus, logger: logger}
}

// Activate stores expediente as the active session and publishes an
// unlock event.
func (s *SessionService) Activate(ctx context.Context, expediente string) error {
	expediente = strings.TrimSpace(expediente)
	if expediente == "" {
		return appErrors.Clone(appErrors.ErrValidation, "expediente is required")
	}
	if s.store == nil {
		return appErrors.Clone(appErrors.ErrInternal, "session store unavailable")
	}
	if err := s.store.Activate(ctx, expediente); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(models.Event{Type: models.EventUnlocked, Expediente: expediente})
	}
	s.logger.Info("session activated", zap.String("expediente", expediente))
	return nil
}

// Active returns the stored expediente, or ErrNoActiveSession.
func (s *SessionService) Active(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", appErrors.ErrNoActiveSession
	}
	return s.store.Active(ctx)
}

// Resolve picks the effective expediente for a request: an explicit
// value wins, otherwise the active session is used.
func (s *SessionService) Resolve(ctx context.Context, explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return explicit, nil
	}
	return s.Active(ctx)
}

// Clear removes the active session and publishes a lock event.
func (s *SessionService) Clear(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(models.Event{Type: models.EventLocked})
	}
	s.logger.Info("session cleared")
	return nil
}
