package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

const activeExpedienteKey = "portal:session:active"

// SessionRepository persists the active expediente in Redis so the
// session survives gateway restarts. A zero TTL keeps the entry until
// an explicit clear.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

// Activate stores expediente as the active session.
func (r *SessionRepository) Activate(ctx context.Context, expediente string) error {
	if r.client == nil {
		return appErrors.Clone(appErrors.ErrInternal, "session store unavailable")
	}
	if err := r.client.Set(ctx, activeExpedienteKey, expediente, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Active returns the stored expediente, or ErrNoActiveSession when none
// is set.
func (r *SessionRepository) Active(ctx context.Context) (string, error) {
	if r.client == nil {
		return "", appErrors.ErrNoActiveSession
	}
	value, err := r.client.Get(ctx, activeExpedienteKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", appErrors.ErrNoActiveSession
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}
	if value == "" {
		return "", appErrors.ErrNoActiveSession
	}
	return value, nil
}

// Clear removes the active session entry. Clearing an absent entry is
// not an error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, activeExpedienteKey).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
