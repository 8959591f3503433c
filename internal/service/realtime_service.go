package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
	appErrors "github.com/arielvz/portal-alumnos-api/pkg/errors"
)

type summarySubscriber interface {
	SubscribeSummary(ctx context.Context, expediente string) (<-chan models.UserSummary, error)
}

// RealtimeService relays backend summary updates to connected clients.
// One upstream stream exists per expediente regardless of how many
// clients watch it; upstream summaries are republished on the event bus
// and every subscription filters the bus by expediente. A subscription
// ends only through its cancel func or the caller's context; a finished
// upstream stream is not reopened.
type RealtimeService struct {
	backend summarySubscriber
	bus     *EventBus
	metrics *MetricsService
	logger  *zap.Logger
	buffer  int

	mu     sync.Mutex
	relays map[string]*summaryRelay
}

type summaryRelay struct {
	cancel context.CancelFunc
	refs   int
}

// RealtimeServiceParams groups constructor dependencies.
type RealtimeServiceParams struct {
	Backend          summarySubscriber
	Bus              *EventBus
	Metrics          *MetricsService
	Logger           *zap.Logger
	SubscriberBuffer int
}

// NewRealtimeService constructs a RealtimeService.
func NewRealtimeService(params RealtimeServiceParams) *RealtimeService {
	buffer := params.SubscriberBuffer
	if buffer <= 0 {
		buffer = 8
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := params.Bus
	if bus == nil {
		bus = NewEventBus(buffer, logger)
	}
	return &RealtimeService{
		backend: params.Backend,
		bus:     bus,
		metrics: params.Metrics,
		logger:  logger,
		buffer:  buffer,
		relays:  make(map[string]*summaryRelay),
	}
}

// Subscribe opens an event stream for the given expediente. The caller
// must invoke the returned cancel func to release the subscription; the
// channel is closed afterwards.
func (s *RealtimeService) Subscribe(ctx context.Context, expediente string) (<-chan models.Event, func(), error) {
	expediente = strings.TrimSpace(expediente)
	if expediente == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "expediente is required")
	}

	busCh, busCancel := s.bus.Subscribe()
	s.acquireRelay(expediente)
	s.metrics.SubscriberConnected()

	out := make(chan models.Event, s.buffer)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			busCancel()
			s.releaseRelay(expediente)
			s.metrics.SubscriberDisconnected()
		})
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case event, ok := <-busCh:
				if !ok {
					return
				}
				if event.Expediente != "" && event.Expediente != expediente {
					continue
				}
				select {
				case out <- event:
				default:
					s.logger.Warn("realtime event dropped",
						zap.String("expediente", expediente),
						zap.String("event", string(event.Type)))
				}
			}
		}
	}()

	return out, cancel, nil
}

// acquireRelay starts the upstream stream for expediente when this is
// the first watcher.
func (s *RealtimeService) acquireRelay(expediente string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if relay, ok := s.relays[expediente]; ok {
		relay.refs++
		return
	}
	relayCtx, relayCancel := context.WithCancel(context.Background())
	s.relays[expediente] = &summaryRelay{cancel: relayCancel, refs: 1}
	go s.runRelay(relayCtx, expediente)
}

func (s *RealtimeService) releaseRelay(expediente string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	relay, ok := s.relays[expediente]
	if !ok {
		return
	}
	relay.refs--
	if relay.refs <= 0 {
		relay.cancel()
		delete(s.relays, expediente)
	}
}

// runRelay pumps upstream summaries onto the bus. A failed connection or
// finished stream ends the relay; local events keep flowing either way.
func (s *RealtimeService) runRelay(ctx context.Context, expediente string) {
	if s.backend == nil {
		return
	}
	summaries, err := s.backend.SubscribeSummary(ctx, expediente)
	if err != nil {
		s.logger.Warn("upstream summary stream unavailable",
			zap.String("expediente", expediente), zap.Error(err))
		return
	}
	for summary := range summaries {
		summary := summary
		s.bus.Publish(models.Event{
			Type:       models.EventSummaryUpdated,
			Expediente: expediente,
			Summary:    &summary,
		})
	}
	s.logger.Debug("upstream summary stream finished", zap.String("expediente", expediente))
}
