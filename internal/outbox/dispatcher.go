package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"issue-service/internal/model"
)

type Store interface {
	ClaimPending(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, cause string, dead bool) error
}

type Handler func(ctx context.Context, event model.OutboxEvent) error

// Dispatcher runs outbox events through the handler registered for their kind.
type Dispatcher struct {
	store       Store
	handlers    map[model.OutboxKind]Handler
	maxAttempts int
	log         zerolog.Logger
}

func NewDispatcher(store Store, maxAttempts int, log zerolog.Logger) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Dispatcher{
		store:       store,
		handlers:    make(map[model.OutboxKind]Handler),
		maxAttempts: maxAttempts,
		log:         log.With().Str("component", "outbox").Logger(),
	}
}

func (d *Dispatcher) Handle(kind model.OutboxKind, handler Handler) {
	d.handlers[kind] = handler
}

// Dispatch processes each event once. Failures stay pending until maxAttempts is reached.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.OutboxEvent) {
	for _, event := range events {
		d.process(ctx, event)
	}
}

func (d *Dispatcher) process(ctx context.Context, event model.OutboxEvent) {
	log := d.log.With().
		Str("event_id", event.ID.String()).
		Str("kind", string(event.Kind)).
		Logger()

	handler, ok := d.handlers[event.Kind]
	if !ok {
		d.fail(ctx, log, event, fmt.Errorf("no handler for %s", event.Kind), true)
		return
	}

	if err := handler(ctx, event); err != nil {
		attempts := event.Attempts + 1
		d.fail(ctx, log, event, err, attempts >= d.maxAttempts)
		return
	}

	if err := d.store.MarkDone(ctx, event.ID); err != nil {
		log.Error().Err(err).Msg("failed to mark outbox event done")
		return
	}
	log.Debug().Msg("outbox event processed")
}

func (d *Dispatcher) fail(ctx context.Context, log zerolog.Logger, event model.OutboxEvent, cause error, dead bool) {
	attempts := event.Attempts + 1
	log.Warn().Err(cause).Int("attempts", attempts).Bool("dead", dead).Msg("outbox event failed")

	if err := d.store.MarkFailed(ctx, event.ID, attempts, cause.Error(), dead); err != nil {
		log.Error().Err(err).Msg("failed to record outbox failure")
	}
}
