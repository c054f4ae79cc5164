package outbox

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Relay periodically retries events that are still pending.
type Relay struct {
	cron       *cron.Cron
	tx         Transactor
	store      Store
	dispatcher *Dispatcher
	spec       string
	batchSize  int
	log        zerolog.Logger
}

func NewRelay(tx Transactor, store Store, dispatcher *Dispatcher, spec string, batchSize int, log zerolog.Logger) *Relay {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Relay{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		tx:         tx,
		store:      store,
		dispatcher: dispatcher,
		spec:       spec,
		batchSize:  batchSize,
		log:        log.With().Str("component", "outbox-relay").Logger(),
	}
}

func (r *Relay) Start() error {
	_, err := r.cron.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		processed, err := r.RunOnce(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("outbox relay run failed")
			return
		}
		if processed > 0 {
			r.log.Info().Int("events", processed).Msg("outbox relay run finished")
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	r.log.Info().Str("spec", r.spec).Msg("outbox relay started")
	return nil
}

// Stop halts scheduling and waits for a running job.
func (r *Relay) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce claims one batch of pending events and dispatches it inside a transaction, so other
// relays skip the locked rows.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		events, err := r.store.ClaimPending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		r.dispatcher.Dispatch(ctx, events)
		processed = len(events)
		return nil
	})
	return processed, err
}
