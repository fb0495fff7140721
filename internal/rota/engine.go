package rota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rotabot/internal/calendar"
	"rotabot/internal/eventbus"
	"rotabot/internal/storage"
	logx "rotabot/pkg/logx"
)

// Engine runs rotation operations against one ledger store.
type Engine struct {
	store  *storage.Store
	roster RosterSource
	clock  calendar.Clock
	log    logx.Logger
	bus    eventbus.Bus
}

type Option func(*Engine)

func WithLogger(log logx.Logger) Option { return func(e *Engine) { e.log = log } }

// WithClock fixes what "today" means. The default is the local wall clock.
func WithClock(c calendar.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithBus publishes a ledger.changed event after every committed mutation.
func WithBus(b eventbus.Bus) Option { return func(e *Engine) { e.bus = b } }

func New(store *storage.Store, roster RosterSource, opts ...Option) *Engine {
	e := &Engine{store: store, roster: roster, log: logx.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Today() calendar.Date { return e.clock.Today() }

func (e *Engine) loadRoster(ctx context.Context) (Roster, error) {
	if e.roster == nil {
		return Roster{}, fmt.Errorf("%w: no roster source", ErrConfiguration)
	}
	r, err := e.roster.Roster(ctx)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			return Roster{}, err
		}
		return Roster{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := r.Validate(); err != nil {
		return Roster{}, err
	}
	return r, nil
}

// write runs fn in a transaction and logs the outcome under a fresh op id.
func (e *Engine) write(ctx context.Context, op *OpError, fn func(tx *storage.Tx) error) error {
	return e.exec(ctx, op, e.store.WithTx, fn)
}

func (e *Engine) read(ctx context.Context, op *OpError, fn func(tx *storage.Tx) error) error {
	return e.exec(ctx, op, e.store.View, fn)
}

func (e *Engine) exec(
	ctx context.Context,
	op *OpError,
	run func(context.Context, func(*storage.Tx) error) error,
	fn func(tx *storage.Tx) error,
) error {
	log := e.log.With(logx.String("op", op.Op), logx.String("op_id", newOpID()))
	if op.Task != "" {
		log = log.With(logx.String("task", op.Task))
	}
	if !op.Date.IsZero() {
		log = log.With(logx.String("date", op.Date.String()))
	}
	started := time.Now()
	err := run(ctx, fn)
	if err == nil {
		log.Debug("op committed", logx.Duration("took", time.Since(started)))
		return nil
	}
	if errors.Is(err, storage.ErrConflict) {
		err = fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	op.Err = err
	log.Warn("op failed", logx.Err(err), logx.Duration("took", time.Since(started)))
	return op
}

func (e *Engine) publish(change eventbus.LedgerChange) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(eventbus.Event{Type: eventbus.TypeLedgerChanged, Data: change})
}

func newOpID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
