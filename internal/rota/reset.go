package rota

import (
	"context"
	"fmt"

	"rotabot/internal/calendar"
	"rotabot/internal/eventbus"
	"rotabot/internal/storage"
	logx "rotabot/pkg/logx"
)

type ResetResult struct {
	Start    calendar.Date
	Days     int
	Inserted int
	Counts   storage.Counts
}

// Reset destroys the ledger, recreates it and generates the roster's window
// from start. A zero start means today. The reset is rolled back if any of
// people, tasks or assignments ends up empty.
func (e *Engine) Reset(ctx context.Context, start calendar.Date) (ResetResult, error) {
	if start.IsZero() {
		start = e.Today()
	}
	op := &OpError{Op: "reset", Date: start}
	r, err := e.loadRoster(ctx)
	if err != nil {
		op.Err = err
		return ResetResult{}, op
	}

	res := ResetResult{Start: start, Days: r.Days}
	err = e.write(ctx, op, func(tx *storage.Tx) error {
		if err := tx.Recreate(ctx); err != nil {
			return err
		}
		if _, err := tx.EnsurePerson(ctx, SentinelName); err != nil {
			return err
		}
		var err error
		if res.Inserted, err = generate(ctx, tx, r, start, r.Days); err != nil {
			return err
		}
		if res.Counts, err = tx.Counts(ctx); err != nil {
			return err
		}
		c := res.Counts
		if c.People == 0 || c.Tasks == 0 || c.Assignments == 0 {
			return fmt.Errorf("%w: reset produced an empty ledger (people=%d tasks=%d assignments=%d)",
				ErrConfiguration, c.People, c.Tasks, c.Assignments)
		}
		return nil
	})
	if err != nil {
		return ResetResult{}, err
	}

	e.log.Info("ledger reset",
		logx.String("start", start.String()),
		logx.Int("days", r.Days),
		logx.Int("people", res.Counts.People),
		logx.Int("tasks", res.Counts.Tasks),
		logx.Int("assignments", res.Counts.Assignments),
	)
	e.publish(eventbus.LedgerChange{
		Op:      "reset",
		Dates:   []string{start.String(), start.AddDays(r.Days - 1).String()},
		Rows:    res.Inserted,
		Summary: fmt.Sprintf("schedule reset: %d day(s) from %s", r.Days, start),
	})
	return res, nil
}
