package rota

import (
	"context"
	"fmt"

	"rotabot/internal/calendar"
	"rotabot/internal/eventbus"
	"rotabot/internal/storage"
	logx "rotabot/pkg/logx"
)

// TopUpResult describes what a top-up did.
type TopUpResult struct {
	Deleted   int64         // expired rows removed
	Populated int           // distinct dates from today that were already present
	Start     calendar.Date // first generated date; zero when nothing was generated
	Days      int           // days generated
	Inserted  int           // rows written
}

// Full reports whether the window was already full.
func (r TopUpResult) Full() bool { return r.Days == 0 }

// TopUp drops rows before today and extends the ledger so that the roster's
// window of days from today is populated. Each task resumes with the
// successor of whoever held it on the last populated day.
func (e *Engine) TopUp(ctx context.Context) (TopUpResult, error) {
	today := e.Today()
	op := &OpError{Op: "topup", Date: today}
	r, err := e.loadRoster(ctx)
	if err != nil {
		op.Err = err
		return TopUpResult{}, op
	}

	var res TopUpResult
	err = e.write(ctx, op, func(tx *storage.Tx) error {
		res = TopUpResult{}
		var err error
		if res.Deleted, err = tx.DeleteBefore(ctx, today); err != nil {
			return fmt.Errorf("delete expired: %w", err)
		}
		if res.Populated, err = tx.CountDatesFrom(ctx, today); err != nil {
			return fmt.Errorf("count populated: %w", err)
		}
		if res.Populated >= r.Days {
			return nil
		}

		resumed := Roster{Days: r.Days, Tasks: r.Tasks}
		res.Start = today
		last, ok, err := tx.MaxDate(ctx)
		if err != nil {
			return fmt.Errorf("last date: %w", err)
		}
		if ok {
			res.Start = last.Next()
			onLast, err := tx.EntriesOn(ctx, last)
			if err != nil {
				return fmt.Errorf("read %s: %w", last, err)
			}
			resumed.Tasks = make(map[string][]string, len(r.Tasks))
			for task, people := range r.Tasks {
				resumed.Tasks[task] = rotateAfter(people, onLast[task])
			}
		}

		res.Days = r.Days - res.Populated
		res.Inserted, err = generate(ctx, tx, resumed, res.Start, res.Days)
		return err
	})
	if err != nil {
		return TopUpResult{}, err
	}

	e.log.Info("top-up done",
		logx.Int64("deleted", res.Deleted),
		logx.Int("populated", res.Populated),
		logx.Int("days", res.Days),
		logx.Int("inserted", res.Inserted),
	)
	if res.Inserted > 0 || res.Deleted > 0 {
		change := eventbus.LedgerChange{Op: "topup", Rows: res.Inserted}
		if res.Days > 0 {
			change.Dates = []string{res.Start.String(), res.Start.AddDays(res.Days - 1).String()}
			change.Summary = fmt.Sprintf("schedule extended by %d day(s) from %s", res.Days, res.Start)
		} else {
			change.Summary = fmt.Sprintf("%d expired assignment(s) removed", res.Deleted)
		}
		e.publish(change)
	}
	return res, nil
}
