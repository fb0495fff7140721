package rota

import (
	"context"
	"fmt"

	"rotabot/internal/calendar"
	"rotabot/internal/eventbus"
	"rotabot/internal/storage"
	logx "rotabot/pkg/logx"
)

// Generate assigns every task of r for days consecutive days from start,
// leaving slots that already have a row untouched. Each call restarts the
// rotation at the first person of every task. It returns the number of rows
// inserted.
func (e *Engine) Generate(ctx context.Context, r Roster, start calendar.Date, days int) (int, error) {
	op := &OpError{Op: "generate", Date: start}
	if err := r.Validate(); err != nil {
		op.Err = err
		return 0, op
	}
	var inserted int
	err := e.write(ctx, op, func(tx *storage.Tx) error {
		var err error
		inserted, err = generate(ctx, tx, r, start, days)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.log.Info("schedule generated",
		logx.String("start", start.String()), logx.Int("days", days), logx.Int("inserted", inserted))
	if inserted > 0 {
		e.publish(eventbus.LedgerChange{
			Op:      "generate",
			Dates:   []string{start.String(), start.AddDays(days - 1).String()},
			Rows:    inserted,
			Summary: fmt.Sprintf("%d assignments added from %s", inserted, start),
		})
	}
	return inserted, nil
}

func generate(ctx context.Context, tx *storage.Tx, r Roster, start calendar.Date, days int) (int, error) {
	tasks := r.TaskNames()
	taskIDs := make(map[string]int64, len(tasks))
	personIDs := make(map[string]int64)
	for _, task := range tasks {
		id, err := tx.EnsureTask(ctx, task)
		if err != nil {
			return 0, fmt.Errorf("ensure task %q: %w", task, err)
		}
		taskIDs[task] = id
		for _, p := range r.Tasks[task] {
			if _, ok := personIDs[p]; ok {
				continue
			}
			pid, err := tx.EnsurePerson(ctx, p)
			if err != nil {
				return 0, fmt.Errorf("ensure person %q: %w", p, err)
			}
			personIDs[p] = pid
		}
	}

	inserted := 0
	for i := 0; i < days; i++ {
		d := start.AddDays(i)
		for _, task := range tasks {
			people := r.Tasks[task]
			// The rotation advances one person per day whether or not the
			// slot was already taken.
			person := people[i%len(people)]
			ok, err := tx.InsertAssignmentIfAbsent(ctx, taskIDs[task], personIDs[person], d)
			if err != nil {
				return 0, fmt.Errorf("assign %s on %s: %w", task, d, err)
			}
			if ok {
				inserted++
			}
		}
	}
	return inserted, nil
}
