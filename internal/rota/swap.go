package rota

import (
	"context"
	"fmt"

	"rotabot/internal/calendar"
	"rotabot/internal/eventbus"
	"rotabot/internal/storage"
	logx "rotabot/pkg/logx"
)

// Swap exchanges the people assigned to task on d1 and d2. Both dates must
// already hold an assignment; swapping twice restores the original state.
func (e *Engine) Swap(ctx context.Context, task string, d1, d2 calendar.Date) error {
	op := &OpError{Op: "swap", Task: task, Date: d1}
	if d1.Equal(d2) {
		op.Err = fmt.Errorf("%w: swap needs two different dates", ErrShape)
		return op
	}
	err := e.write(ctx, op, func(tx *storage.Tx) error {
		taskID, ok, err := tx.TaskID(ctx, task)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown task %q", ErrNotFound, task)
		}
		rows, err := tx.AssignmentsOn(ctx, taskID, d1, d2)
		if err != nil {
			return err
		}
		if len(rows) != 2 {
			return fmt.Errorf("%w: need %s assignments on %s and %s, found %d", ErrShape, task, d1, d2, len(rows))
		}
		a, b := rows[0], rows[1]
		if err := tx.SetPerson(ctx, a.ID, b.PersonID); err != nil {
			return err
		}
		return tx.SetPerson(ctx, b.ID, a.PersonID)
	})
	if err != nil {
		return err
	}

	e.log.Info("assignments swapped",
		logx.String("task", task), logx.String("date1", d1.String()), logx.String("date2", d2.String()))
	e.publish(eventbus.LedgerChange{
		Op:      "swap",
		Task:    task,
		Dates:   []string{d1.String(), d2.String()},
		Rows:    2,
		Summary: fmt.Sprintf("%s swapped between %s and %s", task, d1, d2),
	})
	return nil
}
