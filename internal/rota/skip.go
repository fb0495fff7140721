package rota

import (
	"context"
	"fmt"

	"rotabot/internal/calendar"
	"rotabot/internal/eventbus"
	"rotabot/internal/storage"
	logx "rotabot/pkg/logx"
)

// Skip vacates (task, d) with the sentinel person, slides every later row of
// the task one day forward and gives d+1 to the person who was skipped.
func (e *Engine) Skip(ctx context.Context, task string, d calendar.Date) error {
	op := &OpError{Op: "skip", Task: task, Date: d}
	var (
		person string
		moved  int
	)
	err := e.write(ctx, op, func(tx *storage.Tx) error {
		taskID, ok, err := tx.TaskID(ctx, task)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown task %q", ErrNotFound, task)
		}
		slot, ok, err := tx.AssignmentAt(ctx, taskID, d)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no %s assignment on %s", ErrNotFound, task, d)
		}
		if slot.Status == storage.StatusSkipped {
			return fmt.Errorf("%w: %s on %s is already skipped", ErrNotFound, task, d)
		}
		entries, err := tx.EntriesOn(ctx, d)
		if err != nil {
			return err
		}
		person = entries[task]

		sentinel, err := tx.EnsurePerson(ctx, SentinelName)
		if err != nil {
			return err
		}
		if err := tx.SetAssignee(ctx, slot.ID, sentinel, storage.StatusSkipped); err != nil {
			return fmt.Errorf("mark skipped: %w", err)
		}

		// Latest first, so every row moves into a slot that is already free.
		later, err := tx.AssignmentsAfterDesc(ctx, taskID, d)
		if err != nil {
			return err
		}
		for _, a := range later {
			if err := tx.MoveAssignment(ctx, a.ID, a.Date.Next()); err != nil {
				return fmt.Errorf("shift %s: %w", a.Date, err)
			}
		}
		moved = len(later)

		if _, err := tx.InsertAssignment(ctx, storage.Assignment{
			TaskID:   taskID,
			PersonID: slot.PersonID,
			Date:     d.Next(),
		}); err != nil {
			return fmt.Errorf("reassign %s: %w", d.Next(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.log.Info("assignment skipped",
		logx.String("task", task), logx.String("date", d.String()),
		logx.String("person", person), logx.Int("shifted", moved))
	e.publish(eventbus.LedgerChange{
		Op:      "skip",
		Task:    task,
		Dates:   []string{d.String(), d.AddDays(moved + 1).String()},
		Rows:    moved + 2,
		Summary: fmt.Sprintf("%s skipped %s on %s; later turns moved one day", person, task, d),
	})
	return nil
}
