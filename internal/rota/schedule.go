package rota

import (
	"context"
	"strings"

	"rotabot/internal/calendar"
	"rotabot/internal/storage"
)

// DefaultScheduleDays is the window shown when none is given.
const DefaultScheduleDays = 7

type Slot struct {
	Task    string
	Person  string
	Skipped bool
}

type Day struct {
	Date  calendar.Date
	Slots []Slot // ordered by task name
}

// Schedule is a read-only slice of the ledger grouped by day.
type Schedule struct {
	From calendar.Date
	Days []Day // only days with assignments, ascending
}

// Schedule returns the assignments for the next days calendar days,
// today included.
func (e *Engine) Schedule(ctx context.Context, days int) (Schedule, error) {
	if days <= 0 {
		days = DefaultScheduleDays
	}
	from := e.Today()
	op := &OpError{Op: "schedule", Date: from}
	var entries []storage.Entry
	err := e.read(ctx, op, func(tx *storage.Tx) error {
		var err error
		entries, err = tx.Entries(ctx, from, from.AddDays(days))
		return err
	})
	if err != nil {
		return Schedule{}, err
	}

	s := Schedule{From: from}
	for _, en := range entries {
		if n := len(s.Days); n == 0 || !s.Days[n-1].Date.Equal(en.Date) {
			s.Days = append(s.Days, Day{Date: en.Date})
		}
		day := &s.Days[len(s.Days)-1]
		day.Slots = append(day.Slots, Slot{
			Task:    en.Task,
			Person:  en.Person,
			Skipped: en.Status == storage.StatusSkipped,
		})
	}
	return s, nil
}

// Render formats the schedule as plain text, one block per day.
func (s Schedule) Render() string {
	if len(s.Days) == 0 {
		return "No assignments scheduled."
	}
	var b strings.Builder
	for i, d := range s.Days {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Date.String())
		b.WriteByte('\n')
		for _, sl := range d.Slots {
			b.WriteString("  " + sl.Task + ": " + sl.Person + "\n")
		}
	}
	return b.String()
}
