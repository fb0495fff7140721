package storage

import (
	"errors"
	"time"

	"rotabot/internal/calendar"
)

var (
	ErrClosed = errors.New("storage closed")

	// ErrConflict reports a violated (task, date) or name uniqueness constraint.
	ErrConflict = errors.New("unique constraint violated")
)

// Config configures the ledger database.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means 5s
}

// Status values stored in task_assignments.status.
const (
	StatusAssigned = "assigned"
	StatusSkipped  = "skipped"
)

// Assignment is one ledger row.
type Assignment struct {
	ID       int64
	TaskID   int64
	PersonID int64
	Date     calendar.Date
	Status   string
}

// Entry is a ledger row joined with its task and person names.
type Entry struct {
	Date   calendar.Date
	Task   string
	Person string
	Status string
}

// Counts summarizes table sizes.
type Counts struct {
	People      int
	Tasks       int
	Assignments int
}
