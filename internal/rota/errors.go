package rota

import (
	"errors"
	"fmt"
	"strings"

	"rotabot/internal/calendar"
)

var (
	// ErrConfiguration means the roster is missing or malformed.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound means a task is unknown or a date has no assignment.
	ErrNotFound = errors.New("not found")
	// ErrShape means an edit found a different number of rows than it needs.
	ErrShape = errors.New("unexpected assignments")
	// ErrIntegrity means a write would duplicate a (task, date) slot.
	ErrIntegrity = errors.New("integrity violation")
)

// OpError records which engine operation failed and on what.
type OpError struct {
	Op   string
	Task string
	Date calendar.Date
	Err  error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Task != "" {
		b.WriteString(" " + e.Task)
	}
	if !e.Date.IsZero() {
		b.WriteString(" " + e.Date.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// Describe renders err as a short message for chat users.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	op := "Operation"
	var oe *OpError
	if errors.As(err, &oe) {
		op = strings.ToUpper(oe.Op[:1]) + oe.Op[1:]
		err = oe.Err
	}
	switch {
	case errors.Is(err, ErrConfiguration):
		return fmt.Sprintf("%s failed, the roster is not usable: %v", op, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrShape):
		return fmt.Sprintf("%s failed: %v", op, err)
	case errors.Is(err, ErrIntegrity):
		return fmt.Sprintf("%s aborted, nothing was changed: %v", op, err)
	default:
		return fmt.Sprintf("%s failed: %v", op, err)
	}
}
