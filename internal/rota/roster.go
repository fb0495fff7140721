package rota

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SentinelName is the reserved person holding a skipped slot.
const SentinelName = "skipped"

// Roster maps each task to its people in rotation order, plus the number
// of days to keep scheduled ahead.
type Roster struct {
	Days  int
	Tasks map[string][]string
}

// RosterSource yields the current roster. It is asked again for every
// operation, so edits to the roster apply without a restart.
type RosterSource interface {
	Roster(ctx context.Context) (Roster, error)
}

// RosterFunc adapts a function to RosterSource.
type RosterFunc func(ctx context.Context) (Roster, error)

func (f RosterFunc) Roster(ctx context.Context) (Roster, error) { return f(ctx) }

// Static always returns the same roster.
func Static(r Roster) RosterSource {
	return RosterFunc(func(context.Context) (Roster, error) { return r, nil })
}

// Validate reports an ErrConfiguration for rosters the engine cannot rotate.
func (r Roster) Validate() error {
	if r.Days < 1 {
		return fmt.Errorf("%w: days must be at least 1 (got %d)", ErrConfiguration, r.Days)
	}
	if len(r.Tasks) == 0 {
		return fmt.Errorf("%w: no tasks configured", ErrConfiguration)
	}
	for _, task := range r.TaskNames() {
		if strings.TrimSpace(task) == "" {
			return fmt.Errorf("%w: blank task name", ErrConfiguration)
		}
		people := r.Tasks[task]
		if len(people) == 0 {
			return fmt.Errorf("%w: task %q has no people", ErrConfiguration, task)
		}
		seen := make(map[string]struct{}, len(people))
		for _, p := range people {
			switch {
			case strings.TrimSpace(p) == "":
				return fmt.Errorf("%w: task %q has a blank person", ErrConfiguration, task)
			case p == SentinelName:
				return fmt.Errorf("%w: task %q: %q is a reserved name", ErrConfiguration, task, SentinelName)
			}
			if _, dup := seen[p]; dup {
				return fmt.Errorf("%w: task %q lists %q twice", ErrConfiguration, task, p)
			}
			seen[p] = struct{}{}
		}
	}
	return nil
}

// TaskNames returns the task names sorted.
func (r Roster) TaskNames() []string {
	names := make([]string, 0, len(r.Tasks))
	for name := range r.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rotateAfter returns people reordered to start with last's successor.
// If last is not in the list the original order is kept.
func rotateAfter(people []string, last string) []string {
	out := make([]string, 0, len(people))
	for i, p := range people {
		if p != last {
			continue
		}
		next := (i + 1) % len(people)
		out = append(out, people[next:]...)
		return append(out, people[:next]...)
	}
	return append(out, people...)
}
