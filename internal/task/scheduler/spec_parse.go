package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Trigger is a schedule string normalized to a robfig/cron spec.
type Trigger struct {
	Cron   string
	Source string // "cron" | "daily" | "duration"
}

var reHHMM = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)

// ParseTrigger accepts:
//   - Cron: "5 0 * * *", "@daily", "@every 6h" (optional "cron:" prefix)
//   - Daily wall-clock time HH:MM: "00:05" fires every day at 00:05
//   - Interval duration: "6h", "90m" (optional "every:" prefix)
func ParseTrigger(raw string) (Trigger, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Trigger{}, fmt.Errorf("schedule required")
	}
	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		expr := strings.TrimSpace(s[len("cron:"):])
		if expr == "" {
			return Trigger{}, fmt.Errorf("cron schedule required after 'cron:'")
		}
		return Trigger{Cron: expr, Source: "cron"}, nil
	case strings.HasPrefix(low, "every:"):
		return parseEvery(strings.TrimSpace(s[len("every:"):]))
	case strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@"):
		return Trigger{Cron: s, Source: "cron"}, nil
	case reHHMM.MatchString(s):
		h, m, err := parseHHMM(s)
		if err != nil {
			return Trigger{}, err
		}
		return Trigger{Cron: fmt.Sprintf("%d %d * * *", m, h), Source: "daily"}, nil
	}
	if _, err := time.ParseDuration(s); err == nil {
		return parseEvery(s)
	}
	return Trigger{}, fmt.Errorf(
		"invalid schedule %q (use cron like '5 0 * * *', HH:MM like '00:05', or duration like '6h')", raw)
}

func parseEvery(v string) (Trigger, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return Trigger{}, fmt.Errorf("invalid interval %q (use Go duration like '6h')", v)
	}
	if d < time.Second {
		return Trigger{}, fmt.Errorf("interval must be at least 1s")
	}
	return Trigger{Cron: "@every " + d.String(), Source: "duration"}, nil
}

func parseHHMM(v string) (int, int, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	if mm > 59 {
		return 0, 0, fmt.Errorf("invalid minutes in %q", v)
	}
	return h, mm, nil
}
