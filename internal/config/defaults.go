package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDays        = 7
	DefaultTopUp       = "00:05"
	DefaultStoragePath = "./data/task_manager.db"
	DefaultRatePerMin  = 20
)

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = DefaultStoragePath
	}
	if strings.TrimSpace(c.Scheduler.TopUp) == "" {
		c.Scheduler.TopUp = DefaultTopUp
	}
	if c.Telegram.RatePerMin <= 0 {
		c.Telegram.RatePerMin = DefaultRatePerMin
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Roster.Path == "" && c.Roster.Days <= 0 {
		c.Roster.Days = DefaultDays
	}
}

// Validate checks fields whose errors would otherwise surface late at runtime.
// The roster itself is validated by its consumer.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("scheduler.timeout", c.Scheduler.Timeout); err != nil {
		errs = append(errs, err)
	}
	for _, f := range []struct{ key, val string }{
		{"telegram.group_log", c.Telegram.GroupLog},
		{"telegram.announce_chat", c.Telegram.AnnounceChat},
	} {
		if _, err := ParseChatID(f.val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.key, err))
		}
	}
	return errors.Join(errs...)
}

// ParseChatID parses a chat id kept as a string in config. Empty means 0.
func ParseChatID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q", s)
	}
	return id, nil
}

// Durations resolves the duration strings with their defaults.
type Durations struct {
	PollTimeout  time.Duration
	BusyTimeout  time.Duration
	TopUpTimeout time.Duration
}

func (c *Config) Durations() (Durations, error) {
	var d Durations
	var err error
	if d.PollTimeout, err = ParseDurationOrDefault("telegram.poll_timeout", c.Telegram.PollTimeout, 10*time.Second); err != nil {
		return d, err
	}
	if d.BusyTimeout, err = ParseDurationOrDefault("storage.busy_timeout", c.Storage.BusyTimeout, 5*time.Second); err != nil {
		return d, err
	}
	if d.TopUpTimeout, err = ParseDurationOrDefault("scheduler.timeout", c.Scheduler.Timeout, time.Minute); err != nil {
		return d, err
	}
	return d, nil
}

// LoadRoster reads a standalone roster file (JSON or YAML) with the same
// shape as the inline "roster" section, minus "path".
func LoadRoster(path string) (RosterConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RosterConfig{}, err
	}
	var rc struct {
		Days  int                 `json:"days"`
		Tasks map[string][]string `json:"tasks"`
	}
	if err := decodeStrict(path, b, &rc); err != nil {
		return RosterConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	if rc.Days <= 0 {
		rc.Days = DefaultDays
	}
	return RosterConfig{Days: rc.Days, Tasks: rc.Tasks}, nil
}
