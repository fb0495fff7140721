package config

// Config is the on-disk configuration (JSON or YAML).
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Roster    RosterConfig    `json:"roster"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// GroupLog is the chat id (as a string) receiving warning logs.
	GroupLog string `json:"group_log,omitempty"`
	// AnnounceChat is the chat id (as a string) told about ledger changes.
	AnnounceChat string `json:"announce_chat,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
	// RatePerMin bounds commands per chat per minute (0 means 20).
	RatePerMin int `json:"rate_per_min,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig locates the ledger database.
//
// Example:
//
//	"storage": { "path": "./data/task_manager.db", "busy_timeout": "5s" }
type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// SchedulerConfig controls the periodic top-up.
//
// TopUp accepts a cron expression ("5 0 * * *"), a daily wall-clock time
// ("00:05") or an interval ("@every 6h", "6h"). Default: "00:05".
type SchedulerConfig struct {
	Enabled bool   `json:"enabled"`
	TopUp   string `json:"topup,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

// RosterConfig is the task -> people mapping plus the look-ahead window.
//
// When Path is set the roster is read from that file on every use and the
// inline Days/Tasks are ignored.
type RosterConfig struct {
	Path  string              `json:"path,omitempty"`
	Days  int                 `json:"days,omitempty"`
	Tasks map[string][]string `json:"tasks,omitempty"`
}
