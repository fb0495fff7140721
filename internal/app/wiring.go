package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"rotabot/internal/config"
	"rotabot/internal/rota"
	"rotabot/internal/storage"
	"rotabot/internal/task/scheduler"
	logx "rotabot/pkg/logx"
)

// rosterSource reads the roster from the live config on every call. When
// roster.path is set the file is re-read each time; a relative path is
// resolved against the config file's directory.
func rosterSource(cfgm *config.Manager) rota.RosterSource {
	return rota.RosterFunc(func(ctx context.Context) (rota.Roster, error) {
		cfg := cfgm.Get()
		if cfg == nil {
			return rota.Roster{}, fmt.Errorf("%w: config not loaded", rota.ErrConfiguration)
		}
		rc := cfg.Roster
		if p := strings.TrimSpace(rc.Path); p != "" {
			if !filepath.IsAbs(p) {
				p = filepath.Join(filepath.Dir(cfgm.Path()), p)
			}
			loaded, err := config.LoadRoster(p)
			if err != nil {
				return rota.Roster{}, fmt.Errorf("%w: %v", rota.ErrConfiguration, err)
			}
			rc = loaded
		}
		return rota.Roster{Days: rc.Days, Tasks: rc.Tasks}, nil
	})
}

// validateConfig is run before a hot-reloaded config is committed.
func validateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Roster.Path == "" {
		r := rota.Roster{Days: cfg.Roster.Days, Tasks: cfg.Roster.Tasks}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("roster: %w", err)
		}
	}
	if cfg.Scheduler.Enabled {
		if _, err := scheduler.ParseTrigger(cfg.Scheduler.TopUp); err != nil {
			return fmt.Errorf("scheduler.topup: %w", err)
		}
	}
	return nil
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Chat: logx.ChatConfig{
			Enabled:    cfg.Logging.Chat.Enabled,
			ThreadID:   cfg.Logging.Chat.ThreadID,
			MinLevel:   cfg.Logging.Chat.MinLevel,
			RatePerSec: cfg.Logging.Chat.RatePerSec,
		},
	}
}

func openStore(cfg *config.Config, log logx.Logger) (*storage.Store, error) {
	d, err := cfg.Durations()
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{Path: cfg.Storage.Path, BusyTimeout: d.BusyTimeout}, log)
}

// Local is an engine over the configured ledger without any chat front end.
// The admin CLI uses it.
type Local struct {
	Config *config.Config
	Engine *rota.Engine
	store  *storage.Store
}

func OpenLocal(cfgPath string, log logx.Logger) (*Local, error) {
	cfgm := config.NewManager(cfgPath)
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := openStore(cfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	eng := rota.New(st, rosterSource(cfgm), rota.WithLogger(log.With(logx.String("comp", "rota"))))
	return &Local{Config: cfg, Engine: eng, store: st}, nil
}

func (l *Local) Close() error { return l.store.Close() }

// CheckConfig loads and validates the config at path and resolves the
// roster it points to.
func CheckConfig(ctx context.Context, path string) (rota.Roster, error) {
	cfgm := config.NewManager(path)
	cfg, err := cfgm.Load()
	if err != nil {
		return rota.Roster{}, err
	}
	if err := validateConfig(cfg); err != nil {
		return rota.Roster{}, err
	}
	r, err := rosterSource(cfgm).Roster(ctx)
	if err != nil {
		return rota.Roster{}, err
	}
	return r, r.Validate()
}
