// Package app wires configuration, logging, the ledger, the rotation engine,
// the chat front end and the top-up scheduler into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/hashicorp/go-multierror"

	"rotabot/internal/bot"
	"rotabot/internal/config"
	"rotabot/internal/eventbus"
	"rotabot/internal/rota"
	"rotabot/internal/runtime/supervisor"
	"rotabot/internal/storage"
	"rotabot/internal/task/scheduler"
	kit "rotabot/internal/transport"
	"rotabot/internal/transport/telegram"
	logx "rotabot/pkg/logx"
)

const topUpJob = "rota.topup"

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   *eventbus.MemBus
	store *storage.Store

	adapter kit.Adapter
	engine  *rota.Engine
	router  *bot.Router
	sched   *scheduler.Service

	announceChat atomic.Int64
	updates      chan kit.Update
	stopped      atomic.Bool
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	durs, err := cfg.Durations()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: durs.PollTimeout,
	}, bootLog)
	if err != nil {
		return nil, err
	}

	// Bootstrap with the chat sink off, point it at the log chat, then enable.
	logCfg := logConfig(cfg)
	bootCfg := logCfg
	bootCfg.Chat.Enabled = false
	logSvc, log := logx.New(bootCfg, ad)
	groupLog, _ := config.ParseChatID(cfg.Telegram.GroupLog)
	logSvc.SetChatTarget(groupLog, cfg.Logging.Chat.ThreadID)
	logSvc.Apply(logCfg)

	store, err := openStore(cfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	bus := eventbus.New()
	eng := rota.New(store, rosterSource(cfgm),
		rota.WithLogger(log.With(logx.String("comp", "rota"))),
		rota.WithBus(bus),
	)
	router := bot.New(bot.Config{RatePerMin: cfg.Telegram.RatePerMin}, eng, ad, log.With(logx.String("comp", "bot")))

	a := &App{
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		bus:     bus,
		store:   store,
		adapter: ad,
		engine:  eng,
		router:  router,
		sched:   scheduler.New(log.With(logx.String("comp", "scheduler")), nil),
		updates: make(chan kit.Update, 256),
	}
	announce, _ := config.ParseChatID(cfg.Telegram.AnnounceChat)
	a.announceChat.Store(announce)
	if err := a.applySchedule(cfg); err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) topUp(ctx context.Context) error {
	_, err := a.engine.TopUp(ctx)
	return err
}

// applySchedule registers or removes the periodic top-up to match cfg.
func (a *App) applySchedule(cfg *config.Config) error {
	if !cfg.Scheduler.Enabled {
		if a.sched.Remove(topUpJob) {
			a.log.Info("periodic top-up disabled")
		}
		return nil
	}
	durs, err := cfg.Durations()
	if err != nil {
		return err
	}
	return a.sched.Add(topUpJob, cfg.Scheduler.TopUp, durs.TopUpTimeout, a.topUp)
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if mu, ok := a.adapter.(kit.CommandMenuUpdater); ok {
		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mu.UpdateMenuCommands(mctx, a.router.MenuCommands()); err != nil {
			a.log.Warn("menu commands update failed", logx.Err(err))
		}
		cancel()
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.router.Run(c, a.updates)
	})

	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("ledger.announce", func(c context.Context) {
		defer unsub()
		a.announceLoop(c, events)
	})

	a.sched.Start(a.sup.Context())
	if a.cfgm.Get().Scheduler.Enabled {
		// Catch up right away instead of waiting for the first trigger.
		a.sup.Go0("rota.topup.startup", func(c context.Context) {
			if err := a.sched.RunNow(c, topUpJob); err != nil {
				a.log.Warn("startup top-up failed", logx.Err(err))
			}
		})
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go0("systemd.watchdog", func(c context.Context) { watchdogLoop(c, a.log) })

	sdNotify(a.log, daemon.SdNotifyReady)
	a.log.Info("started", logx.Int("commands", len(a.router.MenuCommands())))
	return nil
}

func (a *App) announceLoop(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			lc, isChange := e.Data.(eventbus.LedgerChange)
			chat := a.announceChat.Load()
			a.log.Debug("ledger changed", logx.String("op", lc.Op), logx.Int("rows", lc.Rows))
			if !isChange || chat == 0 || lc.Summary == "" {
				continue
			}
			sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := a.adapter.SendText(sctx, kit.ChatTarget{ChatID: chat}, "Schedule updated: "+lc.Summary); err != nil {
				a.log.Warn("announcement failed", logx.Err(err), logx.Int64("chat_id", chat))
			}
			cancel()
		}
	}
}

func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			sections, attrs := config.SummarizeChange(lastApplied, newCfg)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
			a.applyReload(lastApplied, newCfg, sections)
			lastApplied = newCfg
		}
	}
}

func (a *App) applyReload(oldCfg, newCfg *config.Config, sections []string) {
	for _, s := range sections {
		switch s {
		case "logging", "telegram":
			groupLog, _ := config.ParseChatID(newCfg.Telegram.GroupLog)
			a.logs.SetChatTarget(groupLog, newCfg.Logging.Chat.ThreadID)
			a.logs.Apply(logConfig(newCfg))
			announce, _ := config.ParseChatID(newCfg.Telegram.AnnounceChat)
			a.announceChat.Store(announce)
			if oldCfg != nil && (oldCfg.Telegram.Token != newCfg.Telegram.Token ||
				oldCfg.Telegram.PollTimeout != newCfg.Telegram.PollTimeout ||
				oldCfg.Telegram.RatePerMin != newCfg.Telegram.RatePerMin) {
				a.log.Warn("telegram connection settings changed; restart required for them to take effect")
			}
		case "storage":
			a.log.Warn("storage config changed; restart required for changes to take effect")
		case "scheduler":
			if err := a.applySchedule(newCfg); err != nil {
				a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
			}
		}
	}
}

// Stop shuts everything down in reverse start order. It is safe to call more than once.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if !a.stopped.CompareAndSwap(false, true) {
		return nil
	}
	start := time.Now()
	a.log.Info("stopping", logx.String("reason", string(reason)))
	sdNotify(a.log, daemon.SdNotifyStopping)

	var result *multierror.Error
	a.sched.Stop(ctx)
	if err := a.adapter.Stop(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("telegram: %w", err))
	}
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			result = multierror.Append(result, fmt.Errorf("supervisor: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("storage: %w", err))
	}
	a.log.Info("stopped", logx.Duration("took", time.Since(start)))
	if err := a.logs.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("logging: %w", err))
	}
	return result.ErrorOrNil()
}
