// Package bot turns chat messages into rotation operations and replies
// with the outcome.
package bot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"rotabot/internal/calendar"
	"rotabot/internal/rota"
	kit "rotabot/internal/transport"
	logx "rotabot/pkg/logx"
)

// Engine is the subset of *rota.Engine the router drives.
type Engine interface {
	Reset(ctx context.Context, start calendar.Date) (rota.ResetResult, error)
	TopUp(ctx context.Context) (rota.TopUpResult, error)
	Skip(ctx context.Context, task string, d calendar.Date) error
	Swap(ctx context.Context, task string, d1, d2 calendar.Date) error
	Schedule(ctx context.Context, days int) (rota.Schedule, error)
}

type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Handle      HandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	Args    []string
	ReqID   string
	Logger  logx.Logger
}

type Config struct {
	// RatePerMin bounds handled messages per chat per minute. 0 means 20.
	RatePerMin int
	// Timeout bounds one command. 0 means 30s.
	Timeout time.Duration
}

type Router struct {
	cfg    Config
	log    logx.Logger
	engine Engine
	sender kit.Sender

	commands map[string]*Command // name and aliases
	ordered  []*Command
	handler  func(*Command) HandlerFunc

	limMu    sync.Mutex
	limiters map[int64]*rate.Limiter
}

func New(cfg Config, engine Engine, sender kit.Sender, log logx.Logger) *Router {
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{
		cfg:      cfg,
		log:      log,
		engine:   engine,
		sender:   sender,
		commands: map[string]*Command{},
		limiters: map[int64]*rate.Limiter{},
	}
	r.handler = func(c *Command) HandlerFunc {
		return Chain(c.Handle, MWRequestLog(), MWPanicRecover(), MWTimeout(r.cfg.Timeout))
	}
	for _, c := range r.builtins() {
		r.register(c)
	}
	return r
}

func (r *Router) register(c *Command) {
	r.ordered = append(r.ordered, c)
	r.commands[c.Name] = c
	for _, a := range c.Aliases {
		r.commands[a] = c
	}
}

// MenuCommands lists commands for the chat client's command menu.
func (r *Router) MenuCommands() []kit.BotCommand {
	out := make([]kit.BotCommand, 0, len(r.ordered))
	for _, c := range r.ordered {
		out = append(out, kit.BotCommand{Command: c.Name, Description: c.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// Run dispatches updates until ctx is done or in is closed.
func (r *Router) Run(ctx context.Context, in <-chan kit.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-in:
			if !ok {
				return nil
			}
			r.Handle(ctx, up)
		}
	}
}

// Handle processes one update synchronously.
func (r *Router) Handle(ctx context.Context, up kit.Update) {
	m := up.Message
	if m == nil || m.Text == "" {
		return
	}
	name, args, isCmd := parseCommand(m.Text)
	var cmd *Command
	switch {
	case isCmd:
		cmd = r.commands[name]
		if cmd == nil {
			return
		}
	case mentionsSchedule(m.Text):
		cmd, name, args = r.commands["schedule"], "schedule", nil
	default:
		return
	}

	if !r.allow(m.ChatID) {
		r.log.Debug("rate limited", logx.Int64("chat_id", m.ChatID), logx.String("cmd", name))
		return
	}
	reqID := uuid.NewString()
	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: m.ChatID, ThreadID: m.ThreadID},
		FromID:  m.FromID,
		Command: cmd.Name,
		Args:    args,
		ReqID:   reqID,
		Logger:  r.log.With(logx.String("req_id", reqID)),
	}
	_ = r.handler(cmd)(ctx, req)
}

func (r *Router) allow(chatID int64) bool {
	r.limMu.Lock()
	defer r.limMu.Unlock()
	lim, ok := r.limiters[chatID]
	if !ok {
		burst := 5
		if r.cfg.RatePerMin < burst {
			burst = r.cfg.RatePerMin
		}
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.cfg.RatePerMin)), burst)
		r.limiters[chatID] = lim
	}
	return lim.Allow()
}

func (r *Router) reply(ctx context.Context, req *Request, text string) error {
	if r.sender == nil {
		return nil
	}
	if err := r.sender.SendText(ctx, req.Chat, text); err != nil {
		req.Logger.Warn("reply failed", logx.Err(err))
		return err
	}
	return nil
}
