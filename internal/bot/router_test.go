package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotabot/internal/calendar"
	"rotabot/internal/rota"
	"rotabot/internal/storage"
	kit "rotabot/internal/transport"
	logx "rotabot/pkg/logx"
)

type fakeEngine struct {
	calls []string
	err   error
	sched rota.Schedule
	topup rota.TopUpResult
}

func (f *fakeEngine) Reset(_ context.Context, start calendar.Date) (rota.ResetResult, error) {
	f.calls = append(f.calls, "reset "+start.String())
	return rota.ResetResult{Counts: storage.Counts{People: 3, Tasks: 1, Assignments: 7}}, f.err
}

func (f *fakeEngine) TopUp(context.Context) (rota.TopUpResult, error) {
	f.calls = append(f.calls, "topup")
	return f.topup, f.err
}

func (f *fakeEngine) Skip(_ context.Context, task string, d calendar.Date) error {
	f.calls = append(f.calls, fmt.Sprintf("skip %s %s", task, d))
	return f.err
}

func (f *fakeEngine) Swap(_ context.Context, task string, d1, d2 calendar.Date) error {
	f.calls = append(f.calls, fmt.Sprintf("swap %s %s %s", task, d1, d2))
	return f.err
}

func (f *fakeEngine) Schedule(_ context.Context, days int) (rota.Schedule, error) {
	f.calls = append(f.calls, fmt.Sprintf("schedule %d", days))
	return f.sched, f.err
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) SendText(_ context.Context, _ kit.ChatTarget, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return nil
}

func (s *recordingSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1]
}

func newRouter(t *testing.T, eng *fakeEngine) (*Router, *recordingSender) {
	t.Helper()
	snd := &recordingSender{}
	return New(Config{RatePerMin: 600}, eng, snd, logx.Nop()), snd
}

func msg(chat int64, text string) kit.Update {
	return kit.Update{Message: &kit.Message{ChatID: chat, FromID: 7, Text: text}}
}

func TestTokenize(t *testing.T) {
	got := tokenize(`skip "dish washing" 2026-10-17  'a b' c\ d`)
	assert.Equal(t, []string{"skip", "dish washing", "2026-10-17", "a b", "c d"}, got)
	assert.Nil(t, tokenize("   "))
}

func TestParseCommand(t *testing.T) {
	name, args, ok := parseCommand("!swap cooking 2026-10-17 2026-10-18")
	require.True(t, ok)
	assert.Equal(t, "swap", name)
	assert.Equal(t, []string{"cooking", "2026-10-17", "2026-10-18"}, args)

	name, _, ok = parseCommand("/Schedule@rota_bot")
	require.True(t, ok)
	assert.Equal(t, "schedule", name)

	for _, s := range []string{"", "/", "hello", "! ", "/@bot"} {
		_, _, ok := parseCommand(s)
		assert.False(t, ok, s)
	}
}

func TestDispatch(t *testing.T) {
	cases := []struct {
		text string
		call string
	}{
		{"/swap cooking 2026-10-17 2026-10-20", "swap cooking 2026-10-17 2026-10-20"},
		{"!skip cooking 2026-10-18", "skip cooking 2026-10-18"},
		{`/skip "dish washing" 2026-10-18`, "skip dish washing 2026-10-18"},
		{"/update", "topup"},
		{"!topup", "topup"},
		{"/reset", "reset "},
		{"/reset 2026-11-01", "reset 2026-11-01"},
		{"/schedule", "schedule 7"},
		{"/schedule 3", "schedule 3"},
		{"what's the Schedule today?", "schedule 7"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			eng := &fakeEngine{}
			r, snd := newRouter(t, eng)
			r.Handle(context.Background(), msg(1, tc.text))
			assert.Equal(t, []string{tc.call}, eng.calls)
			assert.NotEmpty(t, snd.last())
		})
	}
}

func TestIgnoresUnrelatedMessages(t *testing.T) {
	eng := &fakeEngine{}
	r, snd := newRouter(t, eng)
	r.Handle(context.Background(), msg(1, "good morning"))
	r.Handle(context.Background(), msg(1, "/unknown arg"))
	r.Handle(context.Background(), kit.Update{})
	assert.Empty(t, eng.calls)
	assert.Empty(t, snd.sent)
}

func TestInvalidDatesNeverReachEngine(t *testing.T) {
	eng := &fakeEngine{}
	r, snd := newRouter(t, eng)
	r.Handle(context.Background(), msg(1, "/skip cooking 17-10-2026"))
	r.Handle(context.Background(), msg(1, "/swap cooking 2026-10-17 tomorrow"))
	r.Handle(context.Background(), msg(1, "/reset 2026-13-01"))
	assert.Empty(t, eng.calls)
	require.Len(t, snd.sent, 3)
	for _, s := range snd.sent {
		assert.Equal(t, dateHelp, s)
	}
}

func TestUsageReplies(t *testing.T) {
	eng := &fakeEngine{}
	r, snd := newRouter(t, eng)
	r.Handle(context.Background(), msg(1, "/swap cooking 2026-10-17"))
	assert.Equal(t, "Usage: /swap <task> <YYYY-MM-DD> <YYYY-MM-DD>", snd.last())
	r.Handle(context.Background(), msg(1, "/schedule lots"))
	assert.Equal(t, "Usage: /schedule [days]", snd.last())
	assert.Empty(t, eng.calls)
}

func TestEngineErrorsAreDescribed(t *testing.T) {
	eng := &fakeEngine{err: &rota.OpError{Op: "swap", Task: "cooking", Err: fmt.Errorf("%w: found 1", rota.ErrShape)}}
	r, snd := newRouter(t, eng)
	r.Handle(context.Background(), msg(1, "/swap cooking 2026-10-17 2026-10-30"))
	assert.True(t, strings.HasPrefix(snd.last(), "Failed to swap assignments for task 'cooking'"))
	assert.Contains(t, snd.last(), "Swap failed: unexpected assignments: found 1")
}

func TestTopUpReplies(t *testing.T) {
	eng := &fakeEngine{topup: rota.TopUpResult{Populated: 7}}
	r, snd := newRouter(t, eng)
	r.Handle(context.Background(), msg(1, "/update"))
	assert.Contains(t, snd.last(), "nothing to add")

	eng.topup = rota.TopUpResult{Populated: 5, Days: 2, Start: calendar.MustParse("2026-10-22")}
	r.Handle(context.Background(), msg(1, "/update"))
	assert.Equal(t, "Assignments updated successfully: 2 day(s) added from 2026-10-22.", snd.last())
}

func TestRateLimitPerChat(t *testing.T) {
	eng := &fakeEngine{}
	r := New(Config{RatePerMin: 2}, eng, &recordingSender{}, logx.Nop())
	for i := 0; i < 5; i++ {
		r.Handle(context.Background(), msg(1, "/update"))
	}
	r.Handle(context.Background(), msg(2, "/update"))
	assert.Len(t, eng.calls, 3, "burst of 2 for chat 1 plus one for chat 2")
}

func TestMenuCommands(t *testing.T) {
	r, _ := newRouter(t, &fakeEngine{})
	var names []string
	for _, c := range r.MenuCommands() {
		names = append(names, c.Command)
		assert.NotEmpty(t, c.Description)
	}
	assert.Equal(t, []string{"help", "reset", "schedule", "skip", "swap", "update"}, names)
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	eng := &fakeEngine{}
	r, _ := newRouter(t, eng)
	in := make(chan kit.Update, 2)
	in <- msg(1, "/update")
	close(in)
	require.NoError(t, r.Run(context.Background(), in))
	assert.Equal(t, []string{"topup"}, eng.calls)
}
