package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logx "rotabot/pkg/logx"
)

func TestParseTriggerVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		raw    string
		cron   string
		source string
	}{
		{name: "cron", raw: "5 0 * * *", cron: "5 0 * * *", source: "cron"},
		{name: "prefixed cron", raw: "cron:0 6 * * 1", cron: "0 6 * * 1", source: "cron"},
		{name: "descriptor", raw: "@daily", cron: "@daily", source: "cron"},
		{name: "hhmm", raw: "00:05", cron: "5 0 * * *", source: "daily"},
		{name: "hhmm single digit hour", raw: "7:30", cron: "30 7 * * *", source: "daily"},
		{name: "duration", raw: "6h", cron: "@every 6h0m0s", source: "duration"},
		{name: "prefixed interval", raw: "every:90m", cron: "@every 1h30m0s", source: "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTrigger(tt.raw)
			if err != nil {
				t.Fatalf("ParseTrigger(%q) error: %v", tt.raw, err)
			}
			if got.Cron != tt.cron {
				t.Fatalf("Cron = %q, want %q", got.Cron, tt.cron)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
		})
	}
}

func TestParseTriggerInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "24:00", "12:60", "every:100ms", "cron:"} {
		if _, err := ParseTrigger(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestAddRejectsBadCron(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), nil)
	err := s.Add("topup", "cron:61 * * * *", 0, func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid cron field")
	}
	if len(s.Snapshot()) != 0 {
		t.Fatal("invalid schedule must not be registered")
	}
}

func TestRunNowSkipsOverlap(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), nil)
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	err := s.Add("topup", "00:05", time.Second, func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "topup") }()
	<-started
	if err := s.RunNow(context.Background(), "topup"); err != nil {
		t.Fatalf("overlapping RunNow returned %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first RunNow returned %v", err)
	}

	info := s.Snapshot()
	if len(info) != 1 || info[0].Runs != 1 || info[0].Skipped != 1 {
		t.Fatalf("unexpected snapshot: %+v", info)
	}
}

func TestRunNowReportsErrors(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), nil)
	boom := errors.New("boom")
	_ = s.Add("topup", "6h", 0, func(context.Context) error { return boom })

	if err := s.RunNow(context.Background(), "topup"); !errors.Is(err, boom) {
		t.Fatalf("RunNow error = %v, want boom", err)
	}
	if got := s.Snapshot()[0].LastErr; got != "boom" {
		t.Fatalf("LastErr = %q", got)
	}
	if err := s.RunNow(context.Background(), "missing"); !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("RunNow missing = %v", err)
	}
}

func TestStartFiresIntervalJobs(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), nil)
	fired := make(chan struct{}, 4)
	_ = s.Add("tick", "@every 1s", 0, func(context.Context) error {
		fired <- struct{}{}
		return nil
	})
	s.Start(context.Background())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("interval job did not fire")
	}
	if next := s.Snapshot()[0].Next; next.IsZero() {
		t.Fatal("running schedule should report its next fire time")
	}
}
