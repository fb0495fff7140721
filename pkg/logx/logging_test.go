package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	kit "rotabot/internal/transport"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "rota"))
	log.Info("skip applied", String("task", "cooking"), Int("shifted", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v (%q)", err, buf.String())
	}
	if rec["comp"] != "rota" || rec["task"] != "cooking" || rec["shifted"].(float64) != 3 {
		t.Fatalf("unexpected record: %v", rec)
	}
	if c, _ := rec["caller"].(string); !strings.HasPrefix(c, "logging_test.go:") {
		t.Fatalf("caller = %q", c)
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Warn("ignored")
	if Nop().IsZero() {
		t.Fatal("Nop is not the zero value")
	}
}

func TestFormatChatLine(t *testing.T) {
	got := formatChatLine([]byte(`{"level":"warn","message":"topup failed","task":"cooking","err":"boom","time":"x"}`))
	want := "[WARN] topup failed\n- err=boom\n- task=cooking"
	if got != want {
		t.Fatalf("formatChatLine =\n%q\nwant\n%q", got, want)
	}
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingSender) SendText(_ context.Context, _ kit.ChatTarget, text string) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, text)
	r.mu.Unlock()
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestChatSinkRespectsMinLevel(t *testing.T) {
	snd := &recordingSender{}
	svc, log := New(Config{Level: "debug", Chat: ChatConfig{Enabled: true, MinLevel: "warn", RatePerSec: 10}}, snd)
	defer svc.Close()
	svc.SetChatTarget(42, 0)

	log.Info("not forwarded")
	log.Warn("forwarded")

	deadline := time.Now().Add(2 * time.Second)
	for snd.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := snd.count(); n != 1 {
		t.Fatalf("sent %d messages, want 1", n)
	}
	if !strings.Contains(snd.msgs[0], "forwarded") {
		t.Fatalf("unexpected message %q", snd.msgs[0])
	}
}
