package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotabot/internal/calendar"
	"rotabot/internal/rota"
)

func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "storage:\n  path: " + filepath.Join(dir, "ledger.db") + "\n" +
		"roster:\n  days: 3\n  tasks:\n    cooking: [Nel, Ju]\n    walking: [Ban]\n"
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLedgerCommands(t *testing.T) {
	cfg := testConfig(t)
	today := calendar.Clock(nil).Today()

	out, err := runCLI(t, "--config", cfg, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "reset from "+today.String()+": 3 day(s), 4 people, 2 tasks, 6 assignments")

	out, err = runCLI(t, "--config", cfg, "topup")
	require.NoError(t, err)
	assert.Contains(t, out, "window full")

	out, err = runCLI(t, "--config", cfg, "swap", "cooking", today.String(), today.Next().String())
	require.NoError(t, err)
	assert.Contains(t, out, "swapped cooking")

	out, err = runCLI(t, "--config", cfg, "skip", "walking", today.String())
	require.NoError(t, err)
	assert.Contains(t, out, "skipped walking on "+today.String())

	out, err = runCLI(t, "--config", cfg, "schedule", "--days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, today.String()+"\n  cooking: Ju\n  walking: skipped\n")
}

func TestLedgerCommandErrors(t *testing.T) {
	cfg := testConfig(t)

	_, err := runCLI(t, "--config", cfg, "swap", "cooking", "17-10-2026", "2026-10-18")
	require.Error(t, err)

	_, err = runCLI(t, "--config", cfg, "skip", "dishes", "2026-10-17")
	require.ErrorIs(t, err, rota.ErrNotFound)

	_, err = runCLI(t, "--config", cfg, "skip", "walking")
	require.Error(t, err, "missing date argument")
}

func TestValidateCommand(t *testing.T) {
	out, err := runCLI(t, "--config", testConfig(t), "validate")
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 task(s), 3 day window\n", out)

	dir := t.TempDir()
	bad := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("roster:\n  tasks:\n    cooking: []\n"), 0o600))
	_, err = runCLI(t, "--config", bad, "validate")
	require.ErrorIs(t, err, rota.ErrConfiguration)
}
