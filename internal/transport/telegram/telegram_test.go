package telegram

import (
	"strings"
	"testing"
)

func TestSplitTextShortPassesThrough(t *testing.T) {
	got := splitText("2026-10-17\n  cooking: Nel", 100)
	if len(got) != 1 {
		t.Fatalf("chunks = %d, want 1", len(got))
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	line := strings.Repeat("x", 30)
	text := strings.Join([]string{line, line, line, line}, "\n")
	got := splitText(text, 70)
	if len(got) < 2 {
		t.Fatalf("chunks = %d, want >= 2", len(got))
	}
	for i, c := range got {
		if len([]rune(c)) > 70 {
			t.Fatalf("chunk %d too long: %d", i, len(c))
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk %d has stray newline: %q", i, c)
		}
	}
	if strings.Join(got, "\n") != text {
		t.Fatal("chunks do not reassemble to the original text")
	}
}
