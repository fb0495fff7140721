package calendar

import (
	"testing"
	"time"
)

func TestParseAndFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "2026-10-17", want: "2026-10-17", ok: true},
		{raw: " 2024-02-29 ", want: "2024-02-29", ok: true},
		{raw: "2023-02-29", ok: false},
		{raw: "17/10/2026", ok: false},
		{raw: "", ok: false},
	}
	for _, tt := range tests {
		d, err := Parse(tt.raw)
		if tt.ok != (err == nil) {
			t.Fatalf("Parse(%q) err = %v, want ok=%v", tt.raw, err, tt.ok)
		}
		if tt.ok && d.String() != tt.want {
			t.Fatalf("Parse(%q) = %s, want %s", tt.raw, d, tt.want)
		}
	}
}

func TestArithmeticAcrossBoundaries(t *testing.T) {
	t.Parallel()
	d := MustParse("2024-02-28")
	if got := d.Next().String(); got != "2024-02-29" {
		t.Fatalf("Next = %s", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Fatalf("AddDays(2) = %s", got)
	}
	if got := MustParse("2027-01-01").Prev().String(); got != "2026-12-31" {
		t.Fatalf("Prev = %s", got)
	}
	if n := d.DaysUntil(MustParse("2024-03-06")); n != 7 {
		t.Fatalf("DaysUntil = %d, want 7", n)
	}
	if !d.Before(d.Next()) || !d.Next().After(d) || !d.Equal(MustParse("2024-02-28")) {
		t.Fatal("comparison mismatch")
	}
}

func TestClockToday(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("test", 5*3600)
	c := Fixed(time.Date(2026, 10, 17, 23, 30, 0, 0, loc))
	if got := c.Today().String(); got != "2026-10-17" {
		t.Fatalf("Today = %s", got)
	}
	var zero Date
	if !zero.IsZero() || zero.String() != "" {
		t.Fatal("zero date should be empty")
	}
}
