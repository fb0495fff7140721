package rota

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRenderAfterSkip(t *testing.T) {
	r := Roster{Days: 3, Tasks: map[string][]string{
		"walking": {"Ban", "Nel", "Ju"},
		"cooking": {"Nel", "Ju"},
	}}
	e, _ := newEngine(t, Static(r))
	ctx := context.Background()

	_, err := e.Reset(ctx, today)
	require.NoError(t, err)
	require.NoError(t, e.Skip(ctx, "walking", today.Next()))

	s, err := e.Schedule(ctx, 7)
	require.NoError(t, err)
	require.Len(t, s.Days, 4)
	assert.True(t, s.Days[1].Slots[1].Skipped)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "schedule_after_skip", []byte(s.Render()))
}

func TestScheduleWindow(t *testing.T) {
	r := Roster{Days: 10, Tasks: map[string][]string{"cooking": {"A", "B"}}}
	e, _ := newEngine(t, Static(r))
	ctx := context.Background()
	_, err := e.Generate(ctx, r, today.AddDays(-1), 10)
	require.NoError(t, err)

	s, err := e.Schedule(ctx, 0)
	require.NoError(t, err)
	require.Len(t, s.Days, DefaultScheduleDays)
	assert.Equal(t, today, s.Days[0].Date)
	assert.Equal(t, "B", s.Days[0].Slots[0].Person)

	s, err = e.Schedule(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, s.Days, 2)
}

func TestScheduleEmpty(t *testing.T) {
	e, _ := newEngine(t, Static(Roster{Days: 1, Tasks: map[string][]string{"a": {"x"}}}))
	s, err := e.Schedule(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "No assignments scheduled.", s.Render())
}
