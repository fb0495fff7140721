package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotabot/internal/calendar"
	logx "rotabot/pkg/logx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "ledger.db")}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 3; i++ {
		st, err := Open(Config{Path: path}, logx.Nop())
		require.NoError(t, err, "open iteration %d", i)
		require.NoError(t, st.Close())
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{}, logx.Nop())
	require.Error(t, err)
}

func TestEnsureIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		a, err := tx.EnsurePerson(ctx, "Nel")
		require.NoError(t, err)
		b, err := tx.EnsurePerson(ctx, "Nel")
		require.NoError(t, err)
		assert.Equal(t, a, b)

		t1, err := tx.EnsureTask(ctx, "cooking")
		require.NoError(t, err)
		t2, err := tx.EnsureTask(ctx, "cooking")
		require.NoError(t, err)
		assert.Equal(t, t1, t2)

		c, err := tx.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, Counts{People: 1, Tasks: 1}, c)
		return nil
	}))
}

func TestInsertUniqueness(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	day := calendar.MustParse("2026-10-17")

	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		taskID, err := tx.EnsureTask(ctx, "cooking")
		require.NoError(t, err)
		p1, err := tx.EnsurePerson(ctx, "Nel")
		require.NoError(t, err)
		p2, err := tx.EnsurePerson(ctx, "Ju")
		require.NoError(t, err)

		ok, err := tx.InsertAssignmentIfAbsent(ctx, taskID, p1, day)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.InsertAssignmentIfAbsent(ctx, taskID, p2, day)
		require.NoError(t, err)
		assert.False(t, ok, "second insert on the same slot must be skipped")

		_, err = tx.InsertAssignment(ctx, Assignment{TaskID: taskID, PersonID: p2, Date: day})
		assert.True(t, errors.Is(err, ErrConflict), "got %v", err)

		a, found, err := tx.AssignmentAt(ctx, taskID, day)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, p1, a.PersonID)
		assert.Equal(t, StatusAssigned, a.Status)
		return nil
	}))
}

func TestMoveIntoOccupiedSlotConflicts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	d0 := calendar.MustParse("2026-10-17")

	err := st.WithTx(ctx, func(tx *Tx) error {
		taskID, _ := tx.EnsureTask(ctx, "cooking")
		pid, _ := tx.EnsurePerson(ctx, "Nel")
		id0, err := tx.InsertAssignment(ctx, Assignment{TaskID: taskID, PersonID: pid, Date: d0})
		require.NoError(t, err)
		_, err = tx.InsertAssignment(ctx, Assignment{TaskID: taskID, PersonID: pid, Date: d0.Next()})
		require.NoError(t, err)
		return tx.MoveAssignment(ctx, id0, d0.Next())
	})
	require.ErrorIs(t, err, ErrConflict)

	// The failed transaction left nothing behind.
	require.NoError(t, st.View(ctx, func(tx *Tx) error {
		c, err := tx.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, Counts{}, c)
		return nil
	}))
}

func TestRangeQueries(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	start := calendar.MustParse("2026-10-15")

	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		walk, _ := tx.EnsureTask(ctx, "walking")
		cook, _ := tx.EnsureTask(ctx, "cooking")
		ban, _ := tx.EnsurePerson(ctx, "Ban")
		nel, _ := tx.EnsurePerson(ctx, "Nel")
		for i := 0; i < 5; i++ {
			d := start.AddDays(i)
			_, err := tx.InsertAssignment(ctx, Assignment{TaskID: walk, PersonID: ban, Date: d})
			require.NoError(t, err)
			_, err = tx.InsertAssignment(ctx, Assignment{TaskID: cook, PersonID: nel, Date: d})
			require.NoError(t, err)
		}
		return nil
	}))

	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		n, err := tx.DeleteBefore(ctx, start.AddDays(2))
		require.NoError(t, err)
		assert.EqualValues(t, 4, n)

		days, err := tx.CountDatesFrom(ctx, start.AddDays(3))
		require.NoError(t, err)
		assert.Equal(t, 2, days)

		last, ok, err := tx.MaxDate(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "2026-10-19", last.String())

		entries, err := tx.Entries(ctx, start, start.AddDays(10))
		require.NoError(t, err)
		require.Len(t, entries, 6)
		assert.Equal(t, "cooking", entries[0].Task, "tasks sort by name within a day")
		assert.Equal(t, "2026-10-17", entries[0].Date.String())

		walk, _, _ := tx.TaskID(ctx, "walking")
		desc, err := tx.AssignmentsAfterDesc(ctx, walk, start.AddDays(2))
		require.NoError(t, err)
		require.Len(t, desc, 2)
		assert.Equal(t, "2026-10-19", desc[0].Date.String())
		assert.Equal(t, "2026-10-18", desc[1].Date.String())
		return nil
	}))
}

func TestRecreateEmptiesLedger(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.EnsurePerson(ctx, "Nel")
		return err
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Recreate(ctx))
		c, err := tx.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, Counts{}, c)
		_, ok, err := tx.MaxDate(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestClosedStore(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Close())
	err := st.WithTx(context.Background(), func(tx *Tx) error { return nil })
	require.ErrorIs(t, err, ErrClosed)
}
