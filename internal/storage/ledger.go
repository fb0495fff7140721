package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rotabot/internal/calendar"
)

// Tx exposes ledger primitives bound to one open transaction.
type Tx struct {
	tx *sql.Tx
}

// Recreate drops all ledger tables and applies the schema again.
func (t *Tx) Recreate(ctx context.Context) error {
	for _, table := range []string{"task_assignments", "tasks", "people"} {
		if _, err := t.tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if _, err := t.tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// EnsurePerson inserts the person if absent and returns its id.
func (t *Tx) EnsurePerson(ctx context.Context, name string) (int64, error) {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO people(name) VALUES(?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, mapErr(err)
	}
	id, _, err := t.PersonID(ctx, name)
	return id, err
}

// EnsureTask inserts the task if absent and returns its id.
func (t *Tx) EnsureTask(ctx context.Context, name string) (int64, error) {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO tasks(task_name) VALUES(?) ON CONFLICT(task_name) DO NOTHING`, name); err != nil {
		return 0, mapErr(err)
	}
	id, _, err := t.TaskID(ctx, name)
	return id, err
}

func (t *Tx) PersonID(ctx context.Context, name string) (int64, bool, error) {
	return t.lookupID(ctx, `SELECT person_id FROM people WHERE name = ?`, name)
}

func (t *Tx) TaskID(ctx context.Context, name string) (int64, bool, error) {
	return t.lookupID(ctx, `SELECT task_id FROM tasks WHERE task_name = ?`, name)
}

func (t *Tx) lookupID(ctx context.Context, query string, arg any) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, query, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertAssignmentIfAbsent writes the row unless (task, date) is already taken.
// It reports whether a row was inserted.
func (t *Tx) InsertAssignmentIfAbsent(ctx context.Context, taskID, personID int64, d calendar.Date) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO task_assignments(task_id, person_id, task_date, status) VALUES(?,?,?,?)
		 ON CONFLICT(task_id, task_date) DO NOTHING`,
		taskID, personID, d.String(), StatusAssigned,
	)
	if err != nil {
		return false, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertAssignment writes a row and fails with ErrConflict if (task, date) is taken.
func (t *Tx) InsertAssignment(ctx context.Context, a Assignment) (int64, error) {
	status := a.Status
	if status == "" {
		status = StatusAssigned
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO task_assignments(task_id, person_id, task_date, status) VALUES(?,?,?,?)`,
		a.TaskID, a.PersonID, a.Date.String(), status,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

// AssignmentAt returns the row for (task, date), if any.
func (t *Tx) AssignmentAt(ctx context.Context, taskID int64, d calendar.Date) (Assignment, bool, error) {
	rows, err := t.queryAssignments(ctx,
		`SELECT assignment_id, task_id, person_id, task_date, status FROM task_assignments
		 WHERE task_id = ? AND task_date = ?`, taskID, d.String())
	if err != nil || len(rows) == 0 {
		return Assignment{}, false, err
	}
	return rows[0], true, nil
}

// AssignmentsOn returns the rows of one task on any of the given dates, ordered by date.
func (t *Tx) AssignmentsOn(ctx context.Context, taskID int64, dates ...calendar.Date) ([]Assignment, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(dates)+1)
	args = append(args, taskID)
	for _, d := range dates {
		args = append(args, d.String())
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(dates)), ",")
	return t.queryAssignments(ctx,
		`SELECT assignment_id, task_id, person_id, task_date, status FROM task_assignments
		 WHERE task_id = ? AND task_date IN (`+marks+`) ORDER BY task_date ASC`, args...)
}

// AssignmentsAfterDesc returns the task's rows strictly after d, latest first.
func (t *Tx) AssignmentsAfterDesc(ctx context.Context, taskID int64, d calendar.Date) ([]Assignment, error) {
	return t.queryAssignments(ctx,
		`SELECT assignment_id, task_id, person_id, task_date, status FROM task_assignments
		 WHERE task_id = ? AND task_date > ? ORDER BY task_date DESC`, taskID, d.String())
}

// SetAssignee rewrites the person and status of one row.
func (t *Tx) SetAssignee(ctx context.Context, id, personID int64, status string) error {
	return t.execOne(ctx,
		`UPDATE task_assignments SET person_id = ?, status = ? WHERE assignment_id = ?`,
		personID, status, id)
}

// SetPerson rewrites only the person of one row.
func (t *Tx) SetPerson(ctx context.Context, id, personID int64) error {
	return t.execOne(ctx,
		`UPDATE task_assignments SET person_id = ? WHERE assignment_id = ?`, personID, id)
}

// MoveAssignment changes the date of one row. A collision is ErrConflict.
func (t *Tx) MoveAssignment(ctx context.Context, id int64, to calendar.Date) error {
	return t.execOne(ctx,
		`UPDATE task_assignments SET task_date = ? WHERE assignment_id = ?`, to.String(), id)
}

func (t *Tx) execOne(ctx context.Context, query string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("expected 1 row affected, got %d", n)
	}
	return nil
}

// DeleteBefore removes every row dated strictly before d.
func (t *Tx) DeleteBefore(ctx context.Context, d calendar.Date) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM task_assignments WHERE task_date < ?`, d.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountDatesFrom counts distinct populated dates on or after d.
func (t *Tx) CountDatesFrom(ctx context.Context, d calendar.Date) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT task_date) FROM task_assignments WHERE task_date >= ?`, d.String()).Scan(&n)
	return n, err
}

// MaxDate returns the latest populated date, if the ledger is not empty.
func (t *Tx) MaxDate(ctx context.Context) (calendar.Date, bool, error) {
	var raw sql.NullString
	if err := t.tx.QueryRowContext(ctx, `SELECT MAX(task_date) FROM task_assignments`).Scan(&raw); err != nil {
		return calendar.Date{}, false, err
	}
	if !raw.Valid || raw.String == "" {
		return calendar.Date{}, false, nil
	}
	d, err := calendar.Parse(raw.String)
	if err != nil {
		return calendar.Date{}, false, err
	}
	return d, true, nil
}

// Entries returns joined rows with from <= date < to, ordered by date then task name.
func (t *Tx) Entries(ctx context.Context, from, to calendar.Date) ([]Entry, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT a.task_date, t.task_name, p.name, a.status
		FROM task_assignments a
		JOIN tasks t ON a.task_id = t.task_id
		JOIN people p ON a.person_id = p.person_id
		WHERE a.task_date >= ? AND a.task_date < ?
		ORDER BY a.task_date ASC, t.task_name ASC`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			raw string
			e   Entry
		)
		if err := rows.Scan(&raw, &e.Task, &e.Person, &e.Status); err != nil {
			return nil, err
		}
		if e.Date, err = calendar.Parse(raw); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntriesOn returns task name -> person name for every row on d.
func (t *Tx) EntriesOn(ctx context.Context, d calendar.Date) (map[string]string, error) {
	entries, err := t.Entries(ctx, d, d.Next())
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Task] = e.Person
	}
	return out, nil
}

// Counts returns row counts of the three ledger tables.
func (t *Tx) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := t.tx.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM people),
		(SELECT COUNT(*) FROM tasks),
		(SELECT COUNT(*) FROM task_assignments)`).Scan(&c.People, &c.Tasks, &c.Assignments)
	return c, err
}

func (t *Tx) queryAssignments(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var (
			a   Assignment
			raw string
		)
		if err := rows.Scan(&a.ID, &a.TaskID, &a.PersonID, &raw, &a.Status); err != nil {
			return nil, err
		}
		if a.Date, err = calendar.Parse(raw); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
