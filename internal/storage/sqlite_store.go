package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/streakd/internal/calendar"
	"github.com/sandeepkv93/streakd/internal/model"
)

// Fixed-width UTC so that text comparison in SQL orders like time does.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore buffers writes in one transaction opened on the first write
// and committed by Save. Reads see the pending writes.
type SQLiteStore struct {
	db *sql.DB

	mu sync.Mutex
	tx *sql.Tx
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	// A single connection keeps the pending transaction and every read on
	// the same sqlite handle.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens path, applies migrations and returns a ready store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.mu.Unlock()
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// reader returns the pending transaction when there is one. Caller holds mu.
func (s *SQLiteStore) reader() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// writer lazily opens the pending transaction. Caller holds mu.
func (s *SQLiteStore) writer(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Save commits pending writes. On failure the writes are rolled back and
// the database keeps its last committed state.
func (s *SQLiteStore) Save(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Discard drops pending writes.
func (s *SQLiteStore) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

func (s *SQLiteStore) Insert(ctx context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.writer(ctx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (id, series_id, name, scheduled_at, duration_sec, completed, completed_at, origin,
			rescheduled, color_name, reminder_kind, reminder_time, repeat_option, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SeriesID, a.Name, mustTime(a.Date), int64(a.Duration/time.Second), boolInt(a.Completed),
		nullTime(a.CompletedAt), string(a.Origin), boolInt(a.Rescheduled), a.ColorName,
		string(reminderKind(a.Reminder)), reminderTime(a.Reminder), string(a.Repeat), mustTime(a.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicate, a.ID)
		}
		return err
	}
	return insertSubtasks(ctx, tx, a)
}

func (s *SQLiteStore) Update(ctx context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.writer(ctx)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE activities
		SET series_id = ?, name = ?, scheduled_at = ?, duration_sec = ?, completed = ?, completed_at = ?, origin = ?,
			rescheduled = ?, color_name = ?, reminder_kind = ?, reminder_time = ?, repeat_option = ?
		WHERE id = ?`,
		a.SeriesID, a.Name, mustTime(a.Date), int64(a.Duration/time.Second), boolInt(a.Completed),
		nullTime(a.CompletedAt), string(a.Origin), boolInt(a.Rescheduled), a.ColorName,
		string(reminderKind(a.Reminder)), reminderTime(a.Reminder), string(a.Repeat), a.ID,
	)
	if err != nil {
		return err
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subtasks WHERE activity_id = ?`, a.ID); err != nil {
		return err
	}
	return insertSubtasks(ctx, tx, a)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.writer(ctx)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

const activityColumns = `id, series_id, name, scheduled_at, duration_sec, completed, completed_at, origin,
	rescheduled, color_name, reminder_kind, reminder_time, repeat_option, created_at`

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.reader()
	a, err := scanActivity(q.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Activity{}, ErrNotFound
		}
		return model.Activity{}, err
	}
	if a.Subtasks, err = loadSubtasks(ctx, q, a.ID); err != nil {
		return model.Activity{}, err
	}
	return a, nil
}

func (s *SQLiteStore) Fetch(ctx context.Context, filter ActivityFilter) ([]model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + activityColumns + ` FROM activities`
	clauses := make([]string, 0, 7)
	args := make([]any, 0, 8)
	if filter.Completed != nil {
		clauses = append(clauses, "completed = ?")
		args = append(args, boolInt(*filter.Completed))
	}
	if filter.Rescheduled != nil {
		clauses = append(clauses, "rescheduled = ?")
		args = append(args, boolInt(*filter.Rescheduled))
	}
	if !filter.Before.IsZero() {
		clauses = append(clauses, "scheduled_at < ?")
		args = append(args, mustTime(filter.Before))
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "scheduled_at >= ?")
		args = append(args, mustTime(filter.From))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "scheduled_at < ?")
		args = append(args, mustTime(filter.To))
	}
	if filter.SeriesID != "" {
		clauses = append(clauses, "series_id = ?")
		args = append(args, filter.SeriesID)
	}
	if filter.Name != "" {
		clauses = append(clauses, "lower(trim(name)) = lower(trim(?))")
		args = append(args, filter.Name)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY scheduled_at ASC, created_at ASC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	q := s.reader()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]model.Activity, 0)
	for rows.Next() {
		a, scanErr := scanActivity(rows)
		if scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Subtasks load after the cursor is closed: the store runs on a single
	// connection.
	for i := range out {
		if out[i].Subtasks, err = loadSubtasks(ctx, q, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Settings exposes the settings table as a KeyValueStore.
func (s *SQLiteStore) Settings() KeyValueStore {
	return sqliteSettings{s}
}

type sqliteSettings struct {
	s *SQLiteStore
}

func (k sqliteSettings) Get(ctx context.Context, key string) (string, bool, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	var value string
	err := k.s.reader().QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (k sqliteSettings) Set(ctx context.Context, key, value string) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	_, err := k.s.reader().ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

func insertSubtasks(ctx context.Context, tx *sql.Tx, a model.Activity) error {
	for i, st := range a.Subtasks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subtasks (id, activity_id, position, name, completed)
			VALUES (?, ?, ?, ?, ?)`,
			st.ID, a.ID, i, st.Name, boolInt(st.Completed),
		); err != nil {
			return fmt.Errorf("insert subtask %s: %w", st.ID, err)
		}
	}
	return nil
}

func loadSubtasks(ctx context.Context, q querier, activityID string) ([]model.Subtask, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, completed FROM subtasks WHERE activity_id = ? ORDER BY position ASC`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Subtask
	for rows.Next() {
		var st model.Subtask
		var completed int
		if err := rows.Scan(&st.ID, &st.Name, &completed); err != nil {
			return nil, err
		}
		st.Completed = completed == 1
		out = append(out, st)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (model.Activity, error) {
	var out model.Activity
	var scheduled, created, origin, kind, tod, repeat string
	var completedAt sql.NullString
	var durationSec int64
	var completed, rescheduled int
	if err := s.Scan(&out.ID, &out.SeriesID, &out.Name, &scheduled, &durationSec, &completed, &completedAt,
		&origin, &rescheduled, &out.ColorName, &kind, &tod, &repeat, &created); err != nil {
		return model.Activity{}, err
	}
	var err error
	if out.Date, err = parseRequiredTime(scheduled); err != nil {
		return model.Activity{}, err
	}
	if out.CreatedAt, err = parseRequiredTime(created); err != nil {
		return model.Activity{}, err
	}
	if out.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return model.Activity{}, err
	}
	out.Duration = time.Duration(durationSec) * time.Second
	out.Completed = completed == 1
	out.Rescheduled = rescheduled == 1
	out.Origin = model.Origin(origin)
	out.Repeat = model.RepeatOption(repeat)
	out.Reminder.Kind = model.ReminderKind(kind)
	if tod != "" {
		if out.Reminder.TimeOfDay, err = calendar.ParseTimeOfDay(tod); err != nil {
			return model.Activity{}, err
		}
	}
	return out, nil
}

func reminderKind(r model.ReminderSetting) model.ReminderKind {
	if r.Kind == "" {
		return model.ReminderNone
	}
	return r.Kind
}

func reminderTime(r model.ReminderSetting) string {
	if !r.Enabled() {
		return ""
	}
	return r.TimeOfDay.String()
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
