package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/streakd/internal/model"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(t.Context(), db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateUp(t.Context(), db); err != nil {
		t.Fatalf("repeated migrate up must be a no-op: %v", err)
	}
	if err := MigrateDown(t.Context(), db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	if err := MigrateUp(t.Context(), db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	if err := store.Insert(t.Context(), model.Activity{
		ID:        "act-rt-1",
		Name:      "Roundtrip activity",
		Date:      now,
		Origin:    model.OriginUserCreated,
		Repeat:    model.RepeatNone,
		Reminder:  model.ReminderSetting{Kind: model.ReminderNone},
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}
	if err := store.Save(t.Context()); err != nil {
		t.Fatalf("save after roundtrip failed: %v", err)
	}

	got, err := store.Get(t.Context(), "act-rt-1")
	if err != nil {
		t.Fatalf("get after roundtrip failed: %v", err)
	}
	if got.Name != "Roundtrip activity" {
		t.Fatalf("unexpected name after roundtrip: %q", got.Name)
	}
}
