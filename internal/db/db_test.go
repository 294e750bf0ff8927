package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitialize(t *testing.T) {
	dir := t.TempDir()

	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer db.Close()

	// Check database file exists
	dbPath := filepath.Join(dir, ".regdesk", "replica.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}

	version, err := db.GetSchemaVersion()
	if err != nil {
		t.Fatalf("GetSchemaVersion failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version: got %d, want %d", version, SchemaVersion)
	}
}

func TestOpen_NotInitialized(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(dir); err == nil {
		t.Fatal("expected error for missing replica")
	}
}

func TestOpen_AfterInitialize(t *testing.T) {
	dir := t.TempDir()

	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	counts, err := db.CountsByTable()
	if err != nil {
		t.Fatalf("CountsByTable failed: %v", err)
	}
	for _, table := range []string{"events", "collectives", "registrations", "accounting_entries"} {
		if counts[table] != 0 {
			t.Errorf("%s: got %d, want 0", table, counts[table])
		}
	}
}

func TestCountPendingPush(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`INSERT INTO disciplines (server_id, name) VALUES (10, 'Jazz')`,
		`INSERT INTO nominations (server_id, name) VALUES (20, 'Solo')`,
		`INSERT INTO ages (server_id, name) VALUES (30, 'Juniors')`,
		`INSERT INTO events (server_id, name, start_date, end_date) VALUES (100, 'Cup', '2025-05-01', '2025-05-02')`,
		`INSERT INTO registrations (event_id, discipline_id, nomination_id, age_id, sync_status)
		 VALUES (1, 1, 1, 1, 'PENDING')`,
		`INSERT INTO accounting_entries (amount, method, paid_for, sync_status)
		 VALUES (100, 'CASH', 'PERFORMANCE', 'PENDING')`,
	}
	for _, s := range stmts {
		if _, err := db.Conn().Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := db.CountPendingPush()
	if err != nil {
		t.Fatalf("CountPendingPush failed: %v", err)
	}
	if n != 2 {
		t.Errorf("pending: got %d, want 2", n)
	}
}

func TestListRegistrationsForEvent_JoinsNames(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`INSERT INTO disciplines (server_id, name) VALUES (10, 'Jazz')`,
		`INSERT INTO nominations (server_id, name) VALUES (20, 'Solo')`,
		`INSERT INTO ages (server_id, name) VALUES (30, 'Juniors')`,
		`INSERT INTO collectives (server_id, name) VALUES (70, 'Alpha')`,
		`INSERT INTO events (server_id, name, start_date, end_date) VALUES (100, 'Cup', '2025-05-01', '2025-05-02')`,
		`INSERT INTO registrations (event_id, collective_id, discipline_id, nomination_id, age_id, participants_count)
		 VALUES (1, 1, 1, 1, 1, 6)`,
	}
	for _, s := range stmts {
		if _, err := db.Conn().Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rows, err := db.ListRegistrationsForEvent(1)
	if err != nil {
		t.Fatalf("ListRegistrationsForEvent failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	r := rows[0]
	if r.Collective != "Alpha" || r.Discipline != "Jazz" || r.Nomination != "Solo" || r.Age != "Juniors" {
		t.Errorf("joined names wrong: %+v", r)
	}
	if r.Category != "" {
		t.Errorf("category should be empty, got %q", r.Category)
	}
}

func TestEventsWithServerID_SkipsLocalOnly(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`INSERT INTO events (server_id, name, start_date, end_date) VALUES (100, 'Pulled', '2025-05-01', '2025-05-02')`,
		`INSERT INTO events (name, start_date, end_date) VALUES ('Draft', '2025-06-01', '2025-06-02')`,
	}
	for _, s := range stmts {
		if _, err := db.Conn().Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	events, err := db.EventsWithServerID()
	if err != nil {
		t.Fatalf("EventsWithServerID failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	if events[0].ServerID == nil || *events[0].ServerID != 100 {
		t.Errorf("server id: got %v", events[0].ServerID)
	}

	ev, err := db.GetEventByServerID(999)
	if err != nil {
		t.Fatalf("GetEventByServerID failed: %v", err)
	}
	if ev != nil {
		t.Error("expected nil for unknown server id")
	}
}
