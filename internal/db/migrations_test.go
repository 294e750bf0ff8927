package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunMigrations_FreshDBRecordsVersion(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer db.Close()

	version, err := db.GetSchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Fatalf("version: got %d, want %d", version, SchemaVersion)
	}

	// Second run is a no-op
	n, err := db.RunMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("migrations run: got %d, want 0", n)
	}
}

// oldSchema is the version-1 layout: no video/song/agreement columns on
// registrations and no payment grouping on accounting entries.
const oldSchema = `
CREATE TABLE registrations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    event_id INTEGER NOT NULL,
    discipline_id INTEGER NOT NULL,
    nomination_id INTEGER NOT NULL,
    age_id INTEGER NOT NULL,
    sync_status TEXT NOT NULL DEFAULT 'SYNCED'
);
CREATE TABLE accounting_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    amount REAL NOT NULL,
    method TEXT NOT NULL,
    paid_for TEXT NOT NULL
);
CREATE TABLE schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL);
INSERT INTO schema_info (key, value) VALUES ('version', '1');
`

func TestRunMigrations_UpgradesOldSchema(t *testing.T) {
	dir := t.TempDir()
	// The write locker expects the replica directory to exist
	if err := os.MkdirAll(filepath.Join(dir, ".regdesk"), 0755); err != nil {
		t.Fatal(err)
	}
	conn, err := openConn(filepath.Join(dir, ".regdesk", "old.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Exec(oldSchema); err != nil {
		t.Fatalf("create old schema: %v", err)
	}

	db := &DB{conn: conn, baseDir: dir}
	defer db.Close()

	n, err := db.RunMigrations()
	if err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	if n != 2 {
		t.Errorf("migrations run: got %d, want 2", n)
	}

	version, _ := db.GetSchemaVersion()
	if version != SchemaVersion {
		t.Errorf("version: got %d, want %d", version, SchemaVersion)
	}

	for _, c := range [][2]string{
		{"registrations", "video_url"},
		{"registrations", "agreement2"},
		{"accounting_entries", "payment_group_id"},
	} {
		exists, err := db.columnExists(c[0], c[1])
		if err != nil {
			t.Fatal(err)
		}
		if !exists {
			t.Errorf("column %s.%s missing after migration", c[0], c[1])
		}
	}
}

func TestColumnExists(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	exists, err := db.columnExists("events", "calculator_token")
	if err != nil || !exists {
		t.Errorf("calculator_token: exists=%v err=%v", exists, err)
	}
	exists, err = db.columnExists("events", "no_such_column")
	if err != nil || exists {
		t.Errorf("no_such_column: exists=%v err=%v", exists, err)
	}
}
