package sync

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/marat/regdesk/internal/api"
)

const syncTestSchema = `
CREATE TABLE events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL,
    start_date DATETIME NOT NULL,
    end_date DATETIME NOT NULL,
    description TEXT DEFAULT '',
    status TEXT NOT NULL DEFAULT 'DRAFT',
    is_online INTEGER NOT NULL DEFAULT 0,
    payment_enable INTEGER NOT NULL DEFAULT 1,
    category_enable INTEGER NOT NULL DEFAULT 1,
    calculator_token TEXT UNIQUE,
    sync_status TEXT NOT NULL DEFAULT 'SYNCED',
    last_synced_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE collectives (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    accessory TEXT DEFAULT '',
    school TEXT DEFAULT '',
    contacts TEXT DEFAULT '',
    city TEXT DEFAULT '',
    sync_status TEXT NOT NULL DEFAULT 'SYNCED',
    last_synced_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE disciplines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    abbreviations TEXT,
    variants TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE nominations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE ages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE registrations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    event_id INTEGER NOT NULL,
    collective_id INTEGER,
    discipline_id INTEGER NOT NULL,
    nomination_id INTEGER NOT NULL,
    age_id INTEGER NOT NULL,
    category_id INTEGER,
    dance_name TEXT DEFAULT '',
    duration TEXT DEFAULT '',
    participants_count INTEGER NOT NULL DEFAULT 0,
    federation_participants_count INTEGER NOT NULL DEFAULT 0,
    diplomas_count INTEGER NOT NULL DEFAULT 0,
    medals_count INTEGER NOT NULL DEFAULT 0,
    diplomas_list TEXT DEFAULT '',
    payment_status TEXT NOT NULL DEFAULT 'UNPAID',
    paid_amount REAL,
    performance_paid INTEGER NOT NULL DEFAULT 0,
    diplomas_and_medals_paid INTEGER NOT NULL DEFAULT 0,
    diplomas_printed INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'PENDING',
    notes TEXT DEFAULT '',
    number INTEGER,
    block_number INTEGER,
    video_url TEXT DEFAULT '',
    song_url TEXT DEFAULT '',
    agreement INTEGER NOT NULL DEFAULT 0,
    agreement2 INTEGER NOT NULL DEFAULT 0,
    sync_status TEXT NOT NULL DEFAULT 'SYNCED',
    last_synced_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE accounting_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    registration_id INTEGER,
    collective_id INTEGER,
    event_id INTEGER,
    amount REAL NOT NULL,
    discount_amount REAL NOT NULL DEFAULT 0,
    discount_percent REAL NOT NULL DEFAULT 0,
    method TEXT NOT NULL,
    paid_for TEXT NOT NULL,
    payment_group_id TEXT DEFAULT '',
    payment_group_name TEXT DEFAULT '',
    description TEXT DEFAULT '',
    deleted_at DATETIME,
    sync_status TEXT NOT NULL DEFAULT 'SYNCED',
    last_synced_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func setupSyncDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := conn.Exec(syncTestSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// stubClient is a scriptable Client for engine tests.
type stubClient struct {
	disciplines []api.ReferenceItem
	nominations []api.ReferenceItem
	ages        []api.ReferenceItem
	categories  []api.ReferenceItem
	events      []api.EventDTO

	// registration pages keyed by event server id, then page number
	regPages map[int64]map[int]*api.RegistrationPage
	accPages map[int]*api.AccountingPage

	refErr      error
	eventsErr   error
	regErr      error
	regFailPage int
	accErr      error

	regCalls int
	accCalls int

	created        []map[string]any
	updated        map[int64]map[string]any
	createdEntries []map[string]any
	nextServerID   int64
	createErr      error
	updateErr      error
}

func newStubClient() *stubClient {
	return &stubClient{
		regPages:     map[int64]map[int]*api.RegistrationPage{},
		accPages:     map[int]*api.AccountingPage{},
		updated:      map[int64]map[string]any{},
		nextServerID: 9000,
	}
}

func (c *stubClient) Disciplines() ([]api.ReferenceItem, error) {
	return c.disciplines, c.refErr
}
func (c *stubClient) Nominations() ([]api.ReferenceItem, error) {
	return c.nominations, c.refErr
}
func (c *stubClient) Ages() ([]api.ReferenceItem, error) { return c.ages, c.refErr }
func (c *stubClient) Categories() ([]api.ReferenceItem, error) {
	return c.categories, c.refErr
}
func (c *stubClient) Events() ([]api.EventDTO, error) { return c.events, c.eventsErr }

func (c *stubClient) Registrations(eventID int64, page, limit int) (*api.RegistrationPage, error) {
	c.regCalls++
	if c.regErr != nil {
		return nil, c.regErr
	}
	if c.regFailPage != 0 && page == c.regFailPage {
		return nil, fmt.Errorf("page %d unavailable", page)
	}
	if p, ok := c.regPages[eventID][page]; ok {
		return p, nil
	}
	return &api.RegistrationPage{}, nil
}

func (c *stubClient) AccountingEntries(eventID int64, page, limit int) (*api.AccountingPage, error) {
	c.accCalls++
	if c.accErr != nil {
		return nil, c.accErr
	}
	if p, ok := c.accPages[page]; ok {
		return p, nil
	}
	return &api.AccountingPage{}, nil
}

func (c *stubClient) CreateRegistration(body map[string]any) (*api.RegistrationDTO, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.created = append(c.created, body)
	c.nextServerID++
	return &api.RegistrationDTO{ID: c.nextServerID}, nil
}

func (c *stubClient) UpdateRegistration(serverID int64, body map[string]any) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updated[serverID] = body
	return nil
}

func (c *stubClient) CreateAccountingEntry(body map[string]any) (*api.AccountingEntryDTO, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.createdEntries = append(c.createdEntries, body)
	c.nextServerID++
	return &api.AccountingEntryDTO{ID: c.nextServerID}, nil
}

func newTestSyncer(conn *sql.DB, client Client) *Syncer {
	return &Syncer{
		conn:   conn,
		client: client,
		now:    func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

// seedReplica inserts one row per lookup table and one linked event,
// all with known server ids.
func seedReplica(t *testing.T, conn *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO disciplines (server_id, name) VALUES (10, 'Jazz')`,
		`INSERT INTO nominations (server_id, name) VALUES (20, 'Solo')`,
		`INSERT INTO ages (server_id, name) VALUES (30, 'Juniors')`,
		`INSERT INTO categories (server_id, name) VALUES (40, 'Beginners')`,
		`INSERT INTO events (server_id, name, start_date, end_date) VALUES (100, 'Spring Cup', '2025-05-01', '2025-05-03')`,
	}
	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }

func makeRegistrationDTO(id int64) api.RegistrationDTO {
	return api.RegistrationDTO{
		ID:                id,
		EventID:           int64Ptr(100),
		DisciplineID:      int64Ptr(10),
		NominationID:      int64Ptr(20),
		AgeID:             int64Ptr(30),
		CategoryID:        int64Ptr(40),
		ParticipantsCount: 5,
		PaymentStatus:     "UNPAID",
		Status:            "APPROVED",
	}
}

func TestSyncAll_AllStagesSucceed(t *testing.T) {
	conn := setupSyncDB(t)
	client := newStubClient()
	client.disciplines = []api.ReferenceItem{{ID: 10, Name: "Jazz"}}
	client.nominations = []api.ReferenceItem{{ID: 20, Name: "Solo"}}
	client.ages = []api.ReferenceItem{{ID: 30, Name: "Juniors"}}
	client.categories = []api.ReferenceItem{{ID: 40, Name: "Beginners"}}
	client.events = []api.EventDTO{{ID: 100, Name: "Spring Cup", StartDate: "2025-05-01T00:00:00Z", EndDate: "2025-05-03T00:00:00Z"}}
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {
			Registrations: []api.RegistrationDTO{makeRegistrationDTO(1), makeRegistrationDTO(2)},
			Pagination:    api.Pagination{Page: 1, TotalPages: 1, Total: 2},
		},
	}
	client.accPages[1] = &api.AccountingPage{
		Entries: []api.AccountingEntryDTO{
			{ID: 500, RegistrationID: int64Ptr(1), EventID: int64Ptr(100), Amount: 1200, Method: "CASH", PaidFor: "PERFORMANCE"},
		},
		Pagination: api.Pagination{Page: 1, TotalPages: 1, Total: 1},
	}

	res := newTestSyncer(conn, client).SyncAll()

	if !res.Success {
		t.Fatalf("expected success, errors: %v", res.Errors)
	}
	if res.Synced[StageEvents] != 1 {
		t.Errorf("events: got %d, want 1", res.Synced[StageEvents])
	}
	if res.Synced[StageRegistrations] != 2 {
		t.Errorf("registrations: got %d, want 2", res.Synced[StageRegistrations])
	}
	if res.Synced[StageAccounting] != 1 {
		t.Errorf("accounting: got %d, want 1", res.Synced[StageAccounting])
	}
}

func TestSyncAll_ReferenceFailureDoesNotBlockEvents(t *testing.T) {
	conn := setupSyncDB(t)
	client := newStubClient()
	client.refErr = fmt.Errorf("boom")
	client.events = []api.EventDTO{{ID: 100, Name: "Spring Cup", StartDate: "2025-05-01T00:00:00Z", EndDate: "2025-05-03T00:00:00Z"}}

	res := newTestSyncer(conn, client).SyncAll()

	if res.Success {
		t.Fatal("expected failure")
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected recorded error")
	}
	if res.Synced[StageEvents] != 1 {
		t.Errorf("events should still sync, got %d", res.Synced[StageEvents])
	}
}

func TestSyncAll_EventsFailurePreservesEarlierCounts(t *testing.T) {
	conn := setupSyncDB(t)
	client := newStubClient()
	client.disciplines = []api.ReferenceItem{{ID: 10, Name: "Jazz"}}
	client.eventsErr = fmt.Errorf("boom")

	res := newTestSyncer(conn, client).SyncAll()

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Synced[StageReference] != 1 {
		t.Errorf("reference stage should be counted, got %d", res.Synced[StageReference])
	}
	if res.Synced[StageEvents] != 0 {
		t.Errorf("events: got %d, want 0", res.Synced[StageEvents])
	}
}

func TestSyncAll_RegistrationFailureIsolatedPerEvent(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)
	if _, err := conn.Exec(`INSERT INTO events (server_id, name, start_date, end_date) VALUES (101, 'Autumn Cup', '2025-09-01', '2025-09-02')`); err != nil {
		t.Fatal(err)
	}

	client := newStubClient()
	client.regErr = fmt.Errorf("boom")

	res := newTestSyncer(conn, client).SyncAll()

	// Per-event registration failures are recorded but do not fail the pass.
	if !res.Success {
		t.Fatalf("expected success, errors: %v", res.Errors)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected one error per event, got %v", res.Errors)
	}
}

func TestSyncAll_AccountingFailureFailsPass(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	client := newStubClient()
	client.accErr = fmt.Errorf("ledger endpoint down")

	res := newTestSyncer(conn, client).SyncAll()

	if res.Success {
		t.Fatalf("expected failure, errors: %v", res.Errors)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	if res.Synced[StageAccounting] != 0 {
		t.Errorf("accounting: got %d, want 0", res.Synced[StageAccounting])
	}
}

func TestPull_AccountingFailureFailsPass(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	client := newStubClient()
	client.accErr = fmt.Errorf("ledger endpoint down")

	res := newTestSyncer(conn, client).Pull()

	if res.Success {
		t.Fatalf("expected failure, errors: %v", res.Errors)
	}
}

func TestEventServerIDs_OnlyLinkedEvents(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)
	if _, err := conn.Exec(`INSERT INTO events (name, start_date, end_date) VALUES ('Local draft', '2025-07-01', '2025-07-02')`); err != nil {
		t.Fatal(err)
	}

	ids, err := newTestSyncer(conn, newStubClient()).eventServerIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 100 {
		t.Fatalf("got %v, want [100]", ids)
	}
}
