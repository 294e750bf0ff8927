package db

// SchemaVersion is the current database schema version
const SchemaVersion = 3

const schema = `
-- Events table
CREATE TABLE IF NOT EXISTS events (
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

-- Collectives table
CREATE TABLE IF NOT EXISTS collectives (
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

-- Reference lookup tables
CREATE TABLE IF NOT EXISTS disciplines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    abbreviations TEXT,
    variants TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS nominations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Persons (leaders/trainers). Not pulled by the sync engine.
CREATE TABLE IF NOT EXISTS persons (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id INTEGER UNIQUE,
    full_name TEXT NOT NULL,
    role TEXT NOT NULL,
    phone TEXT DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Registrations table
CREATE TABLE IF NOT EXISTS registrations (
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
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (event_id) REFERENCES events(id),
    FOREIGN KEY (collective_id) REFERENCES collectives(id),
    FOREIGN KEY (discipline_id) REFERENCES disciplines(id),
    FOREIGN KEY (nomination_id) REFERENCES nominations(id),
    FOREIGN KEY (age_id) REFERENCES ages(id),
    FOREIGN KEY (category_id) REFERENCES categories(id)
);

-- Registration leader/trainer junction tables
CREATE TABLE IF NOT EXISTS registration_leaders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    registration_id INTEGER NOT NULL,
    person_id INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (registration_id) REFERENCES registrations(id),
    FOREIGN KEY (person_id) REFERENCES persons(id)
);

CREATE TABLE IF NOT EXISTS registration_trainers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    registration_id INTEGER NOT NULL,
    person_id INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (registration_id) REFERENCES registrations(id),
    FOREIGN KEY (person_id) REFERENCES persons(id)
);

-- Accounting entries table
CREATE TABLE IF NOT EXISTS accounting_entries (
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
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (registration_id) REFERENCES registrations(id),
    FOREIGN KEY (collective_id) REFERENCES collectives(id)
);

-- Schema info table for version tracking
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_events_server ON events(server_id);
CREATE INDEX IF NOT EXISTS idx_collectives_server ON collectives(server_id);
CREATE INDEX IF NOT EXISTS idx_collectives_name ON collectives(name);
CREATE INDEX IF NOT EXISTS idx_registrations_server ON registrations(server_id);
CREATE INDEX IF NOT EXISTS idx_registrations_event ON registrations(event_id);
CREATE INDEX IF NOT EXISTS idx_registrations_collective ON registrations(collective_id);
CREATE INDEX IF NOT EXISTS idx_registrations_status ON registrations(status);
CREATE INDEX IF NOT EXISTS idx_registrations_payment ON registrations(payment_status);
CREATE INDEX IF NOT EXISTS idx_registrations_sync ON registrations(sync_status);
CREATE INDEX IF NOT EXISTS idx_accounting_server ON accounting_entries(server_id);
CREATE INDEX IF NOT EXISTS idx_accounting_event ON accounting_entries(event_id);
CREATE INDEX IF NOT EXISTS idx_accounting_registration ON accounting_entries(registration_id);
CREATE INDEX IF NOT EXISTS idx_accounting_deleted ON accounting_entries(deleted_at);
CREATE INDEX IF NOT EXISTS idx_accounting_sync ON accounting_entries(sync_status);
`

// Migration defines a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all database migrations in order
var Migrations = []Migration{
	// Version 1 is the initial schema - no migration needed
	{
		Version:     2,
		Description: "Add video/song URL and agreement columns to registrations",
		SQL: `ALTER TABLE registrations ADD COLUMN video_url TEXT DEFAULT '';
ALTER TABLE registrations ADD COLUMN song_url TEXT DEFAULT '';
ALTER TABLE registrations ADD COLUMN agreement INTEGER NOT NULL DEFAULT 0;
ALTER TABLE registrations ADD COLUMN agreement2 INTEGER NOT NULL DEFAULT 0;`,
	},
	{
		Version:     3,
		Description: "Add payment grouping to accounting entries",
		SQL: `ALTER TABLE accounting_entries ADD COLUMN payment_group_id TEXT DEFAULT '';
ALTER TABLE accounting_entries ADD COLUMN payment_group_name TEXT DEFAULT '';
CREATE INDEX IF NOT EXISTS idx_accounting_group ON accounting_entries(payment_group_id);`,
	},
}
