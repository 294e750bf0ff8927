package db

import (
	"database/sql"
	"fmt"
)

// RegistrationRow is a registration joined with its reference names for
// display. Lookups are explicit joins on local surrogate keys.
type RegistrationRow struct {
	ID            int64
	ServerID      *int64
	Collective    string
	Discipline    string
	Nomination    string
	Age           string
	Category      string
	DanceName     string
	Participants  int
	PaymentStatus string
	Status        string
	SyncStatus    string
}

// ListRegistrationsForEvent returns display rows for one local event.
func (db *DB) ListRegistrationsForEvent(eventID int64) ([]RegistrationRow, error) {
	rows, err := db.conn.Query(`
		SELECT r.id, r.server_id,
		       COALESCE(c.name, ''),
		       d.name, n.name, a.name,
		       COALESCE(cat.name, ''),
		       COALESCE(r.dance_name, ''),
		       r.participants_count, r.payment_status, r.status, r.sync_status
		FROM registrations r
		JOIN disciplines d ON d.id = r.discipline_id
		JOIN nominations n ON n.id = r.nomination_id
		JOIN ages a ON a.id = r.age_id
		LEFT JOIN collectives c ON c.id = r.collective_id
		LEFT JOIN categories cat ON cat.id = r.category_id
		WHERE r.event_id = ?
		ORDER BY c.name ASC, r.id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var out []RegistrationRow
	for rows.Next() {
		var (
			r        RegistrationRow
			serverID sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &serverID, &r.Collective, &r.Discipline, &r.Nomination,
			&r.Age, &r.Category, &r.DanceName, &r.Participants, &r.PaymentStatus, &r.Status, &r.SyncStatus); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		if serverID.Valid {
			r.ServerID = &serverID.Int64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountsByTable returns row counts for the main replica tables.
func (db *DB) CountsByTable() (map[string]int, error) {
	tables := []string{
		"events", "collectives", "disciplines", "nominations", "ages",
		"categories", "registrations", "accounting_entries",
	}
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// CountPendingPush returns how many locally-owned rows are waiting to be
// pushed to the server.
func (db *DB) CountPendingPush() (int, error) {
	var regs, entries int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM registrations WHERE sync_status = 'PENDING'`).Scan(&regs); err != nil {
		return 0, fmt.Errorf("count pending registrations: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM accounting_entries WHERE sync_status = 'PENDING'`).Scan(&entries); err != nil {
		return 0, fmt.Errorf("count pending accounting entries: %w", err)
	}
	return regs + entries, nil
}

// LastSyncedAt returns the most recent last_synced_at across events and
// registrations, or the zero string when nothing has been synced.
func (db *DB) LastSyncedAt() (string, error) {
	var ts string
	err := db.conn.QueryRow(`
		SELECT COALESCE(MAX(t), '') FROM (
			SELECT MAX(last_synced_at) AS t FROM events
			UNION ALL
			SELECT MAX(last_synced_at) FROM registrations
		)`).Scan(&ts)
	if err != nil {
		return "", fmt.Errorf("last synced: %w", err)
	}
	return ts, nil
}
