package db

import (
	"database/sql"
	"fmt"

	"github.com/marat/regdesk/internal/models"
)

// scanEvent reads one event row from a *sql.Rows or *sql.Row scanner.
func scanEvent(scan func(dest ...any) error) (*models.Event, error) {
	var (
		e              models.Event
		serverID       sql.NullInt64
		description    sql.NullString
		calcToken      sql.NullString
		start, end     string
		lastSynced     sql.NullString
		isOnline       int
		paymentEnable  int
		categoryEnable int
		created        string
		updated        string
	)
	err := scan(
		&e.ID, &serverID, &e.Name, &start, &end, &description, &e.Status,
		&isOnline, &paymentEnable, &categoryEnable, &calcToken,
		&e.SyncStatus, &lastSynced, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	if serverID.Valid {
		e.ServerID = &serverID.Int64
	}
	e.Description = description.String
	e.CalculatorToken = calcToken.String
	e.IsOnline = isOnline != 0
	e.PaymentEnable = paymentEnable != 0
	e.CategoryEnable = categoryEnable != 0

	if e.StartDate, err = parseDBTime(start); err != nil {
		return nil, fmt.Errorf("parse start_date: %w", err)
	}
	if e.EndDate, err = parseDBTime(end); err != nil {
		return nil, fmt.Errorf("parse end_date: %w", err)
	}
	if lastSynced.Valid && lastSynced.String != "" {
		t, err := parseDBTime(lastSynced.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_synced_at: %w", err)
		}
		e.LastSyncedAt = &t
	}
	if e.CreatedAt, err = parseDBTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = parseDBTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &e, nil
}

const eventColumns = `id, server_id, name, start_date, end_date, COALESCE(description,''), status,
	is_online, payment_enable, category_enable, COALESCE(calculator_token,''),
	sync_status, last_synced_at, created_at, updated_at`

// ListEvents returns all local events ordered by start date (newest first).
func (db *DB) ListEvents() ([]models.Event, error) {
	rows, err := db.conn.Query(`SELECT ` + eventColumns + ` FROM events ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// EventsWithServerID returns local events that have been linked to a
// server identifier, in the order they were pulled.
func (db *DB) EventsWithServerID() ([]models.Event, error) {
	rows, err := db.conn.Query(`SELECT ` + eventColumns + ` FROM events WHERE server_id IS NOT NULL ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query synced events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetEventByServerID returns the local event with the given server id,
// or nil if it has not been pulled yet.
func (db *DB) GetEventByServerID(serverID int64) (*models.Event, error) {
	row := db.conn.QueryRow(`SELECT `+eventColumns+` FROM events WHERE server_id = ?`, serverID)
	e, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event by server id: %w", err)
	}
	return e, nil
}
