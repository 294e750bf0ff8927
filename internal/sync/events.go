package sync

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/marat/regdesk/internal/api"
	"github.com/marat/regdesk/internal/models"
)

// SyncEvents pulls the event collection and upserts each event by
// remote identifier. The whole batch is committed together; any
// failure rolls it back and propagates.
func (s *Syncer) SyncEvents() (int, error) {
	events, err := s.client.Events()
	if err != nil {
		return 0, fmt.Errorf("pull events: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	count := 0
	for _, ev := range events {
		if err := upsertEvent(tx, ev, s.now()); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("event server_id=%d: %w", ev.ID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit events: %w", err)
	}
	slog.Info("sync: events synced", "count", count)
	return count, nil
}

// upsertEvent creates or updates one event row by server_id.
func upsertEvent(tx *sql.Tx, ev api.EventDTO, now time.Time) error {
	start, err := parseServerTime(ev.StartDate)
	if err != nil {
		return fmt.Errorf("parse startDate: %w", err)
	}
	end, err := parseServerTime(ev.EndDate)
	if err != nil {
		return fmt.Errorf("parse endDate: %w", err)
	}

	status := models.NormalizeEventStatus(ev.Status)
	isOnline := boolOr(ev.IsOnline, false)
	paymentEnable := boolOr(ev.PaymentEnable, true)
	categoryEnable := boolOr(ev.CategoryEnable, true)

	res, err := tx.Exec(`
		UPDATE events SET
			name = ?, start_date = ?, end_date = ?, description = ?,
			status = ?, is_online = ?, payment_enable = ?, category_enable = ?,
			calculator_token = ?, sync_status = ?, last_synced_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE server_id = ?`,
		ev.Name, start, end, strOr(ev.Description, ""),
		status, boolToInt(isOnline), boolToInt(paymentEnable), boolToInt(categoryEnable),
		nullableStr(ev.CalculatorToken), models.SyncSynced, now,
		ev.ID,
	)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	_, err = tx.Exec(`
		INSERT INTO events (
			server_id, name, start_date, end_date, description,
			status, is_online, payment_enable, category_enable,
			calculator_token, sync_status, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Name, start, end, strOr(ev.Description, ""),
		status, boolToInt(isOnline), boolToInt(paymentEnable), boolToInt(categoryEnable),
		nullableStr(ev.CalculatorToken), models.SyncSynced, now,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// parseServerTime normalizes a server date-time string into a native
// timestamp. The server emits ISO 8601 with the UTC marker as either a
// trailing "Z" or an explicit offset; zoneless strings are treated as UTC.
func parseServerTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time format: %q", s)
}

// boolOr returns the pointed-to value or the default for a missing key.
func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// strOr returns the pointed-to value or the default for a missing key.
func strOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// nullableStr converts an optional string to a driver value, keeping
// NULL for absent or empty values (calculator_token is UNIQUE).
func nullableStr(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
