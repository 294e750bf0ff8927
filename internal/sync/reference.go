package sync

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/marat/regdesk/internal/api"
)

// SyncReference pulls the flat lookup collections (disciplines,
// nominations, ages, categories) and upserts each by remote identifier.
// Each collection is committed as a unit; a pull or storage failure
// rolls that collection back and propagates, since later stages depend
// on reference data being complete.
func (s *Syncer) SyncReference() error {
	pulls := []struct {
		table string
		fetch func() ([]api.ReferenceItem, error)
	}{
		{"disciplines", s.client.Disciplines},
		{"nominations", s.client.Nominations},
		{"ages", s.client.Ages},
		{"categories", s.client.Categories},
	}

	for _, p := range pulls {
		items, err := p.fetch()
		if err != nil {
			return fmt.Errorf("pull %s: %w", p.table, err)
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := upsertReferenceItems(tx, p.table, items); err != nil {
			tx.Rollback()
			return fmt.Errorf("sync %s: %w", p.table, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", p.table, err)
		}
		slog.Info("sync: reference collection synced", "table", p.table, "count", len(items))
	}

	return nil
}

// upsertReferenceItems creates or updates lookup rows by server_id.
func upsertReferenceItems(tx *sql.Tx, table string, items []api.ReferenceItem) error {
	for _, item := range items {
		var res sql.Result
		var err error

		if table == "disciplines" {
			res, err = tx.Exec(
				`UPDATE disciplines SET name = ?, abbreviations = ?, variants = ?, updated_at = CURRENT_TIMESTAMP
				 WHERE server_id = ?`,
				item.Name, rawOrNil(item.Abbreviations), rawOrNil(item.Variants), item.ID,
			)
		} else {
			res, err = tx.Exec(
				"UPDATE "+table+" SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE server_id = ?",
				item.Name, item.ID,
			)
		}
		if err != nil {
			return fmt.Errorf("update %s server_id=%d: %w", table, item.ID, err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if rows > 0 {
			continue
		}

		if table == "disciplines" {
			_, err = tx.Exec(
				`INSERT INTO disciplines (server_id, name, abbreviations, variants) VALUES (?, ?, ?, ?)`,
				item.ID, item.Name, rawOrNil(item.Abbreviations), rawOrNil(item.Variants),
			)
		} else {
			_, err = tx.Exec(
				"INSERT INTO "+table+" (server_id, name) VALUES (?, ?)",
				item.ID, item.Name,
			)
		}
		if err != nil {
			return fmt.Errorf("insert %s server_id=%d: %w", table, item.ID, err)
		}
	}
	return nil
}

// rawOrNil converts an optional raw JSON field to a driver value.
func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
