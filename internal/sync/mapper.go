package sync

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// localID maps a remote identifier onto the local surrogate key for the
// given table. A nil or zero remote id yields an invalid NullInt64 (not
// yet linked). A remote id with no local row is a deferred link: a
// warning is logged and an invalid NullInt64 returned. Only storage
// failures produce an error.
func localID(tx *sql.Tx, table string, serverID *int64) (sql.NullInt64, error) {
	if serverID == nil || *serverID == 0 {
		return sql.NullInt64{}, nil
	}

	var id int64
	err := tx.QueryRow("SELECT id FROM "+table+" WHERE server_id = ?", *serverID).Scan(&id)
	if err == sql.ErrNoRows {
		slog.Warn("sync: reference not found", "table", table, "server_id", *serverID)
		return sql.NullInt64{}, nil
	}
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("lookup %s server_id=%d: %w", table, *serverID, err)
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

// serverID is the reverse mapping: the remote identifier for a local
// row, used when serializing for push. Returns invalid when the local
// row has never been synced.
func serverID(tx *sql.Tx, table string, id sql.NullInt64) (sql.NullInt64, error) {
	if !id.Valid {
		return sql.NullInt64{}, nil
	}

	var sid sql.NullInt64
	err := tx.QueryRow("SELECT server_id FROM "+table+" WHERE id = ?", id.Int64).Scan(&sid)
	if err == sql.ErrNoRows {
		return sql.NullInt64{}, nil
	}
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("lookup %s id=%d: %w", table, id.Int64, err)
	}
	return sid, nil
}
