package sync

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/marat/regdesk/internal/models"
)

// pendingRegistration is a locally-modified registration staged for push.
type pendingRegistration struct {
	id       int64
	serverID sql.NullInt64
	body     map[string]any
}

// pendingEntry is a locally-created ledger entry staged for push.
type pendingEntry struct {
	id   int64
	body map[string]any
}

// PushPending sends locally-modified rows to the server. Registrations
// without a remote identifier are created, the rest updated in place;
// ledger entries are create-only. Each row is pushed independently: a
// failure marks that row ERROR and moves on, and the row stays queued
// for the next pass. Returns the number of rows pushed and the errors
// encountered.
func (s *Syncer) PushPending() (int, []string) {
	var errs []string
	pushed := 0

	regs, err := s.stagePendingRegistrations()
	if err != nil {
		return 0, []string{fmt.Sprintf("stage registrations: %v", err)}
	}
	for _, reg := range regs {
		if err := s.pushRegistration(reg); err != nil {
			errs = append(errs, fmt.Sprintf("push registration id=%d: %v", reg.id, err))
			s.markError("registrations", reg.id)
			continue
		}
		pushed++
	}

	entries, err := s.stagePendingEntries()
	if err != nil {
		errs = append(errs, fmt.Sprintf("stage accounting entries: %v", err))
		return pushed, errs
	}
	for _, entry := range entries {
		if err := s.pushEntry(entry); err != nil {
			errs = append(errs, fmt.Sprintf("push accounting entry id=%d: %v", entry.id, err))
			s.markError("accounting_entries", entry.id)
			continue
		}
		pushed++
	}

	if pushed > 0 {
		slog.Info("sync: local changes pushed", "count", pushed)
	}
	return pushed, errs
}

// stagePendingRegistrations snapshots pending registrations and
// serializes their payloads with remote identifiers, inside one read
// transaction so the payloads are internally consistent.
func (s *Syncer) stagePendingRegistrations() ([]pendingRegistration, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id, server_id, event_id, collective_id, discipline_id, nomination_id,
			age_id, category_id, dance_name, duration,
			participants_count, federation_participants_count,
			diplomas_count, medals_count, diplomas_list,
			payment_status, paid_amount, performance_paid,
			diplomas_and_medals_paid, diplomas_printed, status,
			notes, number, block_number, video_url, song_url, agreement, agreement2
		FROM registrations WHERE sync_status IN (?, ?) ORDER BY id`,
		models.SyncPending, models.SyncError,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending registrations: %w", err)
	}
	defer rows.Close()

	var pending []pendingRegistration
	for rows.Next() {
		var (
			p                                     pendingRegistration
			eventID, disciplineID                 int64
			nominationID, ageID                   int64
			collectiveID, categoryID              sql.NullInt64
			danceName, duration, diplomasList     string
			paymentStatus, status, notes          string
			videoURL, songURL                     string
			participants, fedParticipants         int
			diplomas, medals                      int
			paidAmount                            sql.NullFloat64
			perfPaid, dmPaid, printed, agr1, agr2 int
			number, blockNumber                   sql.NullInt64
		)
		if err := rows.Scan(
			&p.id, &p.serverID, &eventID, &collectiveID, &disciplineID, &nominationID,
			&ageID, &categoryID, &danceName, &duration,
			&participants, &fedParticipants,
			&diplomas, &medals, &diplomasList,
			&paymentStatus, &paidAmount, &perfPaid,
			&dmPaid, &printed, &status,
			&notes, &number, &blockNumber, &videoURL, &songURL, &agr1, &agr2,
		); err != nil {
			return nil, fmt.Errorf("scan pending registration: %w", err)
		}

		body := map[string]any{
			"danceName":                   danceName,
			"duration":                    duration,
			"participantsCount":           participants,
			"federationParticipantsCount": fedParticipants,
			"diplomasCount":               diplomas,
			"medalsCount":                 medals,
			"diplomasList":                diplomasList,
			"paymentStatus":               paymentStatus,
			"performancePaid":             perfPaid != 0,
			"diplomasAndMedalsPaid":       dmPaid != 0,
			"diplomasPrinted":             printed != 0,
			"status":                      status,
			"notes":                       notes,
			"videoUrl":                    videoURL,
			"songUrl":                     songURL,
			"agreement":                   agr1 != 0,
			"agreement2":                  agr2 != 0,
		}
		if paidAmount.Valid {
			body["paidAmount"] = paidAmount.Float64
		}
		if number.Valid {
			body["number"] = number.Int64
		}
		if blockNumber.Valid {
			body["blockNumber"] = blockNumber.Int64
		}

		refs := []struct {
			table string
			id    sql.NullInt64
			key   string
		}{
			{"events", sql.NullInt64{Int64: eventID, Valid: true}, "eventId"},
			{"disciplines", sql.NullInt64{Int64: disciplineID, Valid: true}, "disciplineId"},
			{"nominations", sql.NullInt64{Int64: nominationID, Valid: true}, "nominationId"},
			{"ages", sql.NullInt64{Int64: ageID, Valid: true}, "ageId"},
			{"collectives", collectiveID, "collectiveId"},
			{"categories", categoryID, "categoryId"},
		}
		for _, ref := range refs {
			sid, err := serverID(tx, ref.table, ref.id)
			if err != nil {
				return nil, err
			}
			if sid.Valid {
				body[ref.key] = sid.Int64
			}
		}

		p.body = body
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending registrations: %w", err)
	}
	return pending, nil
}

// pushRegistration creates or updates one registration on the server
// and marks the local row synced.
func (s *Syncer) pushRegistration(reg pendingRegistration) error {
	if reg.serverID.Valid {
		if err := s.client.UpdateRegistration(reg.serverID.Int64, reg.body); err != nil {
			return err
		}
		return s.markSynced("registrations", reg.id, nil)
	}

	created, err := s.client.CreateRegistration(reg.body)
	if err != nil {
		return err
	}
	return s.markSynced("registrations", reg.id, &created.ID)
}

// stagePendingEntries snapshots pending ledger entries and serializes
// their payloads with remote identifiers.
func (s *Syncer) stagePendingEntries() ([]pendingEntry, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id, registration_id, collective_id, event_id,
			amount, discount_amount, discount_percent,
			method, paid_for, payment_group_id, payment_group_name, description
		FROM accounting_entries
		WHERE sync_status IN (?, ?) AND server_id IS NULL AND deleted_at IS NULL
		ORDER BY id`,
		models.SyncPending, models.SyncError,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending entries: %w", err)
	}
	defer rows.Close()

	var pending []pendingEntry
	for rows.Next() {
		var (
			p                                pendingEntry
			registrationID, collectiveID     sql.NullInt64
			eventID                          sql.NullInt64
			amount, discountAmt, discountPct float64
			method, paidFor                  string
			groupID, groupName, description  string
		)
		if err := rows.Scan(
			&p.id, &registrationID, &collectiveID, &eventID,
			&amount, &discountAmt, &discountPct,
			&method, &paidFor, &groupID, &groupName, &description,
		); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}

		body := map[string]any{
			"amount":          amount,
			"discountAmount":  discountAmt,
			"discountPercent": discountPct,
			"method":          method,
			"paidFor":         paidFor,
			"description":     description,
		}
		if groupID != "" {
			body["paymentGroupId"] = groupID
			body["paymentGroupName"] = groupName
		}

		refs := []struct {
			table string
			id    sql.NullInt64
			key   string
		}{
			{"registrations", registrationID, "registrationId"},
			{"collectives", collectiveID, "collectiveId"},
			{"events", eventID, "eventId"},
		}
		for _, ref := range refs {
			sid, err := serverID(tx, ref.table, ref.id)
			if err != nil {
				return nil, err
			}
			if sid.Valid {
				body[ref.key] = sid.Int64
			}
		}

		p.body = body
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return pending, nil
}

// pushEntry creates one ledger entry on the server and marks the local
// row synced.
func (s *Syncer) pushEntry(entry pendingEntry) error {
	created, err := s.client.CreateAccountingEntry(entry.body)
	if err != nil {
		return err
	}
	return s.markSynced("accounting_entries", entry.id, &created.ID)
}

// markSynced records a successful push, adopting the remote identifier
// for newly-created rows.
func (s *Syncer) markSynced(table string, id int64, newServerID *int64) error {
	var err error
	if newServerID != nil {
		_, err = s.conn.Exec(
			"UPDATE "+table+" SET server_id = ?, sync_status = ?, last_synced_at = ? WHERE id = ?",
			*newServerID, models.SyncSynced, s.now(), id,
		)
	} else {
		_, err = s.conn.Exec(
			"UPDATE "+table+" SET sync_status = ?, last_synced_at = ? WHERE id = ?",
			models.SyncSynced, s.now(), id,
		)
	}
	if err != nil {
		return fmt.Errorf("mark %s id=%d synced: %w", table, id, err)
	}
	return nil
}

// markError flags a row whose push failed. The flag is advisory: ERROR
// rows are re-staged on the next pass.
func (s *Syncer) markError(table string, id int64) {
	if _, err := s.conn.Exec(
		"UPDATE "+table+" SET sync_status = ? WHERE id = ?",
		models.SyncError, id,
	); err != nil {
		slog.Error("sync: mark error failed", "table", table, "id", id, "error", err)
	}
}
