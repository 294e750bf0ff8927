package sync

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/marat/regdesk/internal/api"
	"github.com/marat/regdesk/internal/models"
)

// pageSize is the number of rows requested per page when pulling
// registrations and accounting entries.
const pageSize = 100

// SyncRegistrations pulls every registration for one event (by its
// remote identifier) and upserts them into the replica. The whole
// event is committed as a unit; a page-fetch or storage failure rolls
// back and propagates. A row that fails to map is logged and skipped
// so one bad registration cannot block the rest of the event.
func (s *Syncer) SyncRegistrations(eventServerID int64) (int, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	count := 0
	page := 1
	for {
		resp, err := s.client.Registrations(eventServerID, page, pageSize)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("pull registrations page %d: %w", page, err)
		}
		if len(resp.Registrations) == 0 {
			break
		}

		for _, reg := range resp.Registrations {
			if err := s.upsertRegistration(tx, reg); err != nil {
				slog.Warn("sync: registration skipped",
					"server_id", reg.ID, "event_server_id", eventServerID, "error", err)
				continue
			}
			count++
		}

		// A server that reports no pagination gets one page.
		totalPages := resp.Pagination.TotalPages
		if totalPages < 1 {
			totalPages = 1
		}
		if page >= totalPages {
			break
		}
		page++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit registrations: %w", err)
	}
	slog.Info("sync: registrations synced", "event_server_id", eventServerID, "count", count)
	return count, nil
}

// upsertRegistration maps one remote registration onto local keys and
// creates or updates its row.
func (s *Syncer) upsertRegistration(tx *sql.Tx, reg api.RegistrationDTO) error {
	if reg.EventID == nil || reg.DisciplineID == nil || reg.NominationID == nil || reg.AgeID == nil {
		return fmt.Errorf("missing required references")
	}

	eventID, err := localID(tx, "events", reg.EventID)
	if err != nil {
		return err
	}
	if !eventID.Valid {
		return fmt.Errorf("event server_id=%d not in replica", *reg.EventID)
	}
	disciplineID, err := localID(tx, "disciplines", reg.DisciplineID)
	if err != nil {
		return err
	}
	if !disciplineID.Valid {
		return fmt.Errorf("discipline server_id=%d not in replica", *reg.DisciplineID)
	}
	nominationID, err := localID(tx, "nominations", reg.NominationID)
	if err != nil {
		return err
	}
	if !nominationID.Valid {
		return fmt.Errorf("nomination server_id=%d not in replica", *reg.NominationID)
	}
	ageID, err := localID(tx, "ages", reg.AgeID)
	if err != nil {
		return err
	}
	if !ageID.Valid {
		return fmt.Errorf("age server_id=%d not in replica", *reg.AgeID)
	}

	collectiveID, err := s.ensureCollective(tx, reg.CollectiveID, reg.Collective)
	if err != nil {
		return err
	}
	categoryID, err := localID(tx, "categories", reg.CategoryID)
	if err != nil {
		return err
	}

	paymentStatus := models.NormalizePaymentStatus(reg.PaymentStatus)
	status := models.NormalizeRegistrationStatus(reg.Status)
	now := s.now()

	res, err := tx.Exec(`
		UPDATE registrations SET
			event_id = ?, collective_id = ?, discipline_id = ?, nomination_id = ?,
			age_id = ?, category_id = ?, dance_name = ?, duration = ?,
			participants_count = ?, federation_participants_count = ?,
			diplomas_count = ?, medals_count = ?, diplomas_list = ?,
			payment_status = ?, paid_amount = ?, performance_paid = ?,
			diplomas_and_medals_paid = ?, diplomas_printed = ?, status = ?,
			notes = ?, number = ?, block_number = ?, video_url = ?, song_url = ?,
			agreement = ?, agreement2 = ?, sync_status = ?, last_synced_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE server_id = ?`,
		eventID.Int64, collectiveID, disciplineID.Int64, nominationID.Int64,
		ageID.Int64, categoryID, strOr(reg.DanceName, ""), strOr(reg.Duration, ""),
		reg.ParticipantsCount, reg.FederationParticipantsCount,
		reg.DiplomasCount, reg.MedalsCount, strOr(reg.DiplomasList, ""),
		paymentStatus, reg.PaidAmount, boolToInt(reg.PerformancePaid),
		boolToInt(reg.DiplomasAndMedalsPaid), boolToInt(reg.DiplomasPrinted), status,
		strOr(reg.Notes, ""), reg.Number, reg.BlockNumber,
		strOr(reg.VideoURL, ""), strOr(reg.SongURL, ""),
		boolToInt(reg.Agreement), boolToInt(reg.Agreement2),
		models.SyncSynced, now,
		reg.ID,
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
		INSERT INTO registrations (
			server_id, event_id, collective_id, discipline_id, nomination_id,
			age_id, category_id, dance_name, duration,
			participants_count, federation_participants_count,
			diplomas_count, medals_count, diplomas_list,
			payment_status, paid_amount, performance_paid,
			diplomas_and_medals_paid, diplomas_printed, status,
			notes, number, block_number, video_url, song_url,
			agreement, agreement2, sync_status, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.ID, eventID.Int64, collectiveID, disciplineID.Int64, nominationID.Int64,
		ageID.Int64, categoryID, strOr(reg.DanceName, ""), strOr(reg.Duration, ""),
		reg.ParticipantsCount, reg.FederationParticipantsCount,
		reg.DiplomasCount, reg.MedalsCount, strOr(reg.DiplomasList, ""),
		paymentStatus, reg.PaidAmount, boolToInt(reg.PerformancePaid),
		boolToInt(reg.DiplomasAndMedalsPaid), boolToInt(reg.DiplomasPrinted), status,
		strOr(reg.Notes, ""), reg.Number, reg.BlockNumber,
		strOr(reg.VideoURL, ""), strOr(reg.SongURL, ""),
		boolToInt(reg.Agreement), boolToInt(reg.Agreement2),
		models.SyncSynced, now,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// ensureCollective resolves a registration's collective to a local key,
// creating a stub row when the remote id has never been pulled. The
// stub carries whatever detail the embedded payload provides; a
// placeholder name is synthesized when even that is absent.
func (s *Syncer) ensureCollective(tx *sql.Tx, serverID *int64, embedded *api.CollectiveDTO) (sql.NullInt64, error) {
	if serverID == nil || *serverID == 0 {
		return sql.NullInt64{}, nil
	}

	id, err := localID(tx, "collectives", serverID)
	if err != nil {
		return sql.NullInt64{}, err
	}
	if id.Valid {
		if embedded != nil {
			if err := updateCollective(tx, id.Int64, embedded, s.now()); err != nil {
				return sql.NullInt64{}, err
			}
		}
		return id, nil
	}

	name := fmt.Sprintf("Collective %d", *serverID)
	school, city, contacts := "", "", ""
	if embedded != nil {
		if embedded.Name != "" {
			name = embedded.Name
		}
		school = strOr(embedded.School, "")
		city = strOr(embedded.City, "")
		contacts = strOr(embedded.Contacts, "")
	}

	res, err := tx.Exec(`
		INSERT INTO collectives (server_id, name, school, city, contacts, sync_status, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		*serverID, name, school, city, contacts, models.SyncSynced, s.now(),
	)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("create collective stub server_id=%d: %w", *serverID, err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("collective stub id: %w", err)
	}
	slog.Info("sync: collective stub created", "server_id", *serverID, "name", name)
	return sql.NullInt64{Int64: newID, Valid: true}, nil
}

// updateCollective refreshes a pulled collective from its embedded payload.
func updateCollective(tx *sql.Tx, id int64, c *api.CollectiveDTO, now time.Time) error {
	_, err := tx.Exec(`
		UPDATE collectives SET name = ?, school = ?, city = ?, contacts = ?,
			sync_status = ?, last_synced_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Name, strOr(c.School, ""), strOr(c.City, ""), strOr(c.Contacts, ""),
		models.SyncSynced, now, id,
	)
	if err != nil {
		return fmt.Errorf("update collective id=%d: %w", id, err)
	}
	return nil
}
