package sync

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/marat/regdesk/internal/api"
	"github.com/marat/regdesk/internal/models"
)

// SyncAccounting pulls ledger entries and upserts them into the
// replica. An eventServerID of zero pulls the whole ledger; a non-zero
// value restricts the pull to one event. The batch is committed as a
// unit, with the same row-level isolation as registrations.
func (s *Syncer) SyncAccounting(eventServerID int64) (int, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	count := 0
	page := 1
	for {
		resp, err := s.client.AccountingEntries(eventServerID, page, pageSize)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("pull accounting page %d: %w", page, err)
		}
		if len(resp.Entries) == 0 {
			break
		}

		for _, entry := range resp.Entries {
			if err := s.upsertAccountingEntry(tx, entry); err != nil {
				slog.Warn("sync: accounting entry skipped", "server_id", entry.ID, "error", err)
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
		return 0, fmt.Errorf("commit accounting: %w", err)
	}
	slog.Info("sync: accounting entries synced", "count", count)
	return count, nil
}

// upsertAccountingEntry maps one remote ledger row onto local keys and
// creates or updates it. Cross-references that have not been pulled yet
// stay NULL and link up on a later pass.
func (s *Syncer) upsertAccountingEntry(tx *sql.Tx, entry api.AccountingEntryDTO) error {
	registrationID, err := localID(tx, "registrations", entry.RegistrationID)
	if err != nil {
		return err
	}
	collectiveID, err := localID(tx, "collectives", entry.CollectiveID)
	if err != nil {
		return err
	}
	eventID, err := localID(tx, "events", entry.EventID)
	if err != nil {
		return err
	}

	method := models.PaymentMethod(entry.Method)
	if !models.IsValidPaymentMethod(method) {
		method = models.MethodCash
	}
	paidFor := models.PaidFor(entry.PaidFor)
	if !models.IsValidPaidFor(paidFor) {
		paidFor = models.PaidForPerformance
	}
	now := s.now()

	res, err := tx.Exec(`
		UPDATE accounting_entries SET
			registration_id = ?, collective_id = ?, event_id = ?,
			amount = ?, discount_amount = ?, discount_percent = ?,
			method = ?, paid_for = ?, payment_group_id = ?, payment_group_name = ?,
			description = ?, deleted_at = ?, sync_status = ?, last_synced_at = ?
		WHERE server_id = ?`,
		registrationID, collectiveID, eventID,
		entry.Amount, entry.DiscountAmount, entry.DiscountPercent,
		method, paidFor, strOr(entry.PaymentGroupID, ""), strOr(entry.PaymentGroupName, ""),
		strOr(entry.Description, ""), nullableStr(entry.DeletedAt), models.SyncSynced, now,
		entry.ID,
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
		INSERT INTO accounting_entries (
			server_id, registration_id, collective_id, event_id,
			amount, discount_amount, discount_percent,
			method, paid_for, payment_group_id, payment_group_name,
			description, deleted_at, sync_status, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, registrationID, collectiveID, eventID,
		entry.Amount, entry.DiscountAmount, entry.DiscountPercent,
		method, paidFor, strOr(entry.PaymentGroupID, ""), strOr(entry.PaymentGroupName, ""),
		strOr(entry.Description, ""), nullableStr(entry.DeletedAt), models.SyncSynced, now,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}
