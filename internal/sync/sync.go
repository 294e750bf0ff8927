package sync

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/marat/regdesk/internal/db"
)

// Syncer drives reconciliation between the local replica and the
// registration server.
type Syncer struct {
	conn   *sql.DB
	client Client
	now    func() time.Time
}

// New creates a Syncer over an open replica and a remote client.
func New(database *db.DB, client Client) *Syncer {
	return &Syncer{
		conn:   database.Conn(),
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// eventServerIDs lists remote identifiers of pulled events, in pull order.
func (s *Syncer) eventServerIDs() ([]int64, error) {
	rows, err := s.conn.Query("SELECT server_id FROM events WHERE server_id IS NOT NULL ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("query synced events: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event server id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SyncAll runs one full reconciliation pass: reference data, events,
// per-event registrations, the accounting ledger, then the outbound
// push queue. Stages are isolated: a failed stage is recorded and the
// pass moves on, so a broken endpoint cannot block unrelated data.
// Counts for completed stages are always reported.
func (s *Syncer) SyncAll() *Result {
	res := &Result{Success: true, Synced: map[string]int{}}
	start := s.now()
	slog.Info("sync: starting full pass")

	if err := s.SyncReference(); err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("reference data: %v", err))
		slog.Error("sync: reference stage failed", "error", err)
	} else {
		res.Synced[StageReference] = 1
	}

	eventCount, err := s.SyncEvents()
	if err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("events: %v", err))
		slog.Error("sync: events stage failed", "error", err)
	}
	res.Synced[StageEvents] = eventCount

	regTotal := 0
	eventIDs, err := s.eventServerIDs()
	if err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("list events: %v", err))
	}
	for _, sid := range eventIDs {
		n, err := s.SyncRegistrations(sid)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("registrations for event %d: %v", sid, err))
			slog.Error("sync: registrations stage failed", "event_server_id", sid, "error", err)
			continue
		}
		regTotal += n
	}
	res.Synced[StageRegistrations] = regTotal

	accCount, err := s.SyncAccounting(0)
	if err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("accounting entries: %v", err))
		slog.Error("sync: accounting stage failed", "error", err)
	}
	res.Synced[StageAccounting] = accCount

	pushed, pushErrs := s.PushPending()
	res.Synced[StagePushed] = pushed
	if len(pushErrs) > 0 {
		res.Success = false
		res.Errors = append(res.Errors, pushErrs...)
	}

	slog.Info("sync: full pass finished",
		"success", res.Success,
		"duration", s.now().Sub(start).Round(time.Millisecond),
		"errors", len(res.Errors))
	return res
}

// Pull runs the inbound stages only.
func (s *Syncer) Pull() *Result {
	res := &Result{Success: true, Synced: map[string]int{}}

	if err := s.SyncReference(); err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("reference data: %v", err))
	} else {
		res.Synced[StageReference] = 1
	}

	eventCount, err := s.SyncEvents()
	if err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("events: %v", err))
	}
	res.Synced[StageEvents] = eventCount

	regTotal := 0
	eventIDs, err := s.eventServerIDs()
	if err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("list events: %v", err))
	}
	for _, sid := range eventIDs {
		n, err := s.SyncRegistrations(sid)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("registrations for event %d: %v", sid, err))
			continue
		}
		regTotal += n
	}
	res.Synced[StageRegistrations] = regTotal

	accCount, err := s.SyncAccounting(0)
	if err != nil {
		res.Success = false
		res.Errors = append(res.Errors, fmt.Sprintf("accounting entries: %v", err))
	}
	res.Synced[StageAccounting] = accCount

	return res
}

// Push runs the outbound stage only.
func (s *Syncer) Push() *Result {
	res := &Result{Success: true, Synced: map[string]int{}}
	pushed, pushErrs := s.PushPending()
	res.Synced[StagePushed] = pushed
	if len(pushErrs) > 0 {
		res.Success = false
		res.Errors = append(res.Errors, pushErrs...)
	}
	return res
}
