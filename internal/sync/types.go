// Package sync reconciles the local replica with the registration
// server: reference data first, then events, then per-event
// registrations and ledger entries, then the outbound push queue.
package sync

import (
	"github.com/marat/regdesk/internal/api"
)

// Client is the remote collaborator the engine pulls from and pushes
// to. *api.Client satisfies it; tests substitute a stub.
type Client interface {
	Disciplines() ([]api.ReferenceItem, error)
	Nominations() ([]api.ReferenceItem, error)
	Ages() ([]api.ReferenceItem, error)
	Categories() ([]api.ReferenceItem, error)
	Events() ([]api.EventDTO, error)
	Registrations(eventID int64, page, limit int) (*api.RegistrationPage, error)
	AccountingEntries(eventID int64, page, limit int) (*api.AccountingPage, error)
	CreateRegistration(body map[string]any) (*api.RegistrationDTO, error)
	UpdateRegistration(serverID int64, body map[string]any) error
	CreateAccountingEntry(body map[string]any) (*api.AccountingEntryDTO, error)
}

// Result summarises one sync pass. Counts for completed stages are
// preserved even when a later stage fails.
type Result struct {
	Success bool
	Synced  map[string]int
	Errors  []string
}

// Stage count keys in Result.Synced.
const (
	StageReference     = "reference_data"
	StageEvents        = "events"
	StageRegistrations = "registrations"
	StageAccounting    = "accounting_entries"
	StagePushed        = "pushed"
)
