package models

import (
	"time"
)

// SyncStatus tracks how a local row relates to its server counterpart.
type SyncStatus string

const (
	SyncSynced   SyncStatus = "SYNCED"
	SyncPending  SyncStatus = "PENDING"
	SyncConflict SyncStatus = "CONFLICT"
	SyncError    SyncStatus = "ERROR"
)

// EventStatus represents event lifecycle status
type EventStatus string

const (
	EventDraft    EventStatus = "DRAFT"
	EventActive   EventStatus = "ACTIVE"
	EventArchived EventStatus = "ARCHIVED"
)

// PaymentStatus represents how much of a registration has been paid
type PaymentStatus string

const (
	PaymentUnpaid          PaymentStatus = "UNPAID"
	PaymentPerformancePaid PaymentStatus = "PERFORMANCE_PAID"
	PaymentDiplomasPaid    PaymentStatus = "DIPLOMAS_PAID"
	PaymentPaid            PaymentStatus = "PAID"
)

// RegistrationStatus represents registration workflow status
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
)

// PaidFor represents what an accounting entry pays for
type PaidFor string

const (
	PaidForPerformance    PaidFor = "PERFORMANCE"
	PaidForDiplomasMedals PaidFor = "DIPLOMAS_MEDALS"
)

// PersonRole represents the role of a person on a registration
type PersonRole string

const (
	RoleLeader  PersonRole = "LEADER"
	RoleTrainer PersonRole = "TRAINER"
)

// Event represents an event aggregate in the local replica
type Event struct {
	ID              int64       `json:"id"`
	ServerID        *int64      `json:"server_id,omitempty"`
	Name            string      `json:"name"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	Description     string      `json:"description,omitempty"`
	Status          EventStatus `json:"status"`
	IsOnline        bool        `json:"is_online"`
	PaymentEnable   bool        `json:"payment_enable"`
	CategoryEnable  bool        `json:"category_enable"`
	CalculatorToken string      `json:"calculator_token,omitempty"`
	SyncStatus      SyncStatus  `json:"sync_status"`
	LastSyncedAt    *time.Time  `json:"last_synced_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Collective represents a performing collective. Rows may start life as
// stubs holding only a server id and a placeholder name.
type Collective struct {
	ID           int64      `json:"id"`
	ServerID     *int64     `json:"server_id,omitempty"`
	Name         string     `json:"name"`
	Accessory    string     `json:"accessory,omitempty"`
	School       string     `json:"school,omitempty"`
	Contacts     string     `json:"contacts,omitempty"`
	City         string     `json:"city,omitempty"`
	SyncStatus   SyncStatus `json:"sync_status"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Reference is a flat lookup row (discipline, nomination, age, category)
type Reference struct {
	ID       int64  `json:"id"`
	ServerID *int64 `json:"server_id,omitempty"`
	Name     string `json:"name"`
}

// Person represents a leader or trainer. Persons are referenced by
// registrations but are not pulled by the sync engine.
type Person struct {
	ID       int64      `json:"id"`
	ServerID *int64     `json:"server_id,omitempty"`
	FullName string     `json:"full_name"`
	Role     PersonRole `json:"role"`
	Phone    string     `json:"phone,omitempty"`
}

// Registration represents one performance registration
type Registration struct {
	ID       int64  `json:"id"`
	ServerID *int64 `json:"server_id,omitempty"`

	EventID      int64  `json:"event_id"`
	CollectiveID *int64 `json:"collective_id,omitempty"`
	DisciplineID int64  `json:"discipline_id"`
	NominationID int64  `json:"nomination_id"`
	AgeID        int64  `json:"age_id"`
	CategoryID   *int64 `json:"category_id,omitempty"`

	DanceName                   string             `json:"dance_name,omitempty"`
	Duration                    string             `json:"duration,omitempty"`
	ParticipantsCount           int                `json:"participants_count"`
	FederationParticipantsCount int                `json:"federation_participants_count"`
	DiplomasCount               int                `json:"diplomas_count"`
	MedalsCount                 int                `json:"medals_count"`
	DiplomasList                string             `json:"diplomas_list,omitempty"`
	PaymentStatus               PaymentStatus      `json:"payment_status"`
	PaidAmount                  *float64           `json:"paid_amount,omitempty"`
	PerformancePaid             bool               `json:"performance_paid"`
	DiplomasAndMedalsPaid       bool               `json:"diplomas_and_medals_paid"`
	DiplomasPrinted             bool               `json:"diplomas_printed"`
	Status                      RegistrationStatus `json:"status"`
	Notes                       string             `json:"notes,omitempty"`
	Number                      *int64             `json:"number,omitempty"`
	BlockNumber                 *int64             `json:"block_number,omitempty"`
	VideoURL                    string             `json:"video_url,omitempty"`
	SongURL                     string             `json:"song_url,omitempty"`
	Agreement                   bool               `json:"agreement"`
	Agreement2                  bool               `json:"agreement2"`

	SyncStatus   SyncStatus `json:"sync_status"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AccountingEntry is a monetary ledger row tied to a registration
// and/or collective within an event
type AccountingEntry struct {
	ID       int64  `json:"id"`
	ServerID *int64 `json:"server_id,omitempty"`

	RegistrationID *int64 `json:"registration_id,omitempty"`
	CollectiveID   *int64 `json:"collective_id,omitempty"`
	EventID        *int64 `json:"event_id,omitempty"`

	Amount           float64       `json:"amount"`
	DiscountAmount   float64       `json:"discount_amount"`
	DiscountPercent  float64       `json:"discount_percent"`
	Method           PaymentMethod `json:"method"`
	PaidFor          PaidFor       `json:"paid_for"`
	PaymentGroupID   string        `json:"payment_group_id,omitempty"`
	PaymentGroupName string        `json:"payment_group_name,omitempty"`
	Description      string        `json:"description,omitempty"`
	DeletedAt        *time.Time    `json:"deleted_at,omitempty"`

	SyncStatus   SyncStatus `json:"sync_status"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsValidEventStatus checks if an event status is valid
func IsValidEventStatus(s EventStatus) bool {
	switch s {
	case EventDraft, EventActive, EventArchived:
		return true
	}
	return false
}

// IsValidSyncStatus checks if a sync status is valid
func IsValidSyncStatus(s SyncStatus) bool {
	switch s {
	case SyncSynced, SyncPending, SyncConflict, SyncError:
		return true
	}
	return false
}

// IsValidPaymentStatus checks if a payment status is valid
func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentUnpaid, PaymentPerformancePaid, PaymentDiplomasPaid, PaymentPaid:
		return true
	}
	return false
}

// IsValidRegistrationStatus checks if a registration status is valid
func IsValidRegistrationStatus(s RegistrationStatus) bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	}
	return false
}

// IsValidPaymentMethod checks if a payment method is valid
func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return true
	}
	return false
}

// IsValidPaidFor checks if a paid-for kind is valid
func IsValidPaidFor(p PaidFor) bool {
	switch p {
	case PaidForPerformance, PaidForDiplomasMedals:
		return true
	}
	return false
}

// NormalizeEventStatus converts a raw server value to a canonical status,
// falling back to DRAFT for unknown values.
func NormalizeEventStatus(s string) EventStatus {
	st := EventStatus(s)
	if IsValidEventStatus(st) {
		return st
	}
	return EventDraft
}

// NormalizePaymentStatus converts a raw server value to a canonical status,
// falling back to UNPAID for empty or unknown values.
func NormalizePaymentStatus(s string) PaymentStatus {
	st := PaymentStatus(s)
	if IsValidPaymentStatus(st) {
		return st
	}
	return PaymentUnpaid
}

// NormalizeRegistrationStatus converts a raw server value to a canonical
// status, falling back to PENDING for empty or unknown values.
func NormalizeRegistrationStatus(s string) RegistrationStatus {
	st := RegistrationStatus(s)
	if IsValidRegistrationStatus(st) {
		return st
	}
	return RegistrationPending
}
