package api

import (
	"encoding/json"
	"fmt"
)

// ReferenceItem is one row of a reference collection
// (disciplines, nominations, ages, categories).
type ReferenceItem struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Abbreviations json.RawMessage `json:"abbreviations,omitempty"`
	Variants      json.RawMessage `json:"variants,omitempty"`
}

// EventDTO represents an event from /api/reference/events.
type EventDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	Description     *string `json:"description,omitempty"`
	Status          string  `json:"status,omitempty"`
	IsOnline        *bool   `json:"isOnline,omitempty"`
	PaymentEnable   *bool   `json:"paymentEnable,omitempty"`
	CategoryEnable  *bool   `json:"categoryEnable,omitempty"`
	CalculatorToken *string `json:"calculatorToken,omitempty"`
}

// eventsEnvelope is the wrapped form of the events response.
type eventsEnvelope struct {
	Events []EventDTO `json:"events"`
}

// decodeEvents accepts the events payload as either a bare list or an
// {"events": [...]} envelope.
func decodeEvents(data []byte) ([]EventDTO, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var list []EventDTO
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var env eventsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("events payload is neither a list nor an envelope: %w", err)
	}
	return env.Events, nil
}

// CollectiveDTO is the embedded collective payload on a registration.
type CollectiveDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	School   *string `json:"school,omitempty"`
	City     *string `json:"city,omitempty"`
	Contacts *string `json:"contacts,omitempty"`
}

// RegistrationDTO represents one registration row from /api/registrations.
// Required cross-references are pointers so missing keys can be detected
// and reported instead of silently defaulting to zero.
type RegistrationDTO struct {
	ID           int64  `json:"id"`
	EventID      *int64 `json:"eventId"`
	CollectiveID *int64 `json:"collectiveId"`
	DisciplineID *int64 `json:"disciplineId"`
	NominationID *int64 `json:"nominationId"`
	AgeID        *int64 `json:"ageId"`
	CategoryID   *int64 `json:"categoryId"`

	Collective *CollectiveDTO `json:"collective,omitempty"`

	DanceName                   *string  `json:"danceName"`
	Duration                    *string  `json:"duration"`
	ParticipantsCount           int      `json:"participantsCount"`
	FederationParticipantsCount int      `json:"federationParticipantsCount"`
	DiplomasCount               int      `json:"diplomasCount"`
	MedalsCount                 int      `json:"medalsCount"`
	DiplomasList                *string  `json:"diplomasList"`
	PaymentStatus               string   `json:"paymentStatus"`
	PaidAmount                  *float64 `json:"paidAmount"`
	PerformancePaid             bool     `json:"performancePaid"`
	DiplomasAndMedalsPaid       bool     `json:"diplomasAndMedalsPaid"`
	DiplomasPrinted             bool     `json:"diplomasPrinted"`
	Status                      string   `json:"status"`
	Notes                       *string  `json:"notes"`
	Number                      *int64   `json:"number"`
	BlockNumber                 *int64   `json:"blockNumber"`
	VideoURL                    *string  `json:"videoUrl"`
	SongURL                     *string  `json:"songUrl"`
	Agreement                   bool     `json:"agreement"`
	Agreement2                  bool     `json:"agreement2"`
}

// Pagination describes server-side paging state.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// RegistrationPage is the response from GET /api/registrations.
type RegistrationPage struct {
	Registrations []RegistrationDTO `json:"registrations"`
	Pagination    Pagination        `json:"pagination"`
}

// AccountingEntryDTO represents one ledger row from /api/accounting.
type AccountingEntryDTO struct {
	ID               int64   `json:"id"`
	RegistrationID   *int64  `json:"registrationId"`
	CollectiveID     *int64  `json:"collectiveId"`
	EventID          *int64  `json:"eventId"`
	Amount           float64 `json:"amount"`
	DiscountAmount   float64 `json:"discountAmount"`
	DiscountPercent  float64 `json:"discountPercent"`
	Method           string  `json:"method"`
	PaidFor          string  `json:"paidFor"`
	PaymentGroupID   *string `json:"paymentGroupId"`
	PaymentGroupName *string `json:"paymentGroupName"`
	Description      *string `json:"description"`
	DeletedAt        *string `json:"deletedAt"`
	CreatedAt        *string `json:"createdAt"`
}

// AccountingPage is the response from GET /api/accounting.
type AccountingPage struct {
	Entries    []AccountingEntryDTO `json:"entries"`
	Pagination Pagination           `json:"pagination"`
}

// LoginResponse is the response from POST /api/auth/login.
type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Token        string    `json:"token,omitempty"` // legacy field name
	User         LoginUser `json:"user"`
}

// LoginUser is the user block of a login response.
type LoginUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// BearerToken returns whichever token field the server populated.
func (r *LoginResponse) BearerToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// HealthResponse is the response from GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
