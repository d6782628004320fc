package models

import (
	"time"
)

type TicketStatus string

const (
	TicketValid     TicketStatus = "valid"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

// IsTerminal reports whether no further transition is permitted.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketUsed || s == TicketCancelled
}

// BuyerInfo is the purchase-time snapshot of the buyer. It is copied onto
// the ticket and the payment metadata and never updated afterwards.
type BuyerInfo struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email"`
}

type Ticket struct {
	ID              string       `json:"id"`
	EventID         string       `json:"event_id"`
	Buyer           BuyerInfo    `json:"buyer"`
	Quantity        int          `json:"quantity"`
	TotalCents      int64        `json:"total_cents"`
	RedemptionToken string       `json:"redemption_token"`
	Status          TicketStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UsedAt          *time.Time   `json:"used_at,omitempty"`
}

// RedemptionOutcome is a first-class result of the redemption state
// machine, not an error.
type RedemptionOutcome string

const (
	RedemptionInvalid     RedemptionOutcome = "invalid"
	RedemptionAlreadyUsed RedemptionOutcome = "already_used"
	RedemptionCancelled   RedemptionOutcome = "cancelled"
	RedemptionValid       RedemptionOutcome = "valid"
)

type RedemptionResult struct {
	Outcome RedemptionOutcome `json:"status"`
	// UsedAt is set for AlreadyUsed: when the winning scan consumed the
	// ticket.
	UsedAt *time.Time `json:"usedAt,omitempty"`
	// ValidatedAt is set for Valid: the moment this scan consumed the
	// ticket.
	ValidatedAt *time.Time `json:"validatedAt,omitempty"`
}
