package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentWaitingPayment PaymentStatus = "waiting_payment"
	PaymentPaid           PaymentStatus = "paid"
	PaymentFailed         PaymentStatus = "failed"
	PaymentExpired        PaymentStatus = "expired"
	PaymentCancelled      PaymentStatus = "cancelled"
)

// IsTerminal reports whether the status accepts no further transition.
// Terminal statuses never regress, whichever channel reports later.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentPaid, PaymentFailed, PaymentExpired, PaymentCancelled:
		return true
	}
	return false
}

// MergeStatus reconciles a stored status with one arriving from the
// provider, via webhook or poll. It is pure: repeated application of the
// same incoming status is idempotent, and a terminal current status always
// wins over whatever arrives later.
func MergeStatus(current, incoming PaymentStatus) PaymentStatus {
	if current.IsTerminal() {
		return current
	}
	return incoming
}

// StatusFromProvider maps the provider's status strings onto the local
// enum. The second return is false for unrecognized values, which callers
// treat as pending and log.
func StatusFromProvider(s string) (PaymentStatus, bool) {
	switch s {
	case "PAID":
		return PaymentPaid, true
	case "EXPIRED":
		return PaymentExpired, true
	case "CANCELLED":
		return PaymentCancelled, true
	case "PENDING":
		return PaymentPending, true
	}
	return PaymentPending, false
}

type Payment struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	TicketID         string            `json:"ticket_id"`
	EventID          string            `json:"event_id"`
	AmountCents      int64             `json:"amount_cents"`
	Status           PaymentStatus     `json:"status"`
	ProviderChargeID string            `json:"provider_charge_id,omitempty"`
	PixCode          string            `json:"pix_code,omitempty"`
	PixQRImage       string            `json:"pix_qr_image,omitempty"`
	ExpiresAt        time.Time         `json:"expires_at"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}
