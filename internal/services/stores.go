package services

import (
	"context"
	"time"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

// TicketStore is the slice of the record store the ticket flows need. The
// Redis implementation lives in internal/store; tests substitute in-memory
// fakes with the same conditional-write semantics.
type TicketStore interface {
	Create(ctx context.Context, t *models.Ticket) error
	Get(ctx context.Context, id string) (*models.Ticket, error)
	// Redeem applies the valid->used transition only if the stored status
	// is still valid at write time. Losing the race, or any non-valid
	// stored status, reports status.ErrConflict.
	Redeem(ctx context.Context, id string, usedAt time.Time) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, id string) (*models.Payment, error)
	GetByChargeID(ctx context.Context, chargeID string) (*models.Payment, error)
	AttachCharge(ctx context.Context, id, chargeID, pixCode, qrImage string, expiresAt, now time.Time) error
	SetStatus(ctx context.Context, id string, incoming models.PaymentStatus, now time.Time) (bool, models.PaymentStatus, error)
}

type EventStore interface {
	Get(ctx context.Context, id string) (*models.Event, error)
	Exists(ctx context.Context, id string) (bool, error)
	StartTime(ctx context.Context, id string) (time.Time, error)
}

// Notifier pushes payment status transitions to interested clients. The
// PubNub implementation lives in internal/notify.
type Notifier interface {
	PaymentStatusChanged(ctx context.Context, p *models.Payment, st models.PaymentStatus)
}
