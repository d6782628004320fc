package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/monitoring"
)

// redeemAttempts bounds the CAS loop. A conflict normally means another
// scanner consumed the ticket, which the re-read resolves on the first
// pass; the loop only spins again if the record is somehow still valid.
const redeemAttempts = 3

// RedemptionService enforces at-most-once redemption at the gate. All
// concurrency control is the store's conditional write; there is no
// in-process lock to share between gate devices.
type RedemptionService struct {
	tickets TicketStore
}

func NewRedemptionService(tickets TicketStore) *RedemptionService {
	return &RedemptionService{tickets: tickets}
}

// Redeem runs the redemption state machine. Invalid, AlreadyUsed and
// Cancelled are first-class outcomes, not errors; an error return means
// the store itself failed.
func (s *RedemptionService) Redeem(ctx context.Context, ticketID, eventID string) (*models.RedemptionResult, error) {
	t, err := s.tickets.Get(ctx, ticketID)
	if errors.Is(err, status.ErrNotFound) {
		return s.outcome(&models.RedemptionResult{Outcome: models.RedemptionInvalid}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("RedemptionService.Redeem: %w", err)
	}

	// A token presented at the wrong event is invalid regardless of the
	// ticket's status.
	if t.EventID != eventID {
		return s.outcome(&models.RedemptionResult{Outcome: models.RedemptionInvalid}), nil
	}

	if res := resultForStored(t); res != nil {
		return s.outcome(res), nil
	}

	for i := 0; i < redeemAttempts; i++ {
		now := time.Now().UTC()

		err := s.tickets.Redeem(ctx, ticketID, now)
		switch {
		case err == nil:
			return s.outcome(&models.RedemptionResult{
				Outcome:     models.RedemptionValid,
				ValidatedAt: &now,
			}), nil

		case errors.Is(err, status.ErrConflict):
			// Lost the race. Re-read and report the winner's state; a
			// race loser must never be told the ticket is invalid.
			t, err = s.tickets.Get(ctx, ticketID)
			if errors.Is(err, status.ErrNotFound) {
				return s.outcome(&models.RedemptionResult{Outcome: models.RedemptionInvalid}), nil
			}
			if err != nil {
				return nil, fmt.Errorf("RedemptionService.Redeem: re-read: %w", err)
			}
			if res := resultForStored(t); res != nil {
				return s.outcome(res), nil
			}
			// Still valid: the conflict came from an unrelated write on
			// the same key. Try the transition again.

		case errors.Is(err, status.ErrNotFound):
			return s.outcome(&models.RedemptionResult{Outcome: models.RedemptionInvalid}), nil

		default:
			return nil, fmt.Errorf("RedemptionService.Redeem: %w", err)
		}
	}

	return nil, fmt.Errorf("RedemptionService.Redeem: %w", status.ErrConflict)
}

// resultForStored maps a non-valid stored ticket onto its terminal
// outcome, or nil when the ticket is still redeemable.
func resultForStored(t *models.Ticket) *models.RedemptionResult {
	switch t.Status {
	case models.TicketUsed:
		return &models.RedemptionResult{Outcome: models.RedemptionAlreadyUsed, UsedAt: t.UsedAt}
	case models.TicketCancelled:
		return &models.RedemptionResult{Outcome: models.RedemptionCancelled}
	}
	return nil
}

func (s *RedemptionService) outcome(res *models.RedemptionResult) *models.RedemptionResult {
	monitoring.TrackRedemption(string(res.Outcome))
	if res.Outcome != models.RedemptionValid {
		slog.Info("redemption rejected", "outcome", res.Outcome)
	}
	return res
}
