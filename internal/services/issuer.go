package services

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

// TokenEncoder builds the redemption token bound into a ticket's scannable
// code. Two deployment variants exist: a plain structured payload and an
// RS256-signed token expiring at event start. Both share the same Ticket
// schema; the variant is selected at wiring time.
type TokenEncoder interface {
	EncodeToken(ctx context.Context, ticketID, eventID string) (string, error)
}

// PlainTokenEncoder encodes the ticket/event binding as base64 JSON.
type PlainTokenEncoder struct{}

type plainTokenPayload struct {
	TicketID string `json:"ticket_id"`
	EventID  string `json:"event_id"`
}

func (PlainTokenEncoder) EncodeToken(_ context.Context, ticketID, eventID string) (string, error) {
	raw, err := json.Marshal(plainTokenPayload{TicketID: ticketID, EventID: eventID})
	if err != nil {
		return "", fmt.Errorf("PlainTokenEncoder: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// SignedTokenEncoder signs the binding with the process-wide RS256 key.
// The token expires when the event starts, after which gates fall back to
// the stored ticket record.
type SignedTokenEncoder struct {
	key    *rsa.PrivateKey
	events EventStore
}

func NewSignedTokenEncoder(key *rsa.PrivateKey, events EventStore) *SignedTokenEncoder {
	return &SignedTokenEncoder{key: key, events: events}
}

type redemptionClaims struct {
	TicketID string `json:"ticket_id"`
	EventID  string `json:"event_id"`
	jwt.RegisteredClaims
}

func (e *SignedTokenEncoder) EncodeToken(ctx context.Context, ticketID, eventID string) (string, error) {
	startTime, err := e.events.StartTime(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("SignedTokenEncoder: event start time: %w", err)
	}

	claims := redemptionClaims{
		TicketID: ticketID,
		EventID:  eventID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ticketID,
			ExpiresAt: jwt.NewNumericDate(startTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(e.key)
	if err != nil {
		return "", fmt.Errorf("SignedTokenEncoder: sign: %w", err)
	}
	return signed, nil
}

// IssuerService creates tickets and their redemption tokens. Rendering the
// token as a scannable image is delegated to an external collaborator.
type IssuerService struct {
	tickets TicketStore
	events  EventStore
	encoder TokenEncoder
}

func NewIssuerService(tickets TicketStore, events EventStore, encoder TokenEncoder) *IssuerService {
	return &IssuerService{tickets: tickets, events: events, encoder: encoder}
}

// Issue writes a fresh valid ticket and returns it together with the
// redemption token. Fails with status.ErrNotFound when the event does not
// exist; nothing is written in that case.
func (s *IssuerService) Issue(ctx context.Context, eventID string, buyer models.BuyerInfo, quantity int, totalCents int64) (*models.Ticket, string, error) {
	ok, err := s.events.Exists(ctx, eventID)
	if err != nil {
		return nil, "", fmt.Errorf("IssuerService.Issue: %w", err)
	}
	if !ok {
		return nil, "", status.ErrNotFound
	}

	ticketID := uuid.NewString()

	token, err := s.encoder.EncodeToken(ctx, ticketID, eventID)
	if err != nil {
		return nil, "", fmt.Errorf("IssuerService.Issue: %w", err)
	}

	ticket := &models.Ticket{
		ID:              ticketID,
		EventID:         eventID,
		Buyer:           buyer,
		Quantity:        quantity,
		TotalCents:      totalCents,
		RedemptionToken: token,
		Status:          models.TicketValid,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, "", fmt.Errorf("IssuerService.Issue: %w", err)
	}

	return ticket, token, nil
}
