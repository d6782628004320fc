package pix

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeRequest is a provider-agnostic PIX charge request. Amounts are
// expressed in minor currency units and converted to the provider's
// decimal wire format here.
type ChargeRequest struct {
	CorrelationID    string
	AmountCents      int64
	Description      string
	CustomerName     string
	CustomerEmail    string
	CustomerDocument string
}

// Charge is the provider's representation of an accepted PIX charge.
type Charge struct {
	ID         string
	Status     string
	PixCode    string
	PixQRImage string
	ExpiresAt  time.Time
}

// Provider talks to the PIX provider's HTTP API.
type Provider struct {
	client *Client
}

func New(cfg *ClientConfig) *Provider {
	return &Provider{client: newClient(cfg)}
}

// CreateCharge requests a new charge. The returned Charge always carries a
// non-empty id and copy-paste code; anything less is reported as a
// malformed-response provider error by the client.
func (p *Provider) CreateCharge(ctx context.Context, req *ChargeRequest) (*Charge, error) {
	payload := &chargePayload{
		CorrelationID: req.CorrelationID,
		Value:         decimal.NewFromInt(req.AmountCents).Shift(-2),
		Description:   req.Description,
	}
	payload.Customer.Name = req.CustomerName
	payload.Customer.Email = req.CustomerEmail
	payload.Customer.TaxID = req.CustomerDocument

	reply, err := p.client.createCharge(ctx, payload)
	if err != nil {
		return nil, err
	}

	charge := &Charge{
		ID:         reply.ID,
		Status:     reply.Status,
		PixCode:    reply.BRCode,
		PixQRImage: reply.BRCodeBase64,
	}

	if reply.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, reply.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("CreateCharge: expiresAt: %w", err)
		}
		charge.ExpiresAt = expiresAt
	}

	return charge, nil
}

// CheckCharge returns the provider-side status string for a charge.
func (p *Provider) CheckCharge(ctx context.Context, chargeID string) (string, error) {
	return p.client.checkCharge(ctx, chargeID)
}
