package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/services/pix"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/monitoring"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/utils"
)

const (
	// descriptionLimit is the provider's charge description field length.
	descriptionLimit = 140

	// qrImageMaxBytes caps the base64 QR raster persisted on the payment
	// record; the store has a per-item size ceiling and the copy-paste
	// code alone is enough to pay. Oversized images are replaced by a
	// short reference, never rejected.
	qrImageMaxBytes = 100 * 1024

	defaultPaymentTTL = 24 * time.Hour
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// PixProvider is the slice of the provider client the payment flows use.
type PixProvider interface {
	CreateCharge(ctx context.Context, req *pix.ChargeRequest) (*pix.Charge, error)
	CheckCharge(ctx context.Context, chargeID string) (string, error)
}

// PaymentService is both the Payment Initiator and the Payment Reconciler.
// The webhook handler and the status poll are two independent, unordered
// writers; they converge through models.MergeStatus applied at the store.
type PaymentService struct {
	payments PaymentStore
	provider PixProvider
	notifier Notifier
	breaker  *utils.CircuitBreaker
	ttl      time.Duration
}

func NewPaymentService(payments PaymentStore, provider PixProvider, notifier Notifier, ttl time.Duration) *PaymentService {
	if ttl <= 0 {
		ttl = defaultPaymentTTL
	}
	return &PaymentService{
		payments: payments,
		provider: provider,
		notifier: notifier,
		breaker:  utils.NewCircuitBreaker("pix-status-poll", utils.BreakerSettings{}),
		ttl:      ttl,
	}
}

type CreatePixPaymentRequest struct {
	UserID           string `json:"userId"`
	TicketID         string `json:"ticketId"`
	EventID          string `json:"eventId"`
	AmountCents      int64  `json:"amount"`
	CustomerName     string `json:"customerName"`
	CustomerEmail    string `json:"customerEmail"`
	CustomerDocument string `json:"customerDocument"`
	EventName        string `json:"eventName"`
}

// PaymentCreationResult carries the stored payment plus the full PIX
// artifacts. PixQRImage here is never truncated; only the stored copy is
// subject to the size ceiling.
type PaymentCreationResult struct {
	Payment    *models.Payment `json:"payment"`
	PixCode    string          `json:"pixCopyPaste"`
	PixQRImage string          `json:"pixQrCodeBase64"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// CreatePixPayment validates the request, writes a pending payment and
// asks the provider for a charge. Validation failures happen before any
// write. On provider failure the returned result still carries the
// created pending payment: it stays in place for audit and later webhook
// convergence, never rolled back.
func (s *PaymentService) CreatePixPayment(ctx context.Context, req *CreatePixPaymentRequest) (*PaymentCreationResult, error) {
	document, err := validateCreateRequest(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &models.Payment{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		TicketID:    req.TicketID,
		EventID:     req.EventID,
		AmountCents: req.AmountCents,
		Status:      models.PaymentPending,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata: map[string]string{
			"customer_name":  req.CustomerName,
			"customer_email": req.CustomerEmail,
			"event_name":     req.EventName,
		},
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("CreatePixPayment: %w", err)
	}
	monitoring.TrackPaymentCreated()

	ref, err := utils.GenerateCode(4)
	if err != nil {
		slog.Warn("charge correlation ref generation failed, using payment id alone", "payment_id", p.ID, "error", err)
	}
	start := time.Now()
	charge, err := s.provider.CreateCharge(ctx, &pix.ChargeRequest{
		CorrelationID:    chargeCorrelationID(p.ID, ref),
		AmountCents:      req.AmountCents,
		Description:      truncateRunes(fmt.Sprintf("Ingresso %s", req.EventName), descriptionLimit),
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerDocument: document,
	})
	monitoring.TrackProviderRequest("create_charge", err, time.Since(start))
	if err != nil {
		slog.Error("pix charge creation failed", "payment_id", p.ID, "error", err)
		return &PaymentCreationResult{Payment: p}, err
	}

	expiresAt := charge.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = p.ExpiresAt
	}

	storedQR := charge.PixQRImage
	if len(storedQR) > qrImageMaxBytes {
		slog.Warn("qr image exceeds store ceiling, truncating",
			"payment_id", p.ID, "charge_id", charge.ID, "bytes", len(storedQR))
		storedQR = fmt.Sprintf("qr-image-omitted:%s", charge.ID)
	}

	if err := s.payments.AttachCharge(ctx, p.ID, charge.ID, charge.PixCode, storedQR, expiresAt, time.Now().UTC()); err != nil {
		return &PaymentCreationResult{Payment: p}, fmt.Errorf("CreatePixPayment: %w", err)
	}

	p.Status = models.PaymentWaitingPayment
	p.ProviderChargeID = charge.ID
	p.PixCode = charge.PixCode
	p.PixQRImage = storedQR
	p.ExpiresAt = expiresAt
	p.UpdatedAt = time.Now().UTC()

	return &PaymentCreationResult{
		Payment:    p,
		PixCode:    charge.PixCode,
		PixQRImage: charge.PixQRImage,
		ExpiresAt:  expiresAt,
	}, nil
}

// ApplyWebhook merges one provider push into the stored payment. A charge
// id with no matching payment is dropped and logged; the provider retries
// delivery, and reprocessing after the payment exists succeeds because the
// merge is idempotent.
func (s *PaymentService) ApplyWebhook(ctx context.Context, chargeID, providerStatus string) error {
	if chargeID == "" {
		return nil
	}

	p, err := s.payments.GetByChargeID(ctx, chargeID)
	if errors.Is(err, status.ErrChargeNotFound) || errors.Is(err, status.ErrNotFound) {
		slog.Warn("webhook for unknown charge dropped", "charge_id", chargeID, "provider_status", providerStatus)
		monitoring.TrackWebhook("unknown_charge")
		return nil
	}
	if err != nil {
		monitoring.TrackWebhook("error")
		return fmt.Errorf("ApplyWebhook: %w", err)
	}

	incoming, ok := models.StatusFromProvider(providerStatus)
	if !ok {
		slog.Warn("unrecognized provider status treated as pending", "charge_id", chargeID, "provider_status", providerStatus)
	}

	applied, final, err := s.payments.SetStatus(ctx, p.ID, incoming, time.Now().UTC())
	if err != nil {
		monitoring.TrackWebhook("error")
		return fmt.Errorf("ApplyWebhook: %w", err)
	}

	monitoring.TrackWebhook(webhookResult(applied))
	if applied && final.IsTerminal() {
		s.notify(ctx, p, final)
	}
	return nil
}

// GetStatus returns the payment, refreshing a non-terminal status from
// the provider when a charge exists. Provider lookup failures are
// swallowed: the stored status is returned and the webhook remains the
// authoritative eventual source of truth.
func (s *PaymentService) GetStatus(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status.IsTerminal() || p.ProviderChargeID == "" {
		return p, nil
	}

	var providerStatus string
	start := time.Now()
	pollErr := s.breaker.Execute(func() error {
		st, err := s.provider.CheckCharge(ctx, p.ProviderChargeID)
		if err != nil {
			return err
		}
		providerStatus = st
		return nil
	})
	if !errors.Is(pollErr, utils.ErrCircuitOpen) {
		monitoring.TrackProviderRequest("check_charge", pollErr, time.Since(start))
	}
	if pollErr != nil {
		slog.Warn("provider status poll failed, serving stored status",
			"payment_id", p.ID, "charge_id", p.ProviderChargeID, "error", pollErr)
		return p, nil
	}

	incoming, ok := models.StatusFromProvider(providerStatus)
	if !ok {
		slog.Warn("unrecognized provider status treated as pending", "charge_id", p.ProviderChargeID, "provider_status", providerStatus)
	}

	now := time.Now().UTC()
	applied, final, err := s.payments.SetStatus(ctx, p.ID, incoming, now)
	if err != nil {
		return nil, fmt.Errorf("GetStatus: %w", err)
	}

	if applied {
		p.Status = final
		p.UpdatedAt = now
		if final.IsTerminal() {
			s.notify(ctx, p, final)
		}
	}
	return p, nil
}

func (s *PaymentService) notify(ctx context.Context, p *models.Payment, final models.PaymentStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.PaymentStatusChanged(ctx, p, final)
}

func webhookResult(applied bool) string {
	if applied {
		return "applied"
	}
	return "ignored_terminal"
}

// validateCreateRequest fails fast, before any record is written or any
// provider call is made. It returns the cleaned tax id.
func validateCreateRequest(req *CreatePixPaymentRequest) (string, error) {
	if req.UserID == "" {
		return "", status.Invalid("userId", "required")
	}
	if req.TicketID == "" {
		return "", status.Invalid("ticketId", "required")
	}
	if req.EventID == "" {
		return "", status.Invalid("eventId", "required")
	}
	if req.AmountCents <= 0 {
		return "", status.Invalid("amount", "must be greater than zero")
	}
	if !emailPattern.MatchString(req.CustomerEmail) {
		return "", status.Invalid("customerEmail", "malformed email address")
	}

	document := nonDigitPattern.ReplaceAllString(req.CustomerDocument, "")
	if len(document) != 11 && len(document) != 14 {
		return "", status.Invalid("customerDocument", "must be a CPF (11 digits) or CNPJ (14 digits)")
	}

	return document, nil
}

// chargeCorrelationID joins the payment id with a short random ref. The
// payment id is already unique, so a missing ref still yields a usable
// correlation id.
func chargeCorrelationID(paymentID, ref string) string {
	if ref == "" {
		return paymentID
	}
	return fmt.Sprintf("%s-%s", paymentID, ref)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
