package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

func paymentKey(id string) string {
	return fmt.Sprintf("payment:%s", id)
}

func chargeKey(chargeID string) string {
	return fmt.Sprintf("charge:%s", chargeID)
}

// maxStatusRetries bounds the optimistic retry loop in SetStatus. The two
// writers (webhook, poll) converge through MergeStatus, so a retry only
// re-reads and re-applies the same deterministic merge.
const maxStatusRetries = 3

// PaymentStore persists payments as Redis hashes plus a charge-id index
// key so webhook deliveries can find the payment they belong to.
type PaymentStore struct {
	Redis *redis.Client
}

func NewPaymentStore(redisClient *redis.Client) *PaymentStore {
	return &PaymentStore{Redis: redisClient}
}

func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	fields := []any{
		"id", p.ID,
		"user_id", p.UserID,
		"ticket_id", p.TicketID,
		"event_id", p.EventID,
		"amount_cents", p.AmountCents,
		"status", string(p.Status),
		"expires_at", p.ExpiresAt.Format(timeLayout),
		"created_at", p.CreatedAt.Format(timeLayout),
		"updated_at", p.UpdatedAt.Format(timeLayout),
	}
	if len(p.Metadata) > 0 {
		meta, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("PaymentStore.Create: metadata: %w", err)
		}
		fields = append(fields, "metadata", string(meta))
	}
	if err := s.Redis.HSet(ctx, paymentKey(p.ID), fields...).Err(); err != nil {
		return fmt.Errorf("PaymentStore.Create: %w", err)
	}
	return nil
}

func (s *PaymentStore) Get(ctx context.Context, id string) (*models.Payment, error) {
	data, err := s.Redis.HGetAll(ctx, paymentKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("PaymentStore.Get: %w", err)
	}
	if len(data) == 0 {
		return nil, status.ErrNotFound
	}
	return paymentFromHash(data)
}

// GetByChargeID resolves a provider charge id through the charge index.
// Webhook deliveries for charges that were never attached report
// ErrChargeNotFound and are dropped by the caller.
func (s *PaymentStore) GetByChargeID(ctx context.Context, chargeID string) (*models.Payment, error) {
	id, err := s.Redis.Get(ctx, chargeKey(chargeID)).Result()
	if err == redis.Nil {
		return nil, status.ErrChargeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("PaymentStore.GetByChargeID: %w", err)
	}
	return s.Get(ctx, id)
}

// AttachCharge records the provider's acceptance of the charge request:
// charge id, the PIX copy-paste code, the (possibly truncated) QR image
// and the provider-reported expiry. The payment leaves pending for
// waiting_payment. The charge index key is written in the same pipeline.
func (s *PaymentStore) AttachCharge(ctx context.Context, id, chargeID, pixCode, qrImage string, expiresAt, now time.Time) error {
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, paymentKey(id),
			"provider_charge_id", chargeID,
			"pix_code", pixCode,
			"pix_qr_image", qrImage,
			"status", string(models.PaymentWaitingPayment),
			"expires_at", expiresAt.Format(timeLayout),
			"updated_at", now.Format(timeLayout),
		)
		pipe.Set(ctx, chargeKey(chargeID), id, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("PaymentStore.AttachCharge: %w", err)
	}
	return nil
}

// SetStatus applies MergeStatus against the stored record inside a watched
// transaction. It reports whether the incoming status was written; a
// terminal stored status is returned unchanged and never overwritten.
func (s *PaymentStore) SetStatus(ctx context.Context, id string, incoming models.PaymentStatus, now time.Time) (bool, models.PaymentStatus, error) {
	key := paymentKey(id)

	var applied bool
	var final models.PaymentStatus

	for i := 0; i < maxStatusRetries; i++ {
		err := s.Redis.Watch(ctx, func(tx *redis.Tx) error {
			st, err := tx.HGet(ctx, key, "status").Result()
			if err == redis.Nil {
				return status.ErrNotFound
			}
			if err != nil {
				return err
			}

			current := models.PaymentStatus(st)
			merged := models.MergeStatus(current, incoming)
			if merged == current && current.IsTerminal() {
				applied = false
				final = current
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key,
					"status", string(merged),
					"updated_at", now.Format(timeLayout),
				)
				return nil
			})
			if err != nil {
				return err
			}
			applied = true
			final = merged
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return false, "", fmt.Errorf("PaymentStore.SetStatus: %w", err)
		}
		return applied, final, nil
	}

	return false, "", fmt.Errorf("PaymentStore.SetStatus: %w", status.ErrConflict)
}

func paymentFromHash(data map[string]string) (*models.Payment, error) {
	amount, _ := strconv.ParseInt(data["amount_cents"], 10, 64)

	expiresAt, err := time.Parse(timeLayout, data["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("paymentFromHash: expires_at: %w", err)
	}
	createdAt, err := time.Parse(timeLayout, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("paymentFromHash: created_at: %w", err)
	}
	updatedAt, err := time.Parse(timeLayout, data["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("paymentFromHash: updated_at: %w", err)
	}

	p := &models.Payment{
		ID:               data["id"],
		UserID:           data["user_id"],
		TicketID:         data["ticket_id"],
		EventID:          data["event_id"],
		AmountCents:      amount,
		Status:           models.PaymentStatus(data["status"]),
		ProviderChargeID: data["provider_charge_id"],
		PixCode:          data["pix_code"],
		PixQRImage:       data["pix_qr_image"],
		ExpiresAt:        expiresAt,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}

	if raw, ok := data["metadata"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Metadata); err != nil {
			return nil, fmt.Errorf("paymentFromHash: metadata: %w", err)
		}
	}

	return p, nil
}
