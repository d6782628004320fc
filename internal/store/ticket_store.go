package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

const timeLayout = time.RFC3339Nano

func ticketKey(id string) string {
	return fmt.Sprintf("ticket:%s", id)
}

// TicketStore persists tickets as Redis hashes, one key per ticket. The
// redeem transition is the only conditional write in the system and relies
// on an optimistic WATCH/MULTI transaction, not on client-side locks.
type TicketStore struct {
	Redis *redis.Client
}

func NewTicketStore(redisClient *redis.Client) *TicketStore {
	return &TicketStore{Redis: redisClient}
}

func (s *TicketStore) Create(ctx context.Context, t *models.Ticket) error {
	fields := []any{
		"id", t.ID,
		"event_id", t.EventID,
		"buyer_name", t.Buyer.Name,
		"buyer_document", t.Buyer.Document,
		"buyer_email", t.Buyer.Email,
		"quantity", t.Quantity,
		"total_cents", t.TotalCents,
		"redemption_token", t.RedemptionToken,
		"status", string(t.Status),
		"created_at", t.CreatedAt.Format(timeLayout),
	}
	if err := s.Redis.HSet(ctx, ticketKey(t.ID), fields...).Err(); err != nil {
		return fmt.Errorf("TicketStore.Create: %w", err)
	}
	return nil
}

func (s *TicketStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	data, err := s.Redis.HGetAll(ctx, ticketKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("TicketStore.Get: %w", err)
	}
	if len(data) == 0 {
		return nil, status.ErrNotFound
	}
	return ticketFromHash(data)
}

// Redeem performs the conditional valid->used transition. The write is
// applied only if the stored status still equals "valid" at write time;
// any other state, or a concurrent winner, yields ErrConflict so the
// caller can re-read and report the real state.
func (s *TicketStore) Redeem(ctx context.Context, id string, usedAt time.Time) error {
	key := ticketKey(id)

	err := s.Redis.Watch(ctx, func(tx *redis.Tx) error {
		st, err := tx.HGet(ctx, key, "status").Result()
		if err == redis.Nil {
			return status.ErrNotFound
		}
		if err != nil {
			return err
		}
		if models.TicketStatus(st) != models.TicketValid {
			return status.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"status", string(models.TicketUsed),
				"used_at", usedAt.Format(timeLayout),
			)
			return nil
		})
		return err
	}, key)

	switch err {
	case nil:
		return nil
	case redis.TxFailedErr:
		// Another scanner won the race between our read and our write.
		return status.ErrConflict
	default:
		return err
	}
}

func ticketFromHash(data map[string]string) (*models.Ticket, error) {
	quantity, _ := strconv.Atoi(data["quantity"])
	totalCents, _ := strconv.ParseInt(data["total_cents"], 10, 64)

	createdAt, err := time.Parse(timeLayout, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("ticketFromHash: created_at: %w", err)
	}

	t := &models.Ticket{
		ID:      data["id"],
		EventID: data["event_id"],
		Buyer: models.BuyerInfo{
			Name:     data["buyer_name"],
			Document: data["buyer_document"],
			Email:    data["buyer_email"],
		},
		Quantity:        quantity,
		TotalCents:      totalCents,
		RedemptionToken: data["redemption_token"],
		Status:          models.TicketStatus(data["status"]),
		CreatedAt:       createdAt,
	}

	if raw, ok := data["used_at"]; ok && raw != "" {
		usedAt, err := time.Parse(timeLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("ticketFromHash: used_at: %w", err)
		}
		t.UsedAt = &usedAt
	}

	return t, nil
}
