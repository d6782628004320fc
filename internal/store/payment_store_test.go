package store

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

func TestPaymentStore_GetByChargeID_Unknown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewPaymentStore(db)

	mock.ExpectGet("charge:nope").RedisNil()

	_, err := s.GetByChargeID(context.Background(), "nope")
	assert.ErrorIs(t, err, status.ErrChargeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_GetByChargeID(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewPaymentStore(db)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectGet("charge:C1").SetVal("p1")
	mock.ExpectHGetAll("payment:p1").SetVal(map[string]string{
		"id":                 "p1",
		"user_id":            "u1",
		"ticket_id":          "t1",
		"event_id":           "e1",
		"amount_cents":       "9900",
		"status":             "waiting_payment",
		"provider_charge_id": "C1",
		"pix_code":           "00020126pix",
		"expires_at":         now.Add(24 * time.Hour).Format(timeLayout),
		"created_at":         now.Format(timeLayout),
		"updated_at":         now.Format(timeLayout),
	})

	p, err := s.GetByChargeID(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, models.PaymentWaitingPayment, p.Status)
	assert.Equal(t, int64(9900), p.AmountCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_AttachCharge(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewPaymentStore(db)

	expiresAt := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectTxPipeline()
	mock.ExpectHSet("payment:p1",
		"provider_charge_id", "C1",
		"pix_code", "00020126pix",
		"pix_qr_image", "aW1n",
		"status", "waiting_payment",
		"expires_at", expiresAt.Format(timeLayout),
		"updated_at", now.Format(timeLayout),
	).SetVal(6)
	mock.ExpectSet("charge:C1", "p1", 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	err := s.AttachCharge(context.Background(), "p1", "C1", "00020126pix", "aW1n", expiresAt, now)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_SetStatus_Applies(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewPaymentStore(db)

	now := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

	mock.ExpectWatch("payment:p1")
	mock.ExpectHGet("payment:p1", "status").SetVal("pending")
	mock.ExpectTxPipeline()
	mock.ExpectHSet("payment:p1", "status", "paid", "updated_at", now.Format(timeLayout)).SetVal(2)
	mock.ExpectTxPipelineExec()

	applied, final, err := s.SetStatus(context.Background(), "p1", models.PaymentPaid, now)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.PaymentPaid, final)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_SetStatus_TerminalGuard(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewPaymentStore(db)

	// A stale pending arriving after paid: no write happens at all.
	mock.ExpectWatch("payment:p1")
	mock.ExpectHGet("payment:p1", "status").SetVal("paid")

	applied, final, err := s.SetStatus(context.Background(), "p1", models.PaymentPending, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.PaymentPaid, final)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_SetStatus_Missing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewPaymentStore(db)

	mock.ExpectWatch("payment:ghost")
	mock.ExpectHGet("payment:ghost", "status").RedisNil()

	_, _, err := s.SetStatus(context.Background(), "ghost", models.PaymentPaid, time.Now())
	assert.ErrorIs(t, err, status.ErrNotFound)
}
