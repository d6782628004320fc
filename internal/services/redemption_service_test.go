package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

// memTicketStore reproduces the store's conditional-write semantics in
// memory: the redeem transition happens under one lock, exactly as the
// Redis transaction guarantees it, so concurrency tests race the real
// thing.
type memTicketStore struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
	creates int
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{tickets: make(map[string]*models.Ticket)}
}

func (m *memTicketStore) Create(_ context.Context, t *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tickets[t.ID] = &cp
	m.creates++
	return nil
}

func (m *memTicketStore) Get(_ context.Context, id string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTicketStore) Redeem(_ context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return status.ErrNotFound
	}
	if t.Status != models.TicketValid {
		return status.ErrConflict
	}
	t.Status = models.TicketUsed
	t.UsedAt = &usedAt
	return nil
}

func seedTicket(m *memTicketStore, id, eventID string, st models.TicketStatus) {
	m.tickets[id] = &models.Ticket{
		ID:        id,
		EventID:   eventID,
		Status:    st,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRedeem_Valid(t *testing.T) {
	store := newMemTicketStore()
	seedTicket(store, "T1", "E1", models.TicketValid)
	svc := NewRedemptionService(store)

	res, err := svc.Redeem(context.Background(), "T1", "E1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionValid, res.Outcome)
	require.NotNil(t, res.ValidatedAt)
}

func TestRedeem_SecondScanReportsFirstUsedAt(t *testing.T) {
	store := newMemTicketStore()
	seedTicket(store, "T1", "E1", models.TicketValid)
	svc := NewRedemptionService(store)

	first, err := svc.Redeem(context.Background(), "T1", "E1")
	require.NoError(t, err)
	require.Equal(t, models.RedemptionValid, first.Outcome)

	second, err := svc.Redeem(context.Background(), "T1", "E1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionAlreadyUsed, second.Outcome)
	require.NotNil(t, second.UsedAt)
	assert.True(t, second.UsedAt.Equal(*first.ValidatedAt))
}

func TestRedeem_WrongEvent(t *testing.T) {
	store := newMemTicketStore()
	seedTicket(store, "T1", "E1", models.TicketValid)
	svc := NewRedemptionService(store)

	res, err := svc.Redeem(context.Background(), "T1", "E2")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionInvalid, res.Outcome)

	// Wrong event stays invalid whatever the ticket status.
	seedTicket(store, "T2", "E1", models.TicketUsed)
	res, err = svc.Redeem(context.Background(), "T2", "E2")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionInvalid, res.Outcome)
}

func TestRedeem_UnknownTicket(t *testing.T) {
	svc := NewRedemptionService(newMemTicketStore())

	res, err := svc.Redeem(context.Background(), "ghost", "E1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionInvalid, res.Outcome)
}

func TestRedeem_CancelledTicket(t *testing.T) {
	store := newMemTicketStore()
	seedTicket(store, "T1", "E1", models.TicketCancelled)
	svc := NewRedemptionService(store)

	res, err := svc.Redeem(context.Background(), "T1", "E1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionCancelled, res.Outcome)
}

func TestRedeem_AtMostOnceUnderConcurrency(t *testing.T) {
	const scanners = 50

	store := newMemTicketStore()
	seedTicket(store, "T1", "E1", models.TicketValid)
	svc := NewRedemptionService(store)

	results := make([]*models.RedemptionResult, scanners)
	errs := make([]error, scanners)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(scanners)
	for i := 0; i < scanners; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i], errs[i] = svc.Redeem(context.Background(), "T1", "E1")
		}(i)
	}
	start.Done()
	done.Wait()

	var winners, losers int
	var winnerAt *time.Time
	for i := 0; i < scanners; i++ {
		require.NoError(t, errs[i])
		switch results[i].Outcome {
		case models.RedemptionValid:
			winners++
			winnerAt = results[i].ValidatedAt
		case models.RedemptionAlreadyUsed:
			losers++
		default:
			t.Fatalf("unexpected outcome %s", results[i].Outcome)
		}
	}

	assert.Equal(t, 1, winners, "exactly one scan may win")
	assert.Equal(t, scanners-1, losers)

	// Every loser observes the winner's used_at.
	require.NotNil(t, winnerAt)
	for i := 0; i < scanners; i++ {
		if results[i].Outcome == models.RedemptionAlreadyUsed {
			require.NotNil(t, results[i].UsedAt)
			assert.True(t, results[i].UsedAt.Equal(*winnerAt))
		}
	}
}
