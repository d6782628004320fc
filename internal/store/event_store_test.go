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

func TestEventStore_CreateAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewEventStore(db)

	start := time.Date(2025, 6, 21, 20, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)

	mock.ExpectHSet("event:e1",
		"id", "e1",
		"name", "Festival de Inverno",
		"venue", "Arena Central",
		"start_time", start.Format(timeLayout),
		"end_time", end.Format(timeLayout),
	).SetVal(5)

	err := s.Create(context.Background(), &models.Event{
		ID:        "e1",
		Name:      "Festival de Inverno",
		Venue:     "Arena Central",
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)

	mock.ExpectHGetAll("event:e1").SetVal(map[string]string{
		"id":         "e1",
		"name":       "Festival de Inverno",
		"venue":      "Arena Central",
		"start_time": start.Format(timeLayout),
		"end_time":   end.Format(timeLayout),
	})

	e, err := s.Get(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Festival de Inverno", e.Name)
	assert.True(t, e.StartTime.Equal(start))
	assert.True(t, e.EndTime.Equal(end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventStore_Get_NotFound(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewEventStore(db)

	mock.ExpectHGetAll("event:nope").SetVal(map[string]string{})

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestEventStore_Exists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewEventStore(db)

	mock.ExpectExists("event:e1").SetVal(1)
	mock.ExpectExists("event:nope").SetVal(0)

	ok, err := s.Exists(context.Background(), "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventStore_StartTime(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewEventStore(db)

	start := time.Date(2025, 6, 21, 20, 0, 0, 0, time.UTC)

	mock.ExpectHGetAll("event:e1").SetVal(map[string]string{
		"id":         "e1",
		"name":       "Festival de Inverno",
		"venue":      "Arena Central",
		"start_time": start.Format(timeLayout),
		"end_time":   start.Add(6 * time.Hour).Format(timeLayout),
	})

	got, err := s.StartTime(context.Background(), "e1")
	require.NoError(t, err)
	assert.True(t, got.Equal(start))
}
