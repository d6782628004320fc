package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

func eventKey(id string) string {
	return fmt.Sprintf("event:%s", id)
}

type EventStore struct {
	Redis *redis.Client
}

func NewEventStore(redisClient *redis.Client) *EventStore {
	return &EventStore{Redis: redisClient}
}

func (s *EventStore) Create(ctx context.Context, e *models.Event) error {
	fields := []any{
		"id", e.ID,
		"name", e.Name,
		"venue", e.Venue,
		"start_time", e.StartTime.Format(timeLayout),
		"end_time", e.EndTime.Format(timeLayout),
	}
	if err := s.Redis.HSet(ctx, eventKey(e.ID), fields...).Err(); err != nil {
		return fmt.Errorf("EventStore.Create: %w", err)
	}
	return nil
}

func (s *EventStore) Get(ctx context.Context, id string) (*models.Event, error) {
	data, err := s.Redis.HGetAll(ctx, eventKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("EventStore.Get: %w", err)
	}
	if len(data) == 0 {
		return nil, status.ErrNotFound
	}

	startTime, err := time.Parse(timeLayout, data["start_time"])
	if err != nil {
		return nil, fmt.Errorf("EventStore.Get: start_time: %w", err)
	}
	endTime, err := time.Parse(timeLayout, data["end_time"])
	if err != nil {
		return nil, fmt.Errorf("EventStore.Get: end_time: %w", err)
	}

	return &models.Event{
		ID:        data["id"],
		Name:      data["name"],
		Venue:     data["venue"],
		StartTime: startTime,
		EndTime:   endTime,
	}, nil
}

func (s *EventStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.Redis.Exists(ctx, eventKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("EventStore.Exists: %w", err)
	}
	return n > 0, nil
}

// StartTime is the collaborator contract the signed issuer uses for token
// expiry.
func (s *EventStore) StartTime(ctx context.Context, id string) (time.Time, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return e.StartTime, nil
}
