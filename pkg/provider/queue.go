package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrEnqueueFailed wraps task queue backend failures.
var ErrEnqueueFailed = errors.New("provider.errors.enqueue_failed")

// queuedTask is the wire form a worker pops from the queue list.
type queuedTask struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// RedisQueue pushes tasks onto a Redis list consumed by workers. Each
// tenant's queue is a separate list keyed by the configured name.
type RedisQueue struct {
	client redis.UniversalClient
	name   string
}

// NewRedisQueue builds a Redis queue backend from its settings.
// Required settings: "url" and "queue".
func NewRedisQueue(s Settings) (*RedisQueue, error) {
	rawURL := s.String("url", "")
	name := s.String("queue", "")
	if rawURL == "" || name == "" {
		return nil, fmt.Errorf("%w: redis url and queue are required", ErrInvalidConfig)
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &RedisQueue{client: redis.NewClient(opts), name: name}, nil
}

// NewRedisQueueFromClient wraps an existing client.
func NewRedisQueueFromClient(client redis.UniversalClient, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Join(ErrEnqueueFailed, err)
	}

	t := queuedTask{
		ID:         uuid.NewString(),
		Task:       task,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(t)
	if err != nil {
		return "", errors.Join(ErrEnqueueFailed, err)
	}

	if err := q.client.LPush(ctx, "queue:"+q.name, body).Err(); err != nil {
		return "", errors.Join(ErrEnqueueFailed, err)
	}
	return t.ID, nil
}

// RegisterQueueBackends installs the built-in queue factories.
func RegisterQueueBackends(r *Registry) {
	r.Register(CapabilityQueue, "redis", func(s Settings) (any, error) {
		return NewRedisQueue(s)
	})
}
