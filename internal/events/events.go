// Package events publishes domain events (new posts, comments and follow
// changes) to Redis pub/sub or Kafka. Publishing is best-effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	PostCreated    = "post.created"
	CommentCreated = "comment.created"
	FollowCreated  = "follow.created"
	FollowDeleted  = "follow.deleted"
)

// Event is the envelope written to every backend.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actor_id"`
	SubjectID  uint      `json:"subject_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// New stamps an event with the current time.
func New(eventType string, actorID, subjectID uint, payload any) Event {
	return Event{
		Type:       eventType,
		ActorID:    actorID,
		SubjectID:  subjectID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Key partitions events by subject.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%d", e.Type, e.SubjectID)
}

// Publisher delivers events to a backend.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// PublishTimeout bounds a single Emit.
var PublishTimeout = 2 * time.Second

// Emit publishes e and only logs failures. It gives up after PublishTimeout.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()
	if err := p.Publish(ctx, e); err != nil {
		observability.EventsPublished.WithLabelValues(e.Type, "error").Inc()
		middleware.Logger.WarnContext(ctx, "event publish failed",
			slog.String("type", e.Type),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.EventsPublished.WithLabelValues(e.Type, "ok").Inc()
}

// NewPublisher builds the publisher selected by EVENTS_BACKEND. The redis
// backend needs a client; without one it falls back to Noop.
func NewPublisher(cfg *config.Config, rdb *redis.Client) Publisher {
	switch cfg.EventsBackend {
	case "redis":
		if rdb == nil {
			middleware.Logger.Warn("EVENTS_BACKEND=redis without a Redis client, events disabled")
			return Noop{}
		}
		return NewRedisPublisher(rdb)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokerList(), cfg.KafkaTopic)
	default:
		return Noop{}
	}
}

func marshal(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.Type, err)
	}
	return b, nil
}
