package events

import (
	"context"
	"log/slog"
	"runtime/debug"

	"quill/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces the pub/sub channels. Each event type has its own
// channel, e.g. "quill:events:post.created".
const ChannelPrefix = "quill:events:"

// RedisPublisher publishes events to Redis channels.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a publisher on an existing client.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	b, err := marshal(e)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, ChannelPrefix+e.Type, b).Err()
}

// Close is a no-op; the client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }

// Subscribe delivers every event channel message to onMessage until ctx is
// done. A panicking handler is logged and the loop continues.
func (p *RedisPublisher) Subscribe(ctx context.Context, onMessage func(channel, payload string)) error {
	sub := p.rdb.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
