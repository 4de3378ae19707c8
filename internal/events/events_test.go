package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quill/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisPublisher_DeliversToSubscriber(t *testing.T) {
	rdb := newTestRedis(t)
	p := NewRedisPublisher(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	require.NoError(t, p.Subscribe(ctx, func(channel, payload string) {
		if channel == ChannelPrefix+PostCreated {
			got <- payload
		}
	}))

	require.NoError(t, p.Publish(ctx, New(PostCreated, 1, 42, map[string]any{"text": "hi"})))

	select {
	case payload := <-got:
		var e Event
		require.NoError(t, json.Unmarshal([]byte(payload), &e))
		assert.Equal(t, PostCreated, e.Type)
		assert.Equal(t, uint(42), e.SubjectID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker down")
}
func (f *failingPublisher) Close() error { return nil }

func TestEmit_SwallowsErrors(t *testing.T) {
	p := &failingPublisher{}
	assert.NotPanics(t, func() {
		Emit(context.Background(), p, New(FollowCreated, 1, 2, nil))
		Emit(context.Background(), nil, New(FollowCreated, 1, 2, nil))
	})
	assert.Equal(t, 1, p.calls)
}

type blockingPublisher struct {
	hadDeadline bool
	err         error
}

func (p *blockingPublisher) Publish(ctx context.Context, _ Event) error {
	_, p.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	p.err = ctx.Err()
	return p.err
}

func (p *blockingPublisher) Close() error { return nil }

func TestEmit_GivesUpAfterTimeout(t *testing.T) {
	orig := PublishTimeout
	PublishTimeout = 20 * time.Millisecond
	t.Cleanup(func() { PublishTimeout = orig })

	p := &blockingPublisher{}
	done := make(chan struct{})
	go func() {
		Emit(context.Background(), p, New(PostCreated, 1, 2, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit did not return after its timeout")
	}
	assert.True(t, p.hadDeadline)
	assert.ErrorIs(t, p.err, context.DeadlineExceeded)
}

func TestNewPublisher_SelectsBackend(t *testing.T) {
	rdb := newTestRedis(t)

	assert.IsType(t, Noop{}, NewPublisher(&config.Config{EventsBackend: "none"}, rdb))
	assert.IsType(t, &RedisPublisher{}, NewPublisher(&config.Config{EventsBackend: "redis"}, rdb))
	assert.IsType(t, Noop{}, NewPublisher(&config.Config{EventsBackend: "redis"}, nil))

	k := NewPublisher(&config.Config{EventsBackend: "kafka", KafkaBrokers: "localhost:9092", KafkaTopic: "t"}, nil)
	assert.IsType(t, &KafkaPublisher{}, k)
	assert.NoError(t, k.Close())
}

func TestEvent_Key(t *testing.T) {
	assert.Equal(t, "comment.created:7", New(CommentCreated, 3, 7, nil).Key())
}
