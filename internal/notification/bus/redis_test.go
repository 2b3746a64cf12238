// internal/notification/bus/redis_test.go
package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"notification-service/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) (*RedisBus, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, "notification", logger.NewTestLogger(t)), client
}

func TestRedisBus_BroadcastReachesSubscriber(t *testing.T) {
	b, _ := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received [][]byte
	require.NoError(t, b.Subscribe(ctx, func(payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, payload)
	}))

	require.NoError(t, b.Broadcast(ctx, []byte(`{"id":"n1"}`)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, `{"id":"n1"}`, string(received[0]))
}

func TestRedisBus_SubscriberSurvivesArbitraryPayloads(t *testing.T) {
	b, _ := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	count := 0
	require.NoError(t, b.Subscribe(ctx, func(_ []byte) {
		mu.Lock()
		defer mu.Unlock()
		count++
	}))

	// Garbage on the channel must flow through the loop without killing it;
	// interpreting the payload is the handler's problem.
	require.NoError(t, b.Broadcast(ctx, []byte("not json at all")))
	require.NoError(t, b.Broadcast(ctx, []byte(`{"id":"n2"}`)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisBus_SubscribeStopsOnContextCancel(t *testing.T) {
	b, client := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	count := 0
	require.NoError(t, b.Subscribe(ctx, func(_ []byte) {
		mu.Lock()
		defer mu.Unlock()
		count++
	}))

	cancel()
	time.Sleep(50 * time.Millisecond)

	// Publish directly so the broadcast is not bound by the canceled ctx.
	require.NoError(t, client.Publish(context.Background(), b.Channel(), "late").Err())
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestRedisBus_BroadcastFailsWhenServerGone(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	b := NewRedis(client, "notification", logger.NewTestLogger(t))

	mr.Close()

	err := b.Broadcast(context.Background(), []byte("payload"))
	assert.Error(t, err)
}
