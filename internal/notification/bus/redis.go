// internal/notification/bus/redis.go
package bus

import (
	"context"
	"fmt"

	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Handler is invoked once per message received on the subscription.
type Handler = func(payload []byte)

// RedisBus broadcasts and subscribes on a single fixed Redis pub/sub channel.
// The transport is transient: no persistence, no backpressure, no acks. Every
// currently-subscribed process receives every broadcast at least once,
// including the broadcasting process itself.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  logger.Logger
}

func NewRedis(client *redis.Client, channel string, log logger.Logger) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: channel,
		logger:  log.WithFields(map[string]interface{}{"channel": channel}),
	}
}

// Broadcast publishes payload on the channel. Fire-and-forget: the caller
// decides whether a failure matters.
func (b *RedisBus) Broadcast(ctx context.Context, payload []byte) error {
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish on %q: %w", b.channel, err)
	}
	return nil
}

// Subscribe registers handler for every message on the channel and consumes
// until ctx is canceled. It returns once the subscription is confirmed by the
// server; the consume loop runs on its own goroutine and never terminates on
// a bad message.
func (b *RedisBus) Subscribe(ctx context.Context, handler Handler) error {
	ps := b.client.Subscribe(ctx, b.channel)

	// Wait for the subscription confirmation so no broadcast issued after
	// this call returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe to %q: %w", b.channel, err)
	}

	go func() {
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					b.logger.Warn("bus subscription channel closed", nil)
					return
				}
				metrics.BusMessagesReceived.WithLabelValues("received").Inc()
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

// Channel returns the fixed channel name this bus operates on.
func (b *RedisBus) Channel() string {
	return b.channel
}
