package invalidation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Applier drops local cache entries for an event received from a peer.
type Applier func(event domain.InvalidationEvent) int

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NewRedisClient parses url and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisBus fans cache invalidations out to every instance sharing a channel.
type RedisBus struct {
	pub     publisher
	channel string
}

func NewRedisBus(client publisher, channel string) *RedisBus {
	return &RedisBus{pub: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, event domain.InvalidationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode invalidation: %w", err)
	}
	if err := b.pub.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Listener applies invalidations published by other instances.
type Listener struct {
	client   *redis.Client
	channel  string
	instance string
	apply    Applier

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewListener(client *redis.Client, channel, instance string, apply Applier) *Listener {
	return &Listener{
		client:   client,
		channel:  channel,
		instance: instance,
		apply:    apply,
	}
}

// Start subscribes and consumes messages until Shutdown or ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	ctx, l.cancel = context.WithCancel(ctx)

	sub := l.client.Subscribe(ctx, l.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		l.cancel()
		return fmt.Errorf("failed to subscribe to %s: %w", l.channel, err)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				l.handle(msg.Payload)
			}
		}
	}()

	logger.Info().Str("channel", l.channel).Msg("Listening for cache invalidations")
	return nil
}

func (l *Listener) Shutdown() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

// handle returns the number of entries removed, or -1 when the message was skipped.
func (l *Listener) handle(payload string) int {
	var event domain.InvalidationEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn().Err(err).Str("channel", l.channel).Msg("Dropping malformed invalidation message")
		return -1
	}
	if event.Origin == l.instance {
		return -1
	}

	removed := l.apply(event)
	logger.Debug().
		Str("origin", event.Origin).
		Str("item_id", event.ItemID).
		Str("pincode", event.LocationCode).
		Int("removed", removed).
		Msg("Applied remote invalidation")
	return removed
}
