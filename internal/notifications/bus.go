package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/pkg/logger"
	"github.com/mvergara/caresched-backend/pkg/redis"
)

// ChangeBus carries per-recipient change signals over Redis pub/sub. Writers
// publish after a successful mutation; the stream broker listens and rebuilds
// snapshots. Signals carry no payload, only "something changed".
type ChangeBus struct {
	client *redis.Client
	logg   *logger.Logger
}

// NewChangeBus wires the bus to a shared Redis client.
func NewChangeBus(client *redis.Client, logg *logger.Logger) (*ChangeBus, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &ChangeBus{client: client, logg: logg}, nil
}

// SignalChanged publishes a change signal for the recipient's feed.
func (b *ChangeBus) SignalChanged(ctx context.Context, recipientID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return errors.New("recipient id required")
	}
	return b.client.Publish(ctx, b.client.ChangeFeedChannel(recipientID.String()), "1")
}

// Listen subscribes to the recipient's change signals. Ticks are coalesced:
// a burst of signals may surface as a single tick, which is enough because
// every tick triggers a full snapshot rebuild. The returned stop function
// releases the subscription and closes the channel.
func (b *ChangeBus) Listen(ctx context.Context, recipientID uuid.UUID) (<-chan struct{}, func(), error) {
	if recipientID == uuid.Nil {
		return nil, nil, errors.New("recipient id required")
	}

	sub, err := b.client.Subscribe(ctx, b.client.ChangeFeedChannel(recipientID.String()))
	if err != nil {
		return nil, nil, err
	}

	ticks := make(chan struct{}, 1)
	go func() {
		defer close(ticks)
		for range sub.Channel() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() {
		if err := sub.Close(); err != nil && b.logg != nil {
			logCtx := b.logg.WithField(context.Background(), "recipient_id", recipientID.String())
			b.logg.Warn(logCtx, "failed to close change feed subscription")
		}
	}
	return ticks, stop, nil
}
