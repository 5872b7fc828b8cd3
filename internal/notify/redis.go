package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/fillblank/internal/model"
)

// DefaultChannel is the pub/sub channel game events are published on
const DefaultChannel = "games"

// Publisher publishes events on a Redis channel so every server instance hears about them
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher creates a new Publisher
func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

var _ Notifier = (*Publisher)(nil)

func (p *Publisher) Notify(ctx context.Context, event model.Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", event.Type, event.SessionID, err)
	}
	return nil
}

// Relay subscribes to the events channel and hands each event to a local notifier
type Relay struct {
	client  *redis.Client
	channel string
	target  Notifier
	logger  *slog.Logger
}

// NewRelay creates a new Relay
func NewRelay(client *redis.Client, channel string, target Notifier, logger *slog.Logger) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		target:  target,
		logger:  logger.With(slog.String("component", "notify-relay")),
	}
}

// Run forwards events until the context is cancelled
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting readiness
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("relay subscribed", slog.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := Decode([]byte(msg.Payload))
			if err != nil {
				r.logger.Warn("relay dropped malformed event", slog.String("error", err.Error()))
				continue
			}
			if err := r.target.Notify(ctx, event); err != nil {
				r.logger.Warn("relay delivery failed",
					slog.String("session_id", string(event.SessionID)),
					slog.String("error", err.Error()))
			}
		}
	}
}
