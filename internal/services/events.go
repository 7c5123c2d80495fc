package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Routing keys of the domain events.
const (
	EventUserRegistered   = "user.registered"
	EventWatchlistUpdated = "watchlist.updated"
	EventHoldingUpdated   = "holding.updated"
)

// EventPublisher publishes a message to an exchange. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Cache is a JSON read-through cache. *cache.RedisCache satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	SetJSONIfAbsent(ctx context.Context, key string, value any) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Event is the envelope published for every state change.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// notifier publishes events and maintains the read cache on behalf of a
// service. Both collaborators are optional; failures are logged, never
// returned, because the write they describe has already succeeded.
type notifier struct {
	publisher EventPublisher
	exchange  string
	cache     Cache
	log       zerolog.Logger
}

func (n *notifier) publish(eventType, key string, data any) {
	if n.publisher == nil {
		return
	}
	body, err := json.Marshal(Event{Type: eventType, Key: key, Data: data, OccurredAt: time.Now().UTC()})
	if err != nil {
		n.log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event")
		return
	}
	if err := n.publisher.Publish(n.exchange, eventType, body); err != nil {
		n.log.Warn().Err(err).Str("event", eventType).Str("key", key).Msg("failed to publish event")
	}
}

func (n *notifier) cached(ctx context.Context, key string, dst any) bool {
	if n.cache == nil {
		return false
	}
	hit, err := n.cache.GetJSON(ctx, key, dst)
	if err != nil {
		n.log.Warn().Err(err).Str("cache_key", key).Msg("cache read failed")
		return false
	}
	return hit
}

// fill caches a document loaded by a read. It never overwrites an entry, so a
// reader that loaded before a concurrent write cannot replace the newer copy.
func (n *notifier) fill(ctx context.Context, key string, value any) {
	if n.cache == nil {
		return
	}
	if _, err := n.cache.SetJSONIfAbsent(ctx, key, value); err != nil {
		n.log.Warn().Err(err).Str("cache_key", key).Msg("cache write failed")
	}
}

// store writes the document a mutation just committed. If the write fails the
// entry is dropped so readers go back to the store.
func (n *notifier) store(ctx context.Context, key string, value any) {
	if n.cache == nil {
		return
	}
	if err := n.cache.SetJSON(ctx, key, value); err != nil {
		n.log.Warn().Err(err).Str("cache_key", key).Msg("cache write failed")
		n.forget(ctx, key)
	}
}

func (n *notifier) forget(ctx context.Context, key string) {
	if n.cache == nil {
		return
	}
	if err := n.cache.Delete(ctx, key); err != nil {
		n.log.Warn().Err(err).Str("cache_key", key).Msg("cache invalidation failed")
	}
}
