package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/uniqmaker/api/internal/services"
)

// EventPublisher publishes catalog and quote lifecycle events to a Pub/Sub
// topic. Both event families share the events topic; consumers route on the
// "event" attribute.
type EventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewEventPublisher constructs a Pub/Sub backed event publisher.
func NewEventPublisher(topic *pubsub.Topic) (*EventPublisher, error) {
	if topic == nil {
		return nil, errors.New("event publisher: topic is required")
	}
	return &EventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

var (
	_ services.QuoteEventPublisher   = (*EventPublisher)(nil)
	_ services.CatalogEventPublisher = (*EventPublisher)(nil)
)

// PublishQuoteEvent enqueues a quote event message on the configured topic.
func (p *EventPublisher) PublishQuoteEvent(ctx context.Context, message services.QuoteEventMessage) error {
	if p == nil || p.topic == nil {
		return errors.New("event publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return fmt.Errorf("marshal quote event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "event", message.Event)
	setAttr(attrs, "quoteId", message.QuoteID)
	setAttr(attrs, "clientId", message.ClientID)

	return p.publish(ctx, data, attrs)
}

// PublishCatalogRefreshed enqueues a catalog refresh summary on the configured
// topic.
func (p *EventPublisher) PublishCatalogRefreshed(ctx context.Context, message services.CatalogRefreshMessage) error {
	if p == nil || p.topic == nil {
		return errors.New("event publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return fmt.Errorf("marshal catalog event: %w", err)
	}

	attrs := map[string]string{
		"event": "catalog.refreshed",
		"feeds": fmt.Sprintf("%d", len(message.Results)),
	}

	return p.publish(ctx, data, attrs)
}

func (p *EventPublisher) publish(ctx context.Context, data []byte, attrs map[string]string) error {
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
