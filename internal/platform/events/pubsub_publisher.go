// Package events publishes domain notifications to Pub/Sub topics.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/marketfront/api/internal/services"
)

// PubSubModerationPublisher publishes moderation decisions to a Pub/Sub topic.
type PubSubModerationPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubModerationPublisher constructs a Pub/Sub backed moderation publisher.
func NewPubSubModerationPublisher(topic *pubsub.Topic) (*PubSubModerationPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub moderation publisher: topic is required")
	}
	return &PubSubModerationPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishModerationEvent enqueues a moderation notification on the configured topic.
func (p *PubSubModerationPublisher) PublishModerationEvent(ctx context.Context, event services.ModerationEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub moderation publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal moderation event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "event", event.Event)
	setAttr(attrs, "target", event.Target)
	setAttr(attrs, "targetId", event.TargetID)
	setAttr(attrs, "storeId", event.StoreID)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish moderation event: %w", err)
	}
	return nil
}

// PubSubOrderPublisher publishes order lifecycle notifications to a Pub/Sub topic.
type PubSubOrderPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderPublisher constructs a Pub/Sub backed order publisher.
func NewPubSubOrderPublisher(topic *pubsub.Topic) (*PubSubOrderPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	return &PubSubOrderPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderEvent enqueues an order notification on the configured topic.
func (p *PubSubOrderPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "event", event.Event)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "storeId", event.StoreID)
	setAttr(attrs, "buyerId", event.BuyerID)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

var (
	_ services.ModerationEventPublisher = (*PubSubModerationPublisher)(nil)
	_ services.OrderEventPublisher      = (*PubSubOrderPublisher)(nil)
)
