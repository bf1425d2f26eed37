package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/marketfront/api/internal/services"
)

func TestPubSubModerationPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "moderation-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubModerationPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubModerationPublisher: %v", err)
	}

	occurredAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	event := services.ModerationEvent{
		Event:      "store.suspended",
		Target:     "store",
		TargetID:   "str_1",
		StoreID:    "str_1",
		ReviewerID: "admin-1",
		Result:     "fail",
		Escalated:  true,
		OccurredAt: occurredAt,
	}

	if err := publisher.PublishModerationEvent(ctx, event); err != nil {
		t.Fatalf("PublishModerationEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.ModerationEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Event != event.Event || payload.TargetID != event.TargetID || !payload.Escalated {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["event"]; attr != "store.suspended" {
		t.Fatalf("expected event attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["storeId"]; attr != "str_1" {
		t.Fatalf("expected store attribute, got %q", attr)
	}
}

func TestPubSubOrderPublisherSkipsEmptyAttributes(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderPublisher: %v", err)
	}

	event := services.OrderEvent{
		Event:       "order.placed",
		OrderID:     "ord_1",
		BuyerID:     "buyer-1",
		TotalAmount: 90000,
		Status:      "created",
	}

	if err := publisher.PublishOrderEvent(ctx, event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if attr := messages[0].Attributes["orderId"]; attr != "ord_1" {
		t.Fatalf("expected order attribute, got %q", attr)
	}
	if _, ok := messages[0].Attributes["storeId"]; ok {
		t.Fatalf("store attribute should not be present for empty store id")
	}
}

func TestNewPublishersRequireTopic(t *testing.T) {
	if _, err := NewPubSubModerationPublisher(nil); err == nil {
		t.Fatal("expected error for nil moderation topic")
	}
	if _, err := NewPubSubOrderPublisher(nil); err == nil {
		t.Fatal("expected error for nil order topic")
	}
}
