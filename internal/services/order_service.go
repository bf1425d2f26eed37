package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/repositories"
)

const (
	eventOrderStatusChanged = "orders.status_changed"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid arguments.
	ErrOrderInvalidInput = errors.New("orders: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("orders: order not found")
	// ErrOrderClosed indicates the order is terminal and rejects further changes.
	ErrOrderClosed = errors.New("orders: order closed")
	// ErrOrderInvalidStatus indicates the requested status is outside the closed set.
	ErrOrderInvalidStatus = errors.New("orders: invalid status")
)

// OrderServiceDeps bundles the collaborators required to construct an order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Events OrderEventPublisher
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	events OrderEventPublisher
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders: deps.Orders,
		events: deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is required", ErrOrderInvalidInput)
	}
	orders, err := s.orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) ListStoreOrders(ctx context.Context, storeID string) ([]domain.Order, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, fmt.Errorf("%w: store id is required", ErrOrderInvalidInput)
	}
	orders, err := s.orders.ListByStore(ctx, storeID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

// UpdateOrderStatus applies a transition within the closed status set.
// Cancelled and completed orders are terminal; any further change fails.
func (s *orderService) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	status, err := parseOrderStatus(cmd.Status)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	order, err := s.orders.UpdateStatus(ctx, repositories.OrderStatusUpdateRequest{
		OrderID: orderID,
		Status:  status,
		Now:     now,
	})
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.publish(ctx, OrderEvent{
		Event:       eventOrderStatusChanged,
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		StoreID:     order.StoreID,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		OccurredAt:  now,
	})
	return order, nil
}

func (s *orderService) publish(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "orders.event.publish_failed", map[string]any{
			"event": event.Event,
			"error": err.Error(),
		})
	}
}

func parseOrderStatus(raw string) (domain.OrderStatus, error) {
	status := domain.OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case domain.OrderStatusCreated, domain.OrderStatusPaid, domain.OrderStatusCancelled, domain.OrderStatusCompleted:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrOrderInvalidStatus, raw)
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrOrderClosed) {
		return fmt.Errorf("%w: %s", ErrOrderClosed, err.Error())
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		return fmt.Errorf("%w: %s", ErrOrderInvalidStatus, err.Error())
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, err.Error())
	}
	return err
}

var _ OrderService = (*orderService)(nil)
