package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/repositories"
)

const (
	eventOrderPlaced = "orders.placed"
)

var (
	// ErrCheckoutInvalidInput signals the caller provided invalid arguments.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrEmptyOrder indicates the order contains no valid lines.
	ErrEmptyOrder = errors.New("checkout: order is empty")
	// ErrStoreUnavailable indicates the store is missing or not open for orders.
	ErrStoreUnavailable = errors.New("checkout: store unavailable")
	// ErrProductUnavailable indicates a requested product cannot be purchased.
	ErrProductUnavailable = errors.New("checkout: product unavailable")
	// ErrInsufficientStock indicates a requested quantity exceeds stock on hand.
	ErrInsufficientStock = errors.New("checkout: insufficient stock")
	// ErrBuyerNotFound indicates no balance record exists for the buyer.
	ErrBuyerNotFound = errors.New("checkout: buyer not found")
	// ErrInsufficientFunds indicates the buyer balance is below the order total.
	ErrInsufficientFunds = errors.New("checkout: insufficient funds")
	// ErrBuyerExists indicates the buyer is already registered.
	ErrBuyerExists = errors.New("checkout: buyer already registered")
	// ErrConcurrencyConflict indicates the placement lost a concurrent update
	// race even after transaction retries. The request is safe to retry.
	ErrConcurrencyConflict = errors.New("checkout: concurrent update conflict")
)

// CheckoutServiceDeps bundles the collaborators required to construct a checkout service.
type CheckoutServiceDeps struct {
	Checkout    repositories.CheckoutRepository
	Buyers      repositories.BuyerRepository
	Events      OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	checkout repositories.CheckoutRepository
	buyers   repositories.BuyerRepository
	events   OrderEventPublisher
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCheckoutService wires dependencies into a concrete CheckoutService implementation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Checkout == nil {
		return nil, errors.New("checkout service: checkout repository is required")
	}
	if deps.Buyers == nil {
		return nil, errors.New("checkout service: buyer repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		checkout: deps.Checkout,
		buyers:   deps.Buyers,
		events:   deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// PlaceOrder merges duplicate lines, then delegates all stateful validation
// to the transactional repository. The empty-order check runs before any read
// so a request with no usable lines never touches the database.
func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (OrderReceipt, error) {
	buyerID := strings.TrimSpace(cmd.BuyerID)
	if buyerID == "" {
		return OrderReceipt{}, fmt.Errorf("%w: buyer id is required", ErrCheckoutInvalidInput)
	}
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return OrderReceipt{}, fmt.Errorf("%w: store id is required", ErrCheckoutInvalidInput)
	}
	if len(cmd.Lines) == 0 {
		return OrderReceipt{}, ErrEmptyOrder
	}

	raw := make([]domain.OrderLine, len(cmd.Lines))
	for i, line := range cmd.Lines {
		raw[i] = domain.OrderLine{
			ProductID: strings.TrimSpace(line.ProductID),
			Quantity:  line.Quantity,
		}
	}
	merged, err := domain.MergeOrderLines(raw)
	if err != nil {
		return OrderReceipt{}, fmt.Errorf("%w: %s", ErrCheckoutInvalidInput, err.Error())
	}
	if len(merged) == 0 {
		return OrderReceipt{}, ErrEmptyOrder
	}

	now := s.clock()
	result, err := s.checkout.PlaceOrder(ctx, repositories.PlaceOrderRequest{
		OrderID:  "ord_" + s.newID(),
		BuyerID:  buyerID,
		StoreID:  storeID,
		Lines:    merged,
		Shipping: trimShipping(cmd.Shipping),
		DetailID: func() string { return "odt_" + s.newID() },
		Now:      now,
	})
	if err != nil {
		return OrderReceipt{}, s.mapRepositoryError(err)
	}

	s.publish(ctx, OrderEvent{
		Event:       eventOrderPlaced,
		OrderID:     result.Order.ID,
		BuyerID:     result.Order.BuyerID,
		StoreID:     result.Order.StoreID,
		TotalAmount: result.Order.TotalAmount,
		Status:      string(result.Order.Status),
		OccurredAt:  now,
	})

	return OrderReceipt{Order: result.Order, Balance: result.Balance}, nil
}

func (s *checkoutService) RegisterBuyer(ctx context.Context, cmd RegisterBuyerCommand) (domain.Buyer, error) {
	buyerID := strings.TrimSpace(cmd.BuyerID)
	if buyerID == "" {
		return domain.Buyer{}, fmt.Errorf("%w: buyer id is required", ErrCheckoutInvalidInput)
	}
	if cmd.Balance < 0 {
		return domain.Buyer{}, fmt.Errorf("%w: balance must be >= 0", ErrCheckoutInvalidInput)
	}

	now := s.clock()
	buyer := domain.Buyer{
		ID:        buyerID,
		Balance:   cmd.Balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.buyers.Insert(ctx, buyer); err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			return domain.Buyer{}, fmt.Errorf("%w: %s", ErrBuyerExists, buyerID)
		}
		return domain.Buyer{}, err
	}
	return buyer, nil
}

func (s *checkoutService) GetBuyer(ctx context.Context, buyerID string) (domain.Buyer, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return domain.Buyer{}, fmt.Errorf("%w: buyer id is required", ErrCheckoutInvalidInput)
	}
	buyer, err := s.buyers.FindByID(ctx, buyerID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Buyer{}, fmt.Errorf("%w: %s", ErrBuyerNotFound, buyerID)
		}
		return domain.Buyer{}, err
	}
	return buyer, nil
}

func (s *checkoutService) publish(ctx context.Context, event OrderEvent) {
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

func (s *checkoutService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var checkoutErr *repositories.CheckoutError
	if errors.As(err, &checkoutErr) {
		switch checkoutErr.Code {
		case repositories.CheckoutErrorStoreUnavailable:
			return fmt.Errorf("%w: %s", ErrStoreUnavailable, checkoutErr.Message)
		case repositories.CheckoutErrorProductUnavailable:
			return fmt.Errorf("%w: %s", ErrProductUnavailable, checkoutErr.Message)
		case repositories.CheckoutErrorInsufficientStock:
			return fmt.Errorf("%w: %s", ErrInsufficientStock, checkoutErr.Message)
		case repositories.CheckoutErrorBuyerNotFound:
			return fmt.Errorf("%w: %s", ErrBuyerNotFound, checkoutErr.Message)
		case repositories.CheckoutErrorInsufficientFunds:
			return fmt.Errorf("%w: %s", ErrInsufficientFunds, checkoutErr.Message)
		case repositories.CheckoutErrorConflict:
			return fmt.Errorf("%w: %s", ErrConcurrencyConflict, checkoutErr.Message)
		}
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsConflict() {
		return fmt.Errorf("%w: %s", ErrConcurrencyConflict, err.Error())
	}
	return err
}

func trimShipping(info domain.ShippingInfo) domain.ShippingInfo {
	return domain.ShippingInfo{
		ReceiverName:  strings.TrimSpace(info.ReceiverName),
		ReceiverPhone: strings.TrimSpace(info.ReceiverPhone),
		Address:       strings.TrimSpace(info.Address),
	}
}

var _ CheckoutService = (*checkoutService)(nil)
