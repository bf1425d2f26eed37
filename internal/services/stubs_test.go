package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/repositories"
)

type stubStoreRepo struct {
	insertFn        func(ctx context.Context, store domain.Store) error
	findFn          func(ctx context.Context, storeID string) (domain.Store, error)
	findAggregateFn func(ctx context.Context, storeID string) (domain.StoreAggregate, error)
	listBySellerFn  func(ctx context.Context, sellerID string) ([]domain.Store, error)
	listPendingFn   func(ctx context.Context) ([]domain.StoreAggregate, error)
}

func (s *stubStoreRepo) Insert(ctx context.Context, store domain.Store) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, store)
	}
	return nil
}

func (s *stubStoreRepo) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	if s.findFn != nil {
		return s.findFn(ctx, storeID)
	}
	return domain.Store{}, errors.New("not implemented")
}

func (s *stubStoreRepo) FindAggregate(ctx context.Context, storeID string) (domain.StoreAggregate, error) {
	if s.findAggregateFn != nil {
		return s.findAggregateFn(ctx, storeID)
	}
	return domain.StoreAggregate{}, errors.New("not implemented")
}

func (s *stubStoreRepo) ListBySeller(ctx context.Context, sellerID string) ([]domain.Store, error) {
	if s.listBySellerFn != nil {
		return s.listBySellerFn(ctx, sellerID)
	}
	return nil, nil
}

func (s *stubStoreRepo) ListPendingReview(ctx context.Context) ([]domain.StoreAggregate, error) {
	if s.listPendingFn != nil {
		return s.listPendingFn(ctx)
	}
	return nil, nil
}

type stubProductRepo struct {
	insertFn        func(ctx context.Context, product domain.Product) error
	findFn          func(ctx context.Context, productID string) (domain.Product, error)
	listByStoreFn   func(ctx context.Context, storeID string) ([]domain.Product, error)
	listPendingFn   func(ctx context.Context) ([]domain.Product, error)
	applyUpdateFn   func(ctx context.Context, req repositories.ProductUpdateRequest) (domain.Product, error)
	setVisibilityFn func(ctx context.Context, req repositories.ProductVisibilityRequest) (domain.Product, error)
	withdrawFn      func(ctx context.Context, productID string, now time.Time) (domain.Product, error)
}

func (s *stubProductRepo) Insert(ctx context.Context, product domain.Product) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findFn != nil {
		return s.findFn(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubProductRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	if s.listByStoreFn != nil {
		return s.listByStoreFn(ctx, storeID)
	}
	return nil, nil
}

func (s *stubProductRepo) ListPendingSecondWave(ctx context.Context) ([]domain.Product, error) {
	if s.listPendingFn != nil {
		return s.listPendingFn(ctx)
	}
	return nil, nil
}

func (s *stubProductRepo) ApplyUpdate(ctx context.Context, req repositories.ProductUpdateRequest) (domain.Product, error) {
	if s.applyUpdateFn != nil {
		return s.applyUpdateFn(ctx, req)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubProductRepo) SetVisibility(ctx context.Context, req repositories.ProductVisibilityRequest) (domain.Product, error) {
	if s.setVisibilityFn != nil {
		return s.setVisibilityFn(ctx, req)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubProductRepo) Withdraw(ctx context.Context, productID string, now time.Time) (domain.Product, error) {
	if s.withdrawFn != nil {
		return s.withdrawFn(ctx, productID, now)
	}
	return domain.Product{}, errors.New("not implemented")
}

type stubModerationRepo struct {
	submitStoreFn    func(ctx context.Context, req repositories.SubmitStoreRequest) (repositories.StoreModerationResult, error)
	approveStoreFn   func(ctx context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error)
	rejectStoreFn    func(ctx context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error)
	approveProductFn func(ctx context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error)
	rejectProductFn  func(ctx context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error)
}

func (s *stubModerationRepo) SubmitStore(ctx context.Context, req repositories.SubmitStoreRequest) (repositories.StoreModerationResult, error) {
	if s.submitStoreFn != nil {
		return s.submitStoreFn(ctx, req)
	}
	return repositories.StoreModerationResult{}, errors.New("not implemented")
}

func (s *stubModerationRepo) ApproveStore(ctx context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
	if s.approveStoreFn != nil {
		return s.approveStoreFn(ctx, req)
	}
	return repositories.StoreModerationResult{}, errors.New("not implemented")
}

func (s *stubModerationRepo) RejectStore(ctx context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
	if s.rejectStoreFn != nil {
		return s.rejectStoreFn(ctx, req)
	}
	return repositories.StoreModerationResult{}, errors.New("not implemented")
}

func (s *stubModerationRepo) ApproveProduct(ctx context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error) {
	if s.approveProductFn != nil {
		return s.approveProductFn(ctx, req)
	}
	return repositories.ProductModerationResult{}, errors.New("not implemented")
}

func (s *stubModerationRepo) RejectProduct(ctx context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error) {
	if s.rejectProductFn != nil {
		return s.rejectProductFn(ctx, req)
	}
	return repositories.ProductModerationResult{}, errors.New("not implemented")
}

type stubRecordRepo struct {
	listByTargetFn func(ctx context.Context, target domain.ReviewTarget, targetID string) ([]domain.ReviewRecord, error)
	listByStoreFn  func(ctx context.Context, storeID string) ([]domain.ReviewRecord, error)
}

func (s *stubRecordRepo) ListByTarget(ctx context.Context, target domain.ReviewTarget, targetID string) ([]domain.ReviewRecord, error) {
	if s.listByTargetFn != nil {
		return s.listByTargetFn(ctx, target, targetID)
	}
	return nil, nil
}

func (s *stubRecordRepo) ListByStore(ctx context.Context, storeID string) ([]domain.ReviewRecord, error) {
	if s.listByStoreFn != nil {
		return s.listByStoreFn(ctx, storeID)
	}
	return nil, nil
}

type stubCheckoutRepo struct {
	placeOrderFn func(ctx context.Context, req repositories.PlaceOrderRequest) (repositories.PlaceOrderResult, error)
}

func (s *stubCheckoutRepo) PlaceOrder(ctx context.Context, req repositories.PlaceOrderRequest) (repositories.PlaceOrderResult, error) {
	if s.placeOrderFn != nil {
		return s.placeOrderFn(ctx, req)
	}
	return repositories.PlaceOrderResult{}, errors.New("not implemented")
}

type stubBuyerRepo struct {
	insertFn func(ctx context.Context, buyer domain.Buyer) error
	findFn   func(ctx context.Context, buyerID string) (domain.Buyer, error)
}

func (s *stubBuyerRepo) Insert(ctx context.Context, buyer domain.Buyer) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, buyer)
	}
	return nil
}

func (s *stubBuyerRepo) FindByID(ctx context.Context, buyerID string) (domain.Buyer, error) {
	if s.findFn != nil {
		return s.findFn(ctx, buyerID)
	}
	return domain.Buyer{}, errors.New("not implemented")
}

type stubOrderRepo struct {
	findFn         func(ctx context.Context, orderID string) (domain.Order, error)
	listByBuyerFn  func(ctx context.Context, buyerID string) ([]domain.Order, error)
	listByStoreFn  func(ctx context.Context, storeID string) ([]domain.Order, error)
	updateStatusFn func(ctx context.Context, req repositories.OrderStatusUpdateRequest) (domain.Order, error)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if s.listByBuyerFn != nil {
		return s.listByBuyerFn(ctx, buyerID)
	}
	return nil, nil
}

func (s *stubOrderRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Order, error) {
	if s.listByStoreFn != nil {
		return s.listByStoreFn(ctx, storeID)
	}
	return nil, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, req repositories.OrderStatusUpdateRequest) (domain.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, req)
	}
	return domain.Order{}, errors.New("not implemented")
}

type captureModerationEvents struct {
	events []ModerationEvent
	err    error
}

func (c *captureModerationEvents) PublishModerationEvent(_ context.Context, event ModerationEvent) error {
	c.events = append(c.events, event)
	return c.err
}

type captureOrderEvents struct {
	events []OrderEvent
	err    error
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return c.err
}

type stubImageStore struct {
	saveFn   func(ctx context.Context, path string, data []byte, contentType string) (string, error)
	deleteFn func(ctx context.Context, path string) error
}

func (s *stubImageStore) Save(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, path, data, contentType)
	}
	return path, nil
}

func (s *stubImageStore) Delete(ctx context.Context, path string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, path)
	}
	return nil
}

// notFoundError mimics the persistence layer's not-found classification.
type notFoundError struct{ msg string }

func (e notFoundError) Error() string       { return e.msg }
func (e notFoundError) IsNotFound() bool    { return true }
func (e notFoundError) IsConflict() bool    { return false }
func (e notFoundError) IsUnavailable() bool { return false }

// conflictError mimics the persistence layer's already-exists classification.
type conflictError struct{ msg string }

func (e conflictError) Error() string       { return e.msg }
func (e conflictError) IsNotFound() bool    { return false }
func (e conflictError) IsConflict() bool    { return true }
func (e conflictError) IsUnavailable() bool { return false }
