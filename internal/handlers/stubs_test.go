package handlers

import (
	"context"
	"errors"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/services"
)

type stubStoreService struct {
	createFn        func(ctx context.Context, cmd services.CreateStoreCommand) (domain.Store, error)
	getFn           func(ctx context.Context, storeID string) (domain.StoreAggregate, error)
	listFn          func(ctx context.Context, sellerID string) ([]domain.Store, error)
	submitFn        func(ctx context.Context, cmd services.SubmitStoreCommand) (domain.StoreAggregate, error)
	addProductFn    func(ctx context.Context, cmd services.AddProductCommand) (domain.Product, error)
	updateProductFn func(ctx context.Context, cmd services.UpdateProductCommand) (domain.Product, error)
	visibilityFn    func(ctx context.Context, cmd services.ProductVisibilityCommand) (domain.Product, error)
	withdrawFn      func(ctx context.Context, cmd services.WithdrawProductCommand) (domain.Product, error)
	uploadFn        func(ctx context.Context, cmd services.UploadProductImageCommand) (string, error)
}

func (s *stubStoreService) CreateStore(ctx context.Context, cmd services.CreateStoreCommand) (domain.Store, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Store{}, errors.New("not implemented")
}

func (s *stubStoreService) GetStore(ctx context.Context, storeID string) (domain.StoreAggregate, error) {
	if s.getFn != nil {
		return s.getFn(ctx, storeID)
	}
	return domain.StoreAggregate{}, errors.New("not implemented")
}

func (s *stubStoreService) ListStores(ctx context.Context, sellerID string) ([]domain.Store, error) {
	if s.listFn != nil {
		return s.listFn(ctx, sellerID)
	}
	return nil, nil
}

func (s *stubStoreService) SubmitStore(ctx context.Context, cmd services.SubmitStoreCommand) (domain.StoreAggregate, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, cmd)
	}
	return domain.StoreAggregate{}, errors.New("not implemented")
}

func (s *stubStoreService) AddProduct(ctx context.Context, cmd services.AddProductCommand) (domain.Product, error) {
	if s.addProductFn != nil {
		return s.addProductFn(ctx, cmd)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubStoreService) UpdateProduct(ctx context.Context, cmd services.UpdateProductCommand) (domain.Product, error) {
	if s.updateProductFn != nil {
		return s.updateProductFn(ctx, cmd)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubStoreService) SetProductVisibility(ctx context.Context, cmd services.ProductVisibilityCommand) (domain.Product, error) {
	if s.visibilityFn != nil {
		return s.visibilityFn(ctx, cmd)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubStoreService) WithdrawProduct(ctx context.Context, cmd services.WithdrawProductCommand) (domain.Product, error) {
	if s.withdrawFn != nil {
		return s.withdrawFn(ctx, cmd)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubStoreService) UploadProductImage(ctx context.Context, cmd services.UploadProductImageCommand) (string, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, cmd)
	}
	return "", errors.New("not implemented")
}

type stubCheckoutService struct {
	placeOrderFn    func(ctx context.Context, cmd services.PlaceOrderCommand) (services.OrderReceipt, error)
	registerBuyerFn func(ctx context.Context, cmd services.RegisterBuyerCommand) (domain.Buyer, error)
	getBuyerFn      func(ctx context.Context, buyerID string) (domain.Buyer, error)
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (services.OrderReceipt, error) {
	if s.placeOrderFn != nil {
		return s.placeOrderFn(ctx, cmd)
	}
	return services.OrderReceipt{}, errors.New("not implemented")
}

func (s *stubCheckoutService) RegisterBuyer(ctx context.Context, cmd services.RegisterBuyerCommand) (domain.Buyer, error) {
	if s.registerBuyerFn != nil {
		return s.registerBuyerFn(ctx, cmd)
	}
	return domain.Buyer{}, errors.New("not implemented")
}

func (s *stubCheckoutService) GetBuyer(ctx context.Context, buyerID string) (domain.Buyer, error) {
	if s.getBuyerFn != nil {
		return s.getBuyerFn(ctx, buyerID)
	}
	return domain.Buyer{}, errors.New("not implemented")
}

type stubModerationService struct {
	listStoresFn     func(ctx context.Context) ([]domain.StoreAggregate, error)
	listProductsFn   func(ctx context.Context) ([]domain.Product, error)
	approveStoreFn   func(ctx context.Context, cmd services.ReviewStoreCommand) (services.StoreReviewOutcome, error)
	rejectStoreFn    func(ctx context.Context, cmd services.ReviewStoreCommand) (services.StoreReviewOutcome, error)
	approveProductFn func(ctx context.Context, cmd services.ReviewProductCommand) (services.ProductReviewOutcome, error)
	rejectProductFn  func(ctx context.Context, cmd services.ReviewProductCommand) (services.ProductReviewOutcome, error)
	listRecordsFn        func(ctx context.Context, storeID string) ([]domain.ReviewRecord, error)
	listProductRecordsFn func(ctx context.Context, productID string) ([]domain.ReviewRecord, error)
}

func (s *stubModerationService) ListPendingStores(ctx context.Context) ([]domain.StoreAggregate, error) {
	if s.listStoresFn != nil {
		return s.listStoresFn(ctx)
	}
	return nil, nil
}

func (s *stubModerationService) ListPendingProducts(ctx context.Context) ([]domain.Product, error) {
	if s.listProductsFn != nil {
		return s.listProductsFn(ctx)
	}
	return nil, nil
}

func (s *stubModerationService) ApproveStore(ctx context.Context, cmd services.ReviewStoreCommand) (services.StoreReviewOutcome, error) {
	if s.approveStoreFn != nil {
		return s.approveStoreFn(ctx, cmd)
	}
	return services.StoreReviewOutcome{}, errors.New("not implemented")
}

func (s *stubModerationService) RejectStore(ctx context.Context, cmd services.ReviewStoreCommand) (services.StoreReviewOutcome, error) {
	if s.rejectStoreFn != nil {
		return s.rejectStoreFn(ctx, cmd)
	}
	return services.StoreReviewOutcome{}, errors.New("not implemented")
}

func (s *stubModerationService) ApproveProduct(ctx context.Context, cmd services.ReviewProductCommand) (services.ProductReviewOutcome, error) {
	if s.approveProductFn != nil {
		return s.approveProductFn(ctx, cmd)
	}
	return services.ProductReviewOutcome{}, errors.New("not implemented")
}

func (s *stubModerationService) RejectProduct(ctx context.Context, cmd services.ReviewProductCommand) (services.ProductReviewOutcome, error) {
	if s.rejectProductFn != nil {
		return s.rejectProductFn(ctx, cmd)
	}
	return services.ProductReviewOutcome{}, errors.New("not implemented")
}

func (s *stubModerationService) ListReviewRecords(ctx context.Context, storeID string) ([]domain.ReviewRecord, error) {
	if s.listRecordsFn != nil {
		return s.listRecordsFn(ctx, storeID)
	}
	return nil, nil
}

func (s *stubModerationService) ListProductReviewRecords(ctx context.Context, productID string) ([]domain.ReviewRecord, error) {
	if s.listProductRecordsFn != nil {
		return s.listProductRecordsFn(ctx, productID)
	}
	return nil, nil
}

type stubOrderService struct {
	getFn          func(ctx context.Context, orderID string) (domain.Order, error)
	listByBuyerFn  func(ctx context.Context, buyerID string) ([]domain.Order, error)
	listByStoreFn  func(ctx context.Context, storeID string) ([]domain.Order, error)
	updateStatusFn func(ctx context.Context, cmd services.UpdateOrderStatusCommand) (domain.Order, error)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) ListBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if s.listByBuyerFn != nil {
		return s.listByBuyerFn(ctx, buyerID)
	}
	return nil, nil
}

func (s *stubOrderService) ListStoreOrders(ctx context.Context, storeID string) ([]domain.Order, error) {
	if s.listByStoreFn != nil {
		return s.listByStoreFn(ctx, storeID)
	}
	return nil, nil
}

func (s *stubOrderService) UpdateOrderStatus(ctx context.Context, cmd services.UpdateOrderStatusCommand) (domain.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, cmd)
	}
	return domain.Order{}, errors.New("not implemented")
}

type stubCatalogService struct {
	storefrontFn func(ctx context.Context, storeID string) (services.Storefront, error)
	getProductFn func(ctx context.Context, productID string) (domain.Product, error)
}

func (s *stubCatalogService) Storefront(ctx context.Context, storeID string) (services.Storefront, error) {
	if s.storefrontFn != nil {
		return s.storefrontFn(ctx, storeID)
	}
	return services.Storefront{}, errors.New("not implemented")
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getProductFn != nil {
		return s.getProductFn(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

var (
	_ services.StoreService      = (*stubStoreService)(nil)
	_ services.CheckoutService   = (*stubCheckoutService)(nil)
	_ services.ModerationService = (*stubModerationService)(nil)
	_ services.OrderService      = (*stubOrderService)(nil)
	_ services.CatalogService    = (*stubCatalogService)(nil)
)
