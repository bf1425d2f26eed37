package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/repositories"
)

var (
	// ErrStoreInvalidInput signals the caller provided invalid arguments.
	ErrStoreInvalidInput = errors.New("stores: invalid input")
	// ErrStoreNotFound indicates the store could not be located.
	ErrStoreNotFound = errors.New("stores: store not found")
	// ErrProductNotFound indicates the product could not be located.
	ErrProductNotFound = errors.New("stores: product not found")
	// ErrStoreForbidden indicates the caller does not own the store.
	ErrStoreForbidden = errors.New("stores: seller does not own store")
	// ErrStoreSuspendedAction indicates the store is suspended and blocks seller actions.
	ErrStoreSuspendedAction = errors.New("stores: store suspended")
	// ErrStoreInvalidState indicates the lifecycle state forbids the action.
	ErrStoreInvalidState = errors.New("stores: invalid state")
	// ErrStoreEmptyCatalog indicates a submission with no products.
	ErrStoreEmptyCatalog = errors.New("stores: store has no products")
	// ErrProductActionNotAllowed indicates a cross-entity rule forbids the action.
	ErrProductActionNotAllowed = errors.New("stores: action not allowed")
)

// StoreServiceDeps bundles the collaborators required to construct a store service.
type StoreServiceDeps struct {
	Stores     repositories.StoreRepository
	Products   repositories.ProductRepository
	Moderation repositories.ModerationRepository
	Images     ImageStore
	Clock      func() time.Time
	// StoreIDGenerator and ProductIDGenerator mint prefixed document ids.
	StoreIDGenerator   func() string
	ProductIDGenerator func() string
	Logger             func(ctx context.Context, event string, fields map[string]any)
}

type storeService struct {
	stores     repositories.StoreRepository
	products   repositories.ProductRepository
	moderation repositories.ModerationRepository
	images     ImageStore
	clock      func() time.Time
	newStoreID func() string
	newProdID  func() string
	logger     func(context.Context, string, map[string]any)

	namePolicy *bluemonday.Policy
	descPolicy *bluemonday.Policy
}

// NewStoreService wires dependencies into a concrete StoreService implementation.
func NewStoreService(deps StoreServiceDeps) (StoreService, error) {
	if deps.Stores == nil {
		return nil, errors.New("store service: store repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("store service: product repository is required")
	}
	if deps.Moderation == nil {
		return nil, errors.New("store service: moderation repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	storeID := deps.StoreIDGenerator
	if storeID == nil {
		storeID = func() string {
			return "str_" + ulid.Make().String()
		}
	}
	prodID := deps.ProductIDGenerator
	if prodID == nil {
		prodID = func() string {
			return "prd_" + ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &storeService{
		stores:     deps.Stores,
		products:   deps.Products,
		moderation: deps.Moderation,
		images:     deps.Images,
		clock: func() time.Time {
			return clock().UTC()
		},
		newStoreID: storeID,
		newProdID:  prodID,
		logger:     logger,
		namePolicy: bluemonday.StrictPolicy(),
		descPolicy: bluemonday.UGCPolicy(),
	}, nil
}

func (s *storeService) CreateStore(ctx context.Context, cmd CreateStoreCommand) (domain.Store, error) {
	sellerID := strings.TrimSpace(cmd.SellerID)
	if sellerID == "" {
		return domain.Store{}, fmt.Errorf("%w: seller id is required", ErrStoreInvalidInput)
	}
	name := s.cleanName(cmd.Name)
	if name == "" {
		return domain.Store{}, fmt.Errorf("%w: store name is required", ErrStoreInvalidInput)
	}

	now := s.clock()
	store := domain.Store{
		ID:          s.newStoreID(),
		SellerID:    sellerID,
		Name:        name,
		Description: s.cleanDescription(cmd.Description),
		Status:      domain.StoreStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.stores.Insert(ctx, store); err != nil {
		return domain.Store{}, s.mapRepositoryError(err)
	}
	s.logger(ctx, "stores.created", map[string]any{
		"storeId":  store.ID,
		"sellerId": sellerID,
	})
	return store, nil
}

func (s *storeService) GetStore(ctx context.Context, storeID string) (domain.StoreAggregate, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return domain.StoreAggregate{}, fmt.Errorf("%w: store id is required", ErrStoreInvalidInput)
	}
	agg, err := s.stores.FindAggregate(ctx, storeID)
	if err != nil {
		return domain.StoreAggregate{}, s.mapRepositoryError(err)
	}
	return agg, nil
}

func (s *storeService) ListStores(ctx context.Context, sellerID string) ([]domain.Store, error) {
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" {
		return nil, fmt.Errorf("%w: seller id is required", ErrStoreInvalidInput)
	}
	stores, err := s.stores.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return stores, nil
}

// SubmitStore moves a draft or rejected store into review and cascades the
// submission to its draft products.
func (s *storeService) SubmitStore(ctx context.Context, cmd SubmitStoreCommand) (domain.StoreAggregate, error) {
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return domain.StoreAggregate{}, fmt.Errorf("%w: store id is required", ErrStoreInvalidInput)
	}
	if err := s.authorize(ctx, storeID, cmd.SellerID); err != nil {
		return domain.StoreAggregate{}, err
	}

	result, err := s.moderation.SubmitStore(ctx, repositories.SubmitStoreRequest{
		StoreID: storeID,
		Now:     s.clock(),
	})
	if err != nil {
		return domain.StoreAggregate{}, s.mapRepositoryError(err)
	}
	s.logger(ctx, "stores.submitted", map[string]any{
		"storeId":  storeID,
		"products": len(result.Products),
	})
	return domain.StoreAggregate{Store: result.Store, Products: result.Products}, nil
}

// AddProduct creates a catalog entry. On a store that has not yet been
// published the product starts as a draft and rides along with the next store
// submission; on a published store it goes straight into individual review.
func (s *storeService) AddProduct(ctx context.Context, cmd AddProductCommand) (domain.Product, error) {
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return domain.Product{}, fmt.Errorf("%w: store id is required", ErrStoreInvalidInput)
	}
	name := s.cleanName(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrStoreInvalidInput)
	}
	if cmd.Price < 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be >= 0", ErrStoreInvalidInput)
	}
	if cmd.Quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity must be >= 0", ErrStoreInvalidInput)
	}

	store, err := s.ownedStore(ctx, storeID, cmd.SellerID)
	if err != nil {
		return domain.Product{}, err
	}
	// First-wave products ride along with a draft store's submission; once the
	// store is published new listings go straight to review. A store stuck in
	// review or rejected cannot grow its catalogue until moderation settles.
	var status domain.ProductStatus
	switch store.Status {
	case domain.StoreStatusSuspended:
		return domain.Product{}, fmt.Errorf("%w: %s", ErrStoreSuspendedAction, storeID)
	case domain.StoreStatusDraft:
		status = domain.ProductStatusDraft
	case domain.StoreStatusPublished:
		status = domain.ProductStatusPendingReview
	default:
		return domain.Product{}, fmt.Errorf("%w: store %s cannot accept products while %s", ErrStoreInvalidState, storeID, store.Status)
	}

	now := s.clock()
	product := domain.Product{
		ID:          s.newProdID(),
		StoreID:     storeID,
		Name:        name,
		Description: s.cleanDescription(cmd.Description),
		Price:       cmd.Price,
		Quantity:    cmd.Quantity,
		Location:    strings.TrimSpace(cmd.Location),
		ImagePath:   strings.TrimSpace(cmd.ImagePath),
		EndDate:     cmd.EndDate,
		Status:      status,
		IsActive:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

func (s *storeService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrStoreInvalidInput)
	}
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return domain.Product{}, fmt.Errorf("%w: store id is required", ErrStoreInvalidInput)
	}
	if err := s.authorize(ctx, storeID, cmd.SellerID); err != nil {
		return domain.Product{}, err
	}

	upd := domain.ProductUpdate{
		Price:    cmd.Price,
		Quantity: cmd.Quantity,
		EndDate:  cmd.EndDate,
	}
	if cmd.Name != nil {
		name := s.cleanName(*cmd.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: product name cannot be empty", ErrStoreInvalidInput)
		}
		upd.Name = &name
	}
	if cmd.Description != nil {
		desc := s.cleanDescription(*cmd.Description)
		upd.Description = &desc
	}
	if cmd.Location != nil {
		loc := strings.TrimSpace(*cmd.Location)
		upd.Location = &loc
	}
	if cmd.ImagePath != nil {
		img := strings.TrimSpace(*cmd.ImagePath)
		upd.ImagePath = &img
	}
	if cmd.Price != nil && *cmd.Price < 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be >= 0", ErrStoreInvalidInput)
	}
	if cmd.Quantity != nil && *cmd.Quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity must be >= 0", ErrStoreInvalidInput)
	}

	// Remember the image being replaced so the object can be reaped once the
	// product row commits with the new path.
	var previousImage string
	if upd.ImagePath != nil {
		current, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return domain.Product{}, s.mapRepositoryError(err)
		}
		previousImage = current.ImagePath
	}

	product, err := s.products.ApplyUpdate(ctx, repositories.ProductUpdateRequest{
		ProductID: productID,
		StoreID:   storeID,
		Update:    upd,
		Now:       s.clock(),
	})
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	s.cleanupReplacedImage(ctx, productID, previousImage, product.ImagePath)
	return product, nil
}

// cleanupReplacedImage deletes the superseded object best effort. The update
// already committed, so a failed delete only leaves an orphan behind.
func (s *storeService) cleanupReplacedImage(ctx context.Context, productID, oldPath, newPath string) {
	if s.images == nil || oldPath == "" || oldPath == newPath {
		return
	}
	if err := s.images.Delete(ctx, oldPath); err != nil {
		s.logger(ctx, "stores.image.cleanup_failed", map[string]any{
			"productId": productID,
			"path":      oldPath,
			"error":     err.Error(),
		})
	}
}

func (s *storeService) SetProductVisibility(ctx context.Context, cmd ProductVisibilityCommand) (domain.Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrStoreInvalidInput)
	}
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return domain.Product{}, fmt.Errorf("%w: store id is required", ErrStoreInvalidInput)
	}
	if err := s.authorize(ctx, storeID, cmd.SellerID); err != nil {
		return domain.Product{}, err
	}

	product, err := s.products.SetVisibility(ctx, repositories.ProductVisibilityRequest{
		ProductID: productID,
		StoreID:   storeID,
		Active:    cmd.Active,
		Now:       s.clock(),
	})
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

func (s *storeService) WithdrawProduct(ctx context.Context, cmd WithdrawProductCommand) (domain.Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrStoreInvalidInput)
	}
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return domain.Product{}, fmt.Errorf("%w: store id is required", ErrStoreInvalidInput)
	}
	if err := s.authorize(ctx, storeID, cmd.SellerID); err != nil {
		return domain.Product{}, err
	}

	product, err := s.products.Withdraw(ctx, productID, s.clock())
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

// UploadProductImage stores image bytes under the store's prefix and returns
// the object path recorded on the product.
func (s *storeService) UploadProductImage(ctx context.Context, cmd UploadProductImageCommand) (string, error) {
	if s.images == nil {
		return "", errors.New("store service: image store is not configured")
	}
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return "", fmt.Errorf("%w: store id is required", ErrStoreInvalidInput)
	}
	if len(cmd.Data) == 0 {
		return "", fmt.Errorf("%w: image data is required", ErrStoreInvalidInput)
	}

	name := strings.TrimSpace(cmd.Filename)
	if name == "" {
		name = "image"
	}
	objectPath := path.Join("stores", storeID, "products", ulid.Make().String()+path.Ext(name))
	stored, err := s.images.Save(ctx, objectPath, cmd.Data, cmd.ContentType)
	if err != nil {
		return "", fmt.Errorf("stores: upload image: %w", err)
	}
	return stored, nil
}

// ownedStore loads the store and verifies ownership when a seller id is given.
func (s *storeService) ownedStore(ctx context.Context, storeID, sellerID string) (domain.Store, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return domain.Store{}, s.mapRepositoryError(err)
	}
	sellerID = strings.TrimSpace(sellerID)
	if sellerID != "" && store.SellerID != sellerID {
		return domain.Store{}, fmt.Errorf("%w: %s", ErrStoreForbidden, storeID)
	}
	return store, nil
}

func (s *storeService) authorize(ctx context.Context, storeID, sellerID string) error {
	_, err := s.ownedStore(ctx, storeID, sellerID)
	return err
}

func (s *storeService) cleanName(raw string) string {
	return strings.TrimSpace(s.namePolicy.Sanitize(raw))
}

func (s *storeService) cleanDescription(raw string) string {
	return strings.TrimSpace(s.descPolicy.Sanitize(raw))
}

func (s *storeService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var modErr *repositories.ModerationError
	if errors.As(err, &modErr) {
		switch modErr.Code {
		case repositories.ModerationErrorStoreNotFound:
			return fmt.Errorf("%w: %s", ErrStoreNotFound, modErr.Message)
		case repositories.ModerationErrorProductNotFound:
			return fmt.Errorf("%w: %s", ErrProductNotFound, modErr.Message)
		case repositories.ModerationErrorInvalidState:
			return fmt.Errorf("%w: %s", ErrStoreInvalidState, modErr.Message)
		case repositories.ModerationErrorEmptyCatalog:
			return fmt.Errorf("%w: %s", ErrStoreEmptyCatalog, modErr.Message)
		case repositories.ModerationErrorSuspended:
			return fmt.Errorf("%w: %s", ErrStoreSuspendedAction, modErr.Message)
		case repositories.ModerationErrorNotAllowed:
			return fmt.Errorf("%w: %s", ErrProductActionNotAllowed, modErr.Message)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, err.Error())
	}
	return err
}

var _ StoreService = (*storeService)(nil)
