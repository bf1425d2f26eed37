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
	eventStoreApproved   = "moderation.store.approved"
	eventStoreRejected   = "moderation.store.rejected"
	eventProductApproved = "moderation.product.approved"
	eventProductRejected = "moderation.product.rejected"
	eventStoreSuspended  = "moderation.store.suspended"
)

// DefaultRecoveryWindow is how long a suspended store waits before it becomes
// eligible for administrative recovery.
const DefaultRecoveryWindow = 7 * 24 * time.Hour

var (
	// ErrModerationInvalidInput signals the caller provided invalid arguments.
	ErrModerationInvalidInput = errors.New("moderation: invalid input")
	// ErrModerationStoreNotFound indicates the store could not be located.
	ErrModerationStoreNotFound = errors.New("moderation: store not found")
	// ErrModerationProductNotFound indicates the product could not be located.
	ErrModerationProductNotFound = errors.New("moderation: product not found")
	// ErrModerationInvalidState indicates the target's lifecycle state forbids the decision.
	ErrModerationInvalidState = errors.New("moderation: invalid state for decision")
	// ErrModerationStoreSuspended indicates the store is suspended and blocks the action.
	ErrModerationStoreSuspended = errors.New("moderation: store suspended")
	// ErrModerationNotAllowed indicates a cross-entity rule forbids the decision.
	ErrModerationNotAllowed = errors.New("moderation: not allowed")
)

// ModerationServiceDeps bundles the collaborators required to construct a moderation service.
type ModerationServiceDeps struct {
	Moderation repositories.ModerationRepository
	Stores     repositories.StoreRepository
	Products   repositories.ProductRepository
	Records    repositories.ReviewRecordRepository
	Events     ModerationEventPublisher
	// Recovery overrides the suspension recovery window; zero uses the default.
	Recovery    time.Duration
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type moderationService struct {
	moderation repositories.ModerationRepository
	stores     repositories.StoreRepository
	products   repositories.ProductRepository
	records    repositories.ReviewRecordRepository
	events     ModerationEventPublisher
	recovery   time.Duration
	clock      func() time.Time
	newID      func() string
	logger     func(context.Context, string, map[string]any)
}

// NewModerationService wires dependencies into a concrete ModerationService implementation.
func NewModerationService(deps ModerationServiceDeps) (ModerationService, error) {
	if deps.Moderation == nil {
		return nil, errors.New("moderation service: moderation repository is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("moderation service: store repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("moderation service: product repository is required")
	}
	if deps.Records == nil {
		return nil, errors.New("moderation service: review record repository is required")
	}

	recovery := deps.Recovery
	if recovery <= 0 {
		recovery = DefaultRecoveryWindow
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return "rev_" + ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &moderationService{
		moderation: deps.Moderation,
		stores:     deps.Stores,
		products:   deps.Products,
		records:    deps.Records,
		events:     deps.Events,
		recovery:   recovery,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *moderationService) ListPendingStores(ctx context.Context) ([]domain.StoreAggregate, error) {
	aggregates, err := s.stores.ListPendingReview(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return aggregates, nil
}

func (s *moderationService) ListPendingProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListPendingSecondWave(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return products, nil
}

func (s *moderationService) ApproveStore(ctx context.Context, cmd ReviewStoreCommand) (StoreReviewOutcome, error) {
	storeID, reviewerID, err := validateReviewInput(cmd.StoreID, cmd.ReviewerID)
	if err != nil {
		return StoreReviewOutcome{}, err
	}

	now := s.clock()
	result, err := s.moderation.ApproveStore(ctx, repositories.ReviewStoreRequest{
		StoreID:  storeID,
		Record:   s.newRecord(domain.ReviewTargetStore, storeID, storeID, reviewerID, domain.ReviewResultPass, cmd.Comment, now),
		Recovery: s.recovery,
		Now:      now,
	})
	if err != nil {
		return StoreReviewOutcome{}, s.mapRepositoryError(err)
	}

	s.emitStoreEvent(ctx, eventStoreApproved, result, reviewerID, domain.ReviewResultPass, now)
	return StoreReviewOutcome(result), nil
}

func (s *moderationService) RejectStore(ctx context.Context, cmd ReviewStoreCommand) (StoreReviewOutcome, error) {
	storeID, reviewerID, err := validateReviewInput(cmd.StoreID, cmd.ReviewerID)
	if err != nil {
		return StoreReviewOutcome{}, err
	}

	now := s.clock()
	result, err := s.moderation.RejectStore(ctx, repositories.ReviewStoreRequest{
		StoreID:  storeID,
		Record:   s.newRecord(domain.ReviewTargetStore, storeID, storeID, reviewerID, domain.ReviewResultFail, cmd.Comment, now),
		Recovery: s.recovery,
		Now:      now,
	})
	if err != nil {
		return StoreReviewOutcome{}, s.mapRepositoryError(err)
	}

	s.emitStoreEvent(ctx, eventStoreRejected, result, reviewerID, domain.ReviewResultFail, now)
	return StoreReviewOutcome(result), nil
}

func (s *moderationService) ApproveProduct(ctx context.Context, cmd ReviewProductCommand) (ProductReviewOutcome, error) {
	productID, reviewerID, err := validateReviewInput(cmd.ProductID, cmd.ReviewerID)
	if err != nil {
		return ProductReviewOutcome{}, err
	}

	now := s.clock()
	result, err := s.moderation.ApproveProduct(ctx, repositories.ReviewProductRequest{
		ProductID: productID,
		Record:    s.newRecord(domain.ReviewTargetProduct, productID, "", reviewerID, domain.ReviewResultPass, cmd.Comment, now),
		Recovery:  s.recovery,
		Now:       now,
	})
	if err != nil {
		return ProductReviewOutcome{}, s.mapRepositoryError(err)
	}

	s.emitProductEvent(ctx, eventProductApproved, result, reviewerID, domain.ReviewResultPass, now)
	return ProductReviewOutcome(result), nil
}

func (s *moderationService) RejectProduct(ctx context.Context, cmd ReviewProductCommand) (ProductReviewOutcome, error) {
	productID, reviewerID, err := validateReviewInput(cmd.ProductID, cmd.ReviewerID)
	if err != nil {
		return ProductReviewOutcome{}, err
	}

	now := s.clock()
	result, err := s.moderation.RejectProduct(ctx, repositories.ReviewProductRequest{
		ProductID: productID,
		Record:    s.newRecord(domain.ReviewTargetProduct, productID, "", reviewerID, domain.ReviewResultFail, cmd.Comment, now),
		Recovery:  s.recovery,
		Now:       now,
	})
	if err != nil {
		return ProductReviewOutcome{}, s.mapRepositoryError(err)
	}

	s.emitProductEvent(ctx, eventProductRejected, result, reviewerID, domain.ReviewResultFail, now)
	return ProductReviewOutcome(result), nil
}

func (s *moderationService) ListReviewRecords(ctx context.Context, storeID string) ([]domain.ReviewRecord, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, fmt.Errorf("%w: store id is required", ErrModerationInvalidInput)
	}
	records, err := s.records.ListByStore(ctx, storeID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return records, nil
}

func (s *moderationService) ListProductReviewRecords(ctx context.Context, productID string) ([]domain.ReviewRecord, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrModerationInvalidInput)
	}
	records, err := s.records.ListByTarget(ctx, domain.ReviewTargetProduct, productID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return records, nil
}

func (s *moderationService) newRecord(target domain.ReviewTarget, targetID, storeID, reviewerID string, result domain.ReviewResult, comment string, now time.Time) domain.ReviewRecord {
	return domain.ReviewRecord{
		ID:         s.newID(),
		Target:     target,
		TargetID:   targetID,
		StoreID:    storeID,
		ReviewerID: reviewerID,
		Result:     result,
		Comment:    strings.TrimSpace(comment),
		CreatedAt:  now,
	}
}

func (s *moderationService) emitStoreEvent(ctx context.Context, event string, result repositories.StoreModerationResult, reviewerID string, outcome domain.ReviewResult, now time.Time) {
	s.publish(ctx, ModerationEvent{
		Event:      event,
		Target:     string(domain.ReviewTargetStore),
		TargetID:   result.Store.ID,
		StoreID:    result.Store.ID,
		ReviewerID: reviewerID,
		Result:     string(outcome),
		Escalated:  result.Escalated,
		OccurredAt: now,
	})
	if result.Escalated {
		s.publish(ctx, ModerationEvent{
			Event:      eventStoreSuspended,
			Target:     string(domain.ReviewTargetStore),
			TargetID:   result.Store.ID,
			StoreID:    result.Store.ID,
			OccurredAt: now,
		})
	}
}

func (s *moderationService) emitProductEvent(ctx context.Context, event string, result repositories.ProductModerationResult, reviewerID string, outcome domain.ReviewResult, now time.Time) {
	s.publish(ctx, ModerationEvent{
		Event:      event,
		Target:     string(domain.ReviewTargetProduct),
		TargetID:   result.Product.ID,
		StoreID:    result.Store.ID,
		ReviewerID: reviewerID,
		Result:     string(outcome),
		Escalated:  result.Escalated,
		OccurredAt: now,
	})
	if result.Escalated {
		s.publish(ctx, ModerationEvent{
			Event:      eventStoreSuspended,
			Target:     string(domain.ReviewTargetStore),
			TargetID:   result.Store.ID,
			StoreID:    result.Store.ID,
			OccurredAt: now,
		})
	}
}

// publish is best effort; decisions are already committed when events fire.
func (s *moderationService) publish(ctx context.Context, event ModerationEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishModerationEvent(ctx, event); err != nil {
		s.logger(ctx, "moderation.event.publish_failed", map[string]any{
			"event": event.Event,
			"error": err.Error(),
		})
	}
}

func validateReviewInput(targetID, reviewerID string) (string, string, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return "", "", fmt.Errorf("%w: target id is required", ErrModerationInvalidInput)
	}
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return "", "", fmt.Errorf("%w: reviewer id is required", ErrModerationInvalidInput)
	}
	return targetID, reviewerID, nil
}

func (s *moderationService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var modErr *repositories.ModerationError
	if errors.As(err, &modErr) {
		switch modErr.Code {
		case repositories.ModerationErrorStoreNotFound:
			return fmt.Errorf("%w: %s", ErrModerationStoreNotFound, modErr.Message)
		case repositories.ModerationErrorProductNotFound:
			return fmt.Errorf("%w: %s", ErrModerationProductNotFound, modErr.Message)
		case repositories.ModerationErrorInvalidState:
			return fmt.Errorf("%w: %s", ErrModerationInvalidState, modErr.Message)
		case repositories.ModerationErrorSuspended:
			return fmt.Errorf("%w: %s", ErrModerationStoreSuspended, modErr.Message)
		case repositories.ModerationErrorNotAllowed:
			return fmt.Errorf("%w: %s", ErrModerationNotAllowed, modErr.Message)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", ErrModerationStoreNotFound, err.Error())
	}
	return err
}

var _ ModerationService = (*moderationService)(nil)
