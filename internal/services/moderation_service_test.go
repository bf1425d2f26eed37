package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/repositories"
)

func newModerationServiceForTest(t *testing.T, repo *stubModerationRepo, events *captureModerationEvents, now time.Time) ModerationService {
	t.Helper()
	svc, err := NewModerationService(ModerationServiceDeps{
		Moderation:  repo,
		Stores:      &stubStoreRepo{},
		Products:    &stubProductRepo{},
		Records:     &stubRecordRepo{},
		Events:      events,
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "rev_test" },
	})
	if err != nil {
		t.Fatalf("new moderation service: %v", err)
	}
	return svc
}

func TestModerationServiceApproveStoreBuildsRecordAndEmitsEvent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubModerationRepo{}
	events := &captureModerationEvents{}
	repo.approveStoreFn = func(_ context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
		if req.StoreID != "str_1" {
			t.Fatalf("unexpected store id %s", req.StoreID)
		}
		rec := req.Record
		if rec.ID != "rev_test" || rec.Target != domain.ReviewTargetStore || rec.TargetID != "str_1" {
			t.Fatalf("unexpected record %+v", rec)
		}
		if rec.ReviewerID != "admin-1" || rec.Result != domain.ReviewResultPass {
			t.Fatalf("unexpected record %+v", rec)
		}
		if rec.Comment != "looks good" {
			t.Fatalf("expected trimmed comment, got %q", rec.Comment)
		}
		return repositories.StoreModerationResult{
			Store: domain.Store{ID: "str_1", Status: domain.StoreStatusPublished},
			Products: []domain.Product{
				{ID: "prd_1", Status: domain.ProductStatusPublished},
			},
		}, nil
	}

	svc := newModerationServiceForTest(t, repo, events, now)
	outcome, err := svc.ApproveStore(context.Background(), ReviewStoreCommand{
		StoreID:    " str_1 ",
		ReviewerID: "admin-1",
		Comment:    "  looks good  ",
	})
	if err != nil {
		t.Fatalf("approve store: %v", err)
	}
	if outcome.Store.Status != domain.StoreStatusPublished {
		t.Fatalf("expected published store, got %s", outcome.Store.Status)
	}
	if len(outcome.Products) != 1 || outcome.Products[0].Status != domain.ProductStatusPublished {
		t.Fatalf("expected cascaded product, got %+v", outcome.Products)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(events.events))
	}
	event := events.events[0]
	if event.Event != eventStoreApproved || event.StoreID != "str_1" || event.Result != "pass" {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.OccurredAt.Equal(now) {
		t.Fatalf("unexpected event time %s", event.OccurredAt)
	}
}

func TestModerationServiceRejectStoreEscalationEmitsSuspendedEvent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	recoverAt := now.Add(DefaultRecoveryWindow)
	repo := &stubModerationRepo{}
	events := &captureModerationEvents{}
	repo.rejectStoreFn = func(_ context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
		if req.Recovery != DefaultRecoveryWindow {
			t.Fatalf("expected default recovery window, got %s", req.Recovery)
		}
		return repositories.StoreModerationResult{
			Store: domain.Store{
				ID:              "str_1",
				Status:          domain.StoreStatusSuspended,
				ReviewFailCount: 5,
				RecoverAt:       &recoverAt,
			},
			Escalated: true,
		}, nil
	}

	svc := newModerationServiceForTest(t, repo, events, now)
	outcome, err := svc.RejectStore(context.Background(), ReviewStoreCommand{
		StoreID:    "str_1",
		ReviewerID: "admin-1",
	})
	if err != nil {
		t.Fatalf("reject store: %v", err)
	}
	if !outcome.Escalated {
		t.Fatal("expected escalated outcome")
	}
	if len(events.events) != 2 {
		t.Fatalf("expected rejection and suspension events, got %d", len(events.events))
	}
	if events.events[0].Event != eventStoreRejected {
		t.Fatalf("unexpected first event %s", events.events[0].Event)
	}
	suspended := events.events[1]
	if suspended.Event != eventStoreSuspended || suspended.StoreID != "str_1" {
		t.Fatalf("unexpected suspension event %+v", suspended)
	}
}

func TestModerationServiceRejectProductEscalationEmitsSuspendedEvent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubModerationRepo{}
	events := &captureModerationEvents{}
	repo.rejectProductFn = func(_ context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error) {
		if req.Record.Target != domain.ReviewTargetProduct || req.Record.TargetID != "prd_1" {
			t.Fatalf("unexpected record %+v", req.Record)
		}
		if req.Record.StoreID != "" {
			t.Fatalf("expected store id resolved by the repository, got %q", req.Record.StoreID)
		}
		return repositories.ProductModerationResult{
			Product:   domain.Product{ID: "prd_1", StoreID: "str_1", Status: domain.ProductStatusRejected},
			Store:     domain.Store{ID: "str_1", Status: domain.StoreStatusSuspended, ReviewFailCount: 5},
			Escalated: true,
		}, nil
	}

	svc := newModerationServiceForTest(t, repo, events, now)
	outcome, err := svc.RejectProduct(context.Background(), ReviewProductCommand{
		ProductID:  "prd_1",
		ReviewerID: "admin-1",
		Comment:    "misleading listing",
	})
	if err != nil {
		t.Fatalf("reject product: %v", err)
	}
	if outcome.Product.Status != domain.ProductStatusRejected {
		t.Fatalf("unexpected product status %s", outcome.Product.Status)
	}
	if len(events.events) != 2 {
		t.Fatalf("expected rejection and suspension events, got %d", len(events.events))
	}
	if events.events[0].Event != eventProductRejected || events.events[0].TargetID != "prd_1" {
		t.Fatalf("unexpected first event %+v", events.events[0])
	}
	if events.events[1].Event != eventStoreSuspended || events.events[1].TargetID != "str_1" {
		t.Fatalf("unexpected second event %+v", events.events[1])
	}
}

func TestModerationServiceApproveProductWithoutEscalation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubModerationRepo{}
	events := &captureModerationEvents{}
	repo.approveProductFn = func(_ context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error) {
		return repositories.ProductModerationResult{
			Product: domain.Product{ID: "prd_1", StoreID: "str_1", Status: domain.ProductStatusPublished},
			Store:   domain.Store{ID: "str_1", Status: domain.StoreStatusPublished},
		}, nil
	}

	svc := newModerationServiceForTest(t, repo, events, now)
	outcome, err := svc.ApproveProduct(context.Background(), ReviewProductCommand{
		ProductID:  "prd_1",
		ReviewerID: "admin-1",
	})
	if err != nil {
		t.Fatalf("approve product: %v", err)
	}
	if outcome.Product.Status != domain.ProductStatusPublished {
		t.Fatalf("unexpected product status %s", outcome.Product.Status)
	}
	if len(events.events) != 1 || events.events[0].Event != eventProductApproved {
		t.Fatalf("unexpected events %+v", events.events)
	}
}

func TestModerationServiceRejectsMissingInput(t *testing.T) {
	svc := newModerationServiceForTest(t, &stubModerationRepo{}, nil, time.Now())

	if _, err := svc.ApproveStore(context.Background(), ReviewStoreCommand{ReviewerID: "admin-1"}); !errors.Is(err, ErrModerationInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.ApproveStore(context.Background(), ReviewStoreCommand{StoreID: "str_1"}); !errors.Is(err, ErrModerationInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.ListReviewRecords(context.Background(), "  "); !errors.Is(err, ErrModerationInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestModerationServiceMapsRepositoryErrors(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		code repositories.ModerationErrorCode
		want error
	}{
		{"store not found", repositories.ModerationErrorStoreNotFound, ErrModerationStoreNotFound},
		{"product not found", repositories.ModerationErrorProductNotFound, ErrModerationProductNotFound},
		{"invalid state", repositories.ModerationErrorInvalidState, ErrModerationInvalidState},
		{"suspended", repositories.ModerationErrorSuspended, ErrModerationStoreSuspended},
		{"not allowed", repositories.ModerationErrorNotAllowed, ErrModerationNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubModerationRepo{
				approveStoreFn: func(_ context.Context, _ repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
					return repositories.StoreModerationResult{}, repositories.NewModerationError(tc.code, "boom", nil)
				},
			}
			svc := newModerationServiceForTest(t, repo, nil, now)
			_, err := svc.ApproveStore(context.Background(), ReviewStoreCommand{StoreID: "str_1", ReviewerID: "admin-1"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestModerationServicePublishFailureDoesNotFailDecision(t *testing.T) {
	now := time.Now()
	repo := &stubModerationRepo{
		approveStoreFn: func(_ context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
			return repositories.StoreModerationResult{Store: domain.Store{ID: req.StoreID, Status: domain.StoreStatusPublished}}, nil
		},
	}
	events := &captureModerationEvents{err: errors.New("topic unavailable")}
	svc := newModerationServiceForTest(t, repo, events, now)

	if _, err := svc.ApproveStore(context.Background(), ReviewStoreCommand{StoreID: "str_1", ReviewerID: "admin-1"}); err != nil {
		t.Fatalf("approve store: %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected publish attempt, got %d", len(events.events))
	}
}

func TestModerationServiceListProductReviewRecords(t *testing.T) {
	records := &stubRecordRepo{
		listByTargetFn: func(_ context.Context, target domain.ReviewTarget, targetID string) ([]domain.ReviewRecord, error) {
			if target != domain.ReviewTargetProduct {
				t.Fatalf("unexpected target %s", target)
			}
			if targetID != "prd_1" {
				t.Fatalf("unexpected target id %s", targetID)
			}
			return []domain.ReviewRecord{{ID: "rev_1", Target: target, TargetID: targetID}}, nil
		},
	}
	svc, err := NewModerationService(ModerationServiceDeps{
		Moderation: &stubModerationRepo{},
		Stores:     &stubStoreRepo{},
		Products:   &stubProductRepo{},
		Records:    records,
	})
	if err != nil {
		t.Fatalf("new moderation service: %v", err)
	}

	history, err := svc.ListProductReviewRecords(context.Background(), " prd_1 ")
	if err != nil {
		t.Fatalf("list product records: %v", err)
	}
	if len(history) != 1 || history[0].ID != "rev_1" {
		t.Fatalf("unexpected records %+v", history)
	}

	if _, err := svc.ListProductReviewRecords(context.Background(), "  "); !errors.Is(err, ErrModerationInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestModerationServiceListPendingProducts(t *testing.T) {
	products := &stubProductRepo{
		listPendingFn: func(_ context.Context) ([]domain.Product, error) {
			return []domain.Product{{ID: "prd_1", Status: domain.ProductStatusPendingReview}}, nil
		},
	}
	svc, err := NewModerationService(ModerationServiceDeps{
		Moderation: &stubModerationRepo{},
		Stores:     &stubStoreRepo{},
		Products:   products,
		Records:    &stubRecordRepo{},
	})
	if err != nil {
		t.Fatalf("new moderation service: %v", err)
	}

	pending, err := svc.ListPendingProducts(context.Background())
	if err != nil {
		t.Fatalf("list pending products: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "prd_1" {
		t.Fatalf("unexpected pending products %+v", pending)
	}
}
