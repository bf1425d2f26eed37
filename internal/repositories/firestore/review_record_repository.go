package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/marketfront/api/internal/domain"
	pfirestore "github.com/marketfront/api/internal/platform/firestore"
	"github.com/marketfront/api/internal/repositories"
)

// ReviewRecordRepository reads the moderation audit trail. Records are written
// by the moderation repository inside its transactions and never mutated.
type ReviewRecordRepository struct {
	records *pfirestore.BaseRepository[reviewRecordDocument]
}

// NewReviewRecordRepository constructs a Firestore backed audit trail reader.
func NewReviewRecordRepository(provider *pfirestore.Provider) (*ReviewRecordRepository, error) {
	if provider == nil {
		return nil, errors.New("review record repository requires firestore provider")
	}
	return &ReviewRecordRepository{
		records: pfirestore.NewBaseRepository[reviewRecordDocument](provider, reviewRecordsCollection, nil, nil),
	}, nil
}

func (r *ReviewRecordRepository) ListByTarget(ctx context.Context, target domain.ReviewTarget, targetID string) ([]domain.ReviewRecord, error) {
	if r == nil || r.records == nil {
		return nil, errors.New("review record repository not initialised")
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, errors.New("review records: target id is required")
	}
	docs, err := r.records.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("target", "==", string(target)).
			Where("targetId", "==", targetID).
			OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	return reviewRecordsFromDocs(docs), nil
}

func (r *ReviewRecordRepository) ListByStore(ctx context.Context, storeID string) ([]domain.ReviewRecord, error) {
	if r == nil || r.records == nil {
		return nil, errors.New("review record repository not initialised")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, errors.New("review records: store id is required")
	}
	docs, err := r.records.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("storeId", "==", storeID).OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	return reviewRecordsFromDocs(docs), nil
}

func reviewRecordsFromDocs(docs []pfirestore.Document[reviewRecordDocument]) []domain.ReviewRecord {
	records := make([]domain.ReviewRecord, len(docs))
	for i, doc := range docs {
		records[i] = doc.Data.toDomain(doc.ID)
	}
	return records
}

// Document structures -------------------------------------------------------

type reviewRecordDocument struct {
	Target     string    `firestore:"target"`
	TargetID   string    `firestore:"targetId"`
	StoreID    string    `firestore:"storeId"`
	ReviewerID string    `firestore:"reviewerId"`
	Result     string    `firestore:"result"`
	Comment    string    `firestore:"comment,omitempty"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func newReviewRecordDocument(record domain.ReviewRecord) reviewRecordDocument {
	return reviewRecordDocument{
		Target:     string(record.Target),
		TargetID:   strings.TrimSpace(record.TargetID),
		StoreID:    strings.TrimSpace(record.StoreID),
		ReviewerID: strings.TrimSpace(record.ReviewerID),
		Result:     string(record.Result),
		Comment:    record.Comment,
		CreatedAt:  record.CreatedAt.UTC(),
	}
}

func (d reviewRecordDocument) toDomain(id string) domain.ReviewRecord {
	return domain.ReviewRecord{
		ID:         id,
		Target:     domain.ReviewTarget(d.Target),
		TargetID:   d.TargetID,
		StoreID:    d.StoreID,
		ReviewerID: d.ReviewerID,
		Result:     domain.ReviewResult(d.Result),
		Comment:    d.Comment,
		CreatedAt:  d.CreatedAt,
	}
}

var _ repositories.ReviewRecordRepository = (*ReviewRecordRepository)(nil)
