package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/sales"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/google/uuid"
)

// OfflineQueue is the durable store of sales awaiting a server verdict.
// ApplyResult is the only path that changes an existing record's status.
type OfflineQueue struct {
	repo sales.Repository
	log  logging.Logger
	now  func() time.Time
}

func NewOfflineQueue(repo sales.Repository, log logging.Logger) *OfflineQueue {
	return &OfflineQueue{repo: repo, log: log, now: time.Now}
}

// Enqueue persists a draft as a pending sale. The draft's ClientID is kept
// when set, otherwise a new one is generated.
func (q *OfflineQueue) Enqueue(ctx context.Context, d models.SaleDraft) (*models.PendingSale, error) {
	if d.EditionID == "" {
		return nil, common.ErrNoEdition
	}
	if d.ArticleID == "" {
		return nil, fmt.Errorf("%w: missing article id", common.ErrInvalidSale)
	}
	if !d.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidPaymentMethod, d.PaymentMethod)
	}

	if err := q.EnsureUnsold(ctx, d.EditionID, d.ArticleID); err != nil {
		return nil, err
	}

	id := d.ClientID
	if id == "" {
		id = uuid.NewString()
	}
	soldAt := d.SoldAt
	if soldAt.IsZero() {
		soldAt = q.now()
	}

	s := &models.PendingSale{
		ID:                 id,
		EditionID:          d.EditionID,
		ArticleID:          d.ArticleID,
		Barcode:            d.Barcode,
		ArticleDescription: d.ArticleDescription,
		Price:              d.Price,
		PaymentMethod:      d.PaymentMethod,
		RegisterNumber:     d.RegisterNumber,
		SoldAt:             soldAt,
		Status:             models.StatusPending,
	}
	if err := q.repo.Insert(ctx, s); err != nil {
		return nil, err
	}

	q.log.Info(ctx, "sale queued offline", "edition", s.EditionID, "client_id", s.ID, "article", s.ArticleID)
	return s, nil
}

// EnsureUnsold fails with common.ErrArticleAlreadySold when this register
// already holds a pending, synced or conflicting sale of the article.
func (q *OfflineQueue) EnsureUnsold(ctx context.Context, editionID, articleID string) error {
	s, err := q.repo.GetLiveByArticle(ctx, editionID, articleID)
	switch {
	case errors.Is(err, common.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	}
	return fmt.Errorf("%w: article %s is in local sale %s (%s)", common.ErrArticleAlreadySold, articleID, s.ID, s.Status)
}

// ListPending returns the edition's pending sales, oldest first.
func (q *OfflineQueue) ListPending(ctx context.Context, editionID string) ([]*models.PendingSale, error) {
	return q.repo.ListByStatus(ctx, editionID, models.StatusPending)
}

// ListAll returns every local record of the edition, newest first.
func (q *OfflineQueue) ListAll(ctx context.Context, editionID string) ([]*models.PendingSale, error) {
	return q.repo.ListAll(ctx, editionID)
}

// Count is the number of pending sales of the edition.
func (q *OfflineQueue) Count(ctx context.Context, editionID string) (int, error) {
	return q.repo.CountByStatus(ctx, editionID, models.StatusPending)
}

// CountUnresolved adds unacknowledged conflicts and errors to Count.
func (q *OfflineQueue) CountUnresolved(ctx context.Context, editionID string) (int, error) {
	return q.repo.CountUnresolved(ctx, editionID)
}

// ApplyResult applies one verdict. It reports false when the record is
// unknown or no longer pending; such verdicts are dropped.
func (q *OfflineQueue) ApplyResult(ctx context.Context, o models.SyncOutcome) (bool, error) {
	if !o.Status.Terminal() {
		return false, fmt.Errorf("%w: verdict %q", common.ErrInvalidSale, o.Status)
	}
	ok, err := q.repo.ApplyOutcome(ctx, o, q.now())
	if err != nil {
		return false, err
	}
	if !ok {
		q.log.Warn(ctx, "verdict for unknown or resolved sale ignored", "client_id", o.ClientID, "status", o.Status)
	}
	return ok, nil
}

// Conflicts returns conflict and error records nobody acknowledged yet.
func (q *OfflineQueue) Conflicts(ctx context.Context, editionID string) ([]*models.PendingSale, error) {
	return q.repo.ListUnacknowledged(ctx, editionID)
}

// Acknowledge records that the operator handled a conflict or error. The
// status itself never changes.
func (q *OfflineQueue) Acknowledge(ctx context.Context, id, note string) error {
	if err := q.repo.Acknowledge(ctx, id, note, q.now()); err != nil {
		return err
	}
	q.log.Info(ctx, "conflict acknowledged", "client_id", id)
	return nil
}

// Purge drops synced and acknowledged records resolved more than retention
// ago. Pending and unacknowledged records are kept.
func (q *OfflineQueue) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := q.repo.Purge(ctx, q.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		q.log.Info(ctx, "purged resolved sales", "count", n)
	}
	return n, nil
}
