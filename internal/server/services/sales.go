package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/archive"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const archiveTimeout = 10 * time.Second

// Verdict messages sent back to registers.
const (
	msgArticleNotFound = "article not found"
	msgArticleSold     = "article already sold"
	msgMissingClientID = "missing client id"
	msgMissingArticle  = "missing article id"
	msgInvalidPrice    = "price must be positive"
	msgInvalidPayment  = "invalid payment method"
	msgInvalidRegister = "register number must be positive"
	msgInternal        = "internal error"
)

// RegisterInput is an online sale request.
type RegisterInput struct {
	ArticleID      string
	PaymentMethod  string
	RegisterNumber int
	ClientID       string
}

type SalesService struct {
	repos    repomanager.RepositoryManager
	archiver archive.Archiver
	log      logging.Logger
	now      func() time.Time
}

func NewSalesService(repos repomanager.RepositoryManager, archiver archive.Archiver, log logging.Logger) *SalesService {
	if archiver == nil {
		archiver = archive.Noop{}
	}
	return &SalesService{
		repos:    repos,
		archiver: archiver,
		log:      log.With("module", "sales"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ImportArticles upserts the given articles into an edition's catalog in one
// transaction.
func (s *SalesService) ImportArticles(ctx context.Context, editionID string, items []models.Article) (int, error) {
	for i := range items {
		a := &items[i]
		a.EditionID = editionID
		if a.ID == "" || a.Barcode == "" {
			return 0, fmt.Errorf("%w: article %d needs an id and a barcode", common.ErrInvalidSale, i)
		}
		if a.Price.IsNegative() {
			return 0, fmt.Errorf("%w: article %s has a negative price", common.ErrInvalidSale, a.ID)
		}
	}

	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		for i := range items {
			if err := r.Articles().Upsert(ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "catalog imported", "edition", editionID, "articles", len(items))
	return len(items), nil
}

// Catalog returns the articles of an edition that can still be sold.
func (s *SalesService) Catalog(ctx context.Context, editionID string) ([]models.Article, error) {
	return s.repos.Articles().ListAvailable(ctx, editionID)
}

// Scan resolves a barcode. A sold article yields common.ErrArticleAlreadySold.
func (s *SalesService) Scan(ctx context.Context, editionID, barcode string) (*models.Article, error) {
	a, err := s.repos.Articles().GetByBarcode(ctx, editionID, barcode)
	if errors.Is(err, common.ErrRecordNotFound) {
		return nil, common.ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}

	_, err = s.repos.Sales().GetByArticle(ctx, a.ID)
	switch {
	case err == nil:
		return nil, common.ErrArticleAlreadySold
	case errors.Is(err, common.ErrRecordNotFound):
		return a, nil
	default:
		return nil, err
	}
}

// Register records an online sale. When in.ClientID was already used for
// this edition the existing sale is returned, so a register retrying after a
// lost response does not sell twice.
func (s *SalesService) Register(ctx context.Context, editionID string, in RegisterInput) (*models.Sale, error) {
	if !models.ValidPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidPaymentMethod, in.PaymentMethod)
	}
	if in.ArticleID == "" || in.RegisterNumber <= 0 {
		return nil, fmt.Errorf("%w: article id and register number are required", common.ErrInvalidSale)
	}

	var sale *models.Sale
	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if in.ClientID != "" {
			existing, err := r.Sales().GetByClientID(ctx, editionID, in.ClientID)
			if err == nil {
				if existing.ArticleID != in.ArticleID {
					return common.ErrDuplicateClientID
				}
				sale = existing
				return nil
			}
			if !errors.Is(err, common.ErrRecordNotFound) {
				return err
			}
		}

		a, err := r.Articles().GetByID(ctx, editionID, in.ArticleID)
		if errors.Is(err, common.ErrRecordNotFound) {
			return common.ErrArticleNotFound
		}
		if err != nil {
			return err
		}

		sale = &models.Sale{
			ID:                 uuid.NewString(),
			EditionID:          editionID,
			ClientID:           in.ClientID,
			ArticleID:          a.ID,
			Barcode:            a.Barcode,
			ArticleDescription: a.Description,
			Price:              a.Price,
			PaymentMethod:      in.PaymentMethod,
			RegisterNumber:     in.RegisterNumber,
			SoldAt:             s.now(),
			Source:             models.SourceOnline,
		}
		return r.Sales().Insert(ctx, sale)
	})

	if errors.Is(err, common.ErrDuplicateClientID) && in.ClientID != "" {
		// A concurrent request with the same id won the insert.
		existing, getErr := s.repos.Sales().GetByClientID(ctx, editionID, in.ClientID)
		if getErr == nil && existing.ArticleID == in.ArticleID {
			return existing, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "sale registered", "edition", editionID, "sale", sale.ID, "article", sale.ArticleID)
	return sale, nil
}

// Sync reconciles a batch of offline sales. Each item is processed in its
// own transaction and gets exactly one verdict; a failing item never undoes
// the others. Verdicts are stored by client id and replayed unchanged when
// the id is submitted again.
func (s *SalesService) Sync(ctx context.Context, editionID string, items []models.SyncItem) *models.SyncSummary {
	summary := &models.SyncSummary{Results: make([]models.SyncResult, 0, len(items))}
	for _, it := range items {
		summary.Add(s.syncOne(ctx, editionID, it))
	}

	s.log.Info(ctx, "sync batch processed", "edition", editionID,
		"items", len(items), "synced", summary.Synced, "conflicts", summary.Conflicts, "errors", summary.Errors)

	s.archive(ctx, editionID, items, summary)
	return summary
}

func (s *SalesService) syncOne(ctx context.Context, editionID string, it models.SyncItem) models.SyncResult {
	it.ClientID = strings.TrimSpace(it.ClientID)
	if it.ClientID == "" {
		return errorResult(editionID, "", msgMissingClientID)
	}

	var res models.SyncResult
	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		stored, err := r.SyncResults().Get(ctx, editionID, it.ClientID)
		if err == nil {
			res = *stored
			return nil
		}
		if !errors.Is(err, common.ErrRecordNotFound) {
			return err
		}

		res, err = s.decide(ctx, r, editionID, it)
		if err != nil {
			return err
		}
		return r.SyncResults().Save(ctx, &res)
	})

	switch {
	case err == nil:
		return res
	case errors.Is(err, common.ErrArticleAlreadySold):
		// Another register sold the article between our check and insert.
		res = conflictResult(editionID, it.ClientID)
		if err := s.repos.SyncResults().Save(ctx, &res); err != nil {
			s.log.Error(ctx, "failed to store sync verdict", "client_id", it.ClientID, "error", err)
		}
		return res
	case errors.Is(err, common.ErrDuplicateClientID):
		// A concurrent submission of the same id inserted the sale first.
		if sale, getErr := s.repos.Sales().GetByClientID(ctx, editionID, it.ClientID); getErr == nil {
			return syncedResult(editionID, it.ClientID, sale.ID)
		}
	}

	s.log.Error(ctx, "sync item failed", "edition", editionID, "client_id", it.ClientID, "error", err)
	return errorResult(editionID, it.ClientID, msgInternal)
}

// decide computes the verdict of a new client id inside a transaction.
func (s *SalesService) decide(ctx context.Context, r repomanager.Repositories, editionID string, it models.SyncItem) (models.SyncResult, error) {
	if msg := validateItem(it); msg != "" {
		return errorResult(editionID, it.ClientID, msg), nil
	}

	// Registered online already, but the register never saw the response.
	existing, err := r.Sales().GetByClientID(ctx, editionID, it.ClientID)
	if err == nil {
		return syncedResult(editionID, it.ClientID, existing.ID), nil
	}
	if !errors.Is(err, common.ErrRecordNotFound) {
		return models.SyncResult{}, err
	}

	a, err := r.Articles().GetByID(ctx, editionID, it.ArticleID)
	if errors.Is(err, common.ErrRecordNotFound) {
		return errorResult(editionID, it.ClientID, msgArticleNotFound), nil
	}
	if err != nil {
		return models.SyncResult{}, err
	}

	_, err = r.Sales().GetByArticle(ctx, a.ID)
	if err == nil {
		return conflictResult(editionID, it.ClientID), nil
	}
	if !errors.Is(err, common.ErrRecordNotFound) {
		return models.SyncResult{}, err
	}

	soldAt := it.SoldAt.UTC()
	if soldAt.IsZero() {
		soldAt = s.now()
	}
	sale := &models.Sale{
		ID:                 uuid.NewString(),
		EditionID:          editionID,
		ClientID:           it.ClientID,
		ArticleID:          a.ID,
		Barcode:            a.Barcode,
		ArticleDescription: a.Description,
		Price:              it.Price,
		PaymentMethod:      it.PaymentMethod,
		RegisterNumber:     it.RegisterNumber,
		SoldAt:             soldAt,
		Source:             models.SourceSync,
	}
	if err := r.Sales().Insert(ctx, sale); err != nil {
		return models.SyncResult{}, err
	}
	return syncedResult(editionID, it.ClientID, sale.ID), nil
}

func validateItem(it models.SyncItem) string {
	switch {
	case it.ArticleID == "":
		return msgMissingArticle
	case !it.Price.IsPositive():
		return msgInvalidPrice
	case !models.ValidPaymentMethod(it.PaymentMethod):
		return msgInvalidPayment
	case it.RegisterNumber <= 0:
		return msgInvalidRegister
	}
	return ""
}

func (s *SalesService) archive(ctx context.Context, editionID string, items []models.SyncItem, summary *models.SyncSummary) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	b := &archive.Batch{EditionID: editionID, ReceivedAt: s.now(), Items: items, Summary: *summary}
	if err := s.archiver.Archive(ctx, b); err != nil {
		s.log.Warn(ctx, "sync batch not archived", "edition", editionID, "error", err)
	}
}

// ListSales returns the newest confirmed sales of an edition first.
func (s *SalesService) ListSales(ctx context.Context, editionID string, limit int) ([]models.Sale, error) {
	return s.repos.Sales().List(ctx, editionID, limit)
}

func (s *SalesService) LiveStats(ctx context.Context, editionID string) (*models.SalesStats, error) {
	return s.repos.Sales().Stats(ctx, editionID)
}

func syncedResult(editionID, clientID, saleID string) models.SyncResult {
	return models.SyncResult{EditionID: editionID, ClientID: clientID, Status: models.VerdictSynced, ServerSaleID: saleID}
}

func conflictResult(editionID, clientID string) models.SyncResult {
	return models.SyncResult{EditionID: editionID, ClientID: clientID, Status: models.VerdictConflict, ErrorMessage: msgArticleSold}
}

func errorResult(editionID, clientID, msg string) models.SyncResult {
	return models.SyncResult{EditionID: editionID, ClientID: clientID, Status: models.VerdictError, ErrorMessage: msg}
}
