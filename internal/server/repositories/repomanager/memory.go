package repomanager

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/repositories/articles"
	"github.com/dmitrijs2005/possync/internal/server/repositories/sales"
	"github.com/dmitrijs2005/possync/internal/server/repositories/syncresults"
	"github.com/shopspring/decimal"
)

// InMemoryRepositoryManager keeps everything in process memory. A single
// mutex serializes all access; WithinTx holds it for the whole unit of work
// and restores a snapshot when fn fails.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	store *memoryStore
}

var _ RepositoryManager = (*InMemoryRepositoryManager)(nil)

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: newMemoryStore()}
}

type resultKey struct {
	editionID string
	clientID  string
}

type memoryStore struct {
	articles map[string]models.Article
	sales    map[string]models.Sale
	results  map[resultKey]models.SyncResult
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		articles: map[string]models.Article{},
		sales:    map[string]models.Sale{},
		results:  map[resultKey]models.SyncResult{},
	}
}

func (s *memoryStore) clone() *memoryStore {
	return &memoryStore{
		articles: maps.Clone(s.articles),
		sales:    maps.Clone(s.sales),
		results:  maps.Clone(s.results),
	}
}

func (m *InMemoryRepositoryManager) Articles() articles.Repository {
	return &memoryArticles{memoryRepositories{m: m, locking: true}}
}

func (m *InMemoryRepositoryManager) Sales() sales.Repository {
	return &memorySales{memoryRepositories{m: m, locking: true}}
}

func (m *InMemoryRepositoryManager) SyncResults() syncresults.Repository {
	return &memoryResults{memoryRepositories{m: m, locking: true}}
}

func (m *InMemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.store.clone()
	defer func() {
		if p := recover(); p != nil {
			m.store = snapshot
			panic(p)
		}
		if err != nil {
			m.store = snapshot
		}
	}()

	return fn(ctx, memoryRepositories{m: m})
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Close() error { return nil }

// memoryRepositories takes the manager lock per call unless it is already
// held by WithinTx.
type memoryRepositories struct {
	m       *InMemoryRepositoryManager
	locking bool
}

func (r memoryRepositories) Articles() articles.Repository { return &memoryArticles{r} }

func (r memoryRepositories) Sales() sales.Repository { return &memorySales{r} }

func (r memoryRepositories) SyncResults() syncresults.Repository { return &memoryResults{r} }

func (r memoryRepositories) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.m.mu.Lock()
	return r.m.mu.Unlock
}

type memoryArticles struct{ memoryRepositories }

func (r *memoryArticles) Upsert(_ context.Context, a *models.Article) error {
	defer r.lock()()
	s := r.m.store

	for _, other := range s.articles {
		if other.ID != a.ID && other.EditionID == a.EditionID && other.Barcode == a.Barcode {
			return fmt.Errorf("db error: duplicate barcode %q in edition %q", a.Barcode, a.EditionID)
		}
	}
	s.articles[a.ID] = *a
	return nil
}

func (r *memoryArticles) ListAvailable(_ context.Context, editionID string) ([]models.Article, error) {
	defer r.lock()()
	s := r.m.store

	sold := make(map[string]struct{}, len(s.sales))
	for _, sale := range s.sales {
		sold[sale.ArticleID] = struct{}{}
	}

	var out []models.Article
	for _, a := range s.articles {
		if a.EditionID != editionID {
			continue
		}
		if _, ok := sold[a.ID]; ok {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return out, nil
}

func (r *memoryArticles) GetByBarcode(_ context.Context, editionID, barcode string) (*models.Article, error) {
	defer r.lock()()
	for _, a := range r.m.store.articles {
		if a.EditionID == editionID && a.Barcode == barcode {
			return &a, nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (r *memoryArticles) GetByID(_ context.Context, editionID, id string) (*models.Article, error) {
	defer r.lock()()
	a, ok := r.m.store.articles[id]
	if !ok || a.EditionID != editionID {
		return nil, common.ErrRecordNotFound
	}
	return &a, nil
}

type memorySales struct{ memoryRepositories }

func (r *memorySales) Insert(_ context.Context, sale *models.Sale) error {
	defer r.lock()()
	s := r.m.store

	for _, other := range s.sales {
		if other.ArticleID == sale.ArticleID {
			return common.ErrArticleAlreadySold
		}
		if sale.ClientID != "" && other.EditionID == sale.EditionID && other.ClientID == sale.ClientID {
			return common.ErrDuplicateClientID
		}
	}
	sale.CreatedAt = time.Now().UTC()
	s.sales[sale.ID] = *sale
	return nil
}

func (r *memorySales) GetByClientID(_ context.Context, editionID, clientID string) (*models.Sale, error) {
	defer r.lock()()
	for _, sale := range r.m.store.sales {
		if sale.EditionID == editionID && sale.ClientID == clientID && clientID != "" {
			return &sale, nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (r *memorySales) GetByArticle(_ context.Context, articleID string) (*models.Sale, error) {
	defer r.lock()()
	for _, sale := range r.m.store.sales {
		if sale.ArticleID == articleID {
			return &sale, nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (r *memorySales) List(_ context.Context, editionID string, limit int) ([]models.Sale, error) {
	defer r.lock()()

	var out []models.Sale
	for _, sale := range r.m.store.sales {
		if sale.EditionID == editionID {
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SoldAt.Equal(out[j].SoldAt) {
			return out[i].SoldAt.After(out[j].SoldAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memorySales) Stats(_ context.Context, editionID string) (*models.SalesStats, error) {
	defer r.lock()()

	st := &models.SalesStats{Total: decimal.Zero, ByPaymentMethod: map[string]decimal.Decimal{}}
	for _, sale := range r.m.store.sales {
		if sale.EditionID != editionID {
			continue
		}
		st.Count++
		st.Total = st.Total.Add(sale.Price)
		st.ByPaymentMethod[sale.PaymentMethod] = st.ByPaymentMethod[sale.PaymentMethod].Add(sale.Price)
	}
	return st, nil
}

type memoryResults struct{ memoryRepositories }

func (r *memoryResults) Get(_ context.Context, editionID, clientID string) (*models.SyncResult, error) {
	defer r.lock()()
	res, ok := r.m.store.results[resultKey{editionID, clientID}]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	return &res, nil
}

func (r *memoryResults) Save(_ context.Context, res *models.SyncResult) error {
	defer r.lock()()
	key := resultKey{res.EditionID, res.ClientID}
	if _, ok := r.m.store.results[key]; ok {
		return nil
	}
	stored := *res
	stored.CreatedAt = time.Now().UTC()
	r.m.store.results[key] = stored
	return nil
}
