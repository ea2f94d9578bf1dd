package application

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/memory"
)

// recordingCache is an in-process ProductCache that counts calls.
type recordingCache struct {
	mu      sync.Mutex
	items   map[uuid.UUID]domain.Product
	gets    int
	deletes []uuid.UUID
}

func newRecordingCache() *recordingCache {
	return &recordingCache{items: map[uuid.UUID]domain.Product{}}
}

func (c *recordingCache) Get(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	p, ok := c.items[id]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return &p, nil
}

func (c *recordingCache) Set(_ context.Context, p *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = *p
	return nil
}

func (c *recordingCache) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.deletes = append(c.deletes, id)
	return nil
}

func (c *recordingCache) deleted(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.deletes {
		if d == id {
			return true
		}
	}
	return false
}

type fixture struct {
	store   *memory.Store
	cache   *recordingCache
	ledger  *StockLedger
	catalog *CatalogService
	reports *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	cache := newRecordingCache()
	logger := zap.NewNop()
	return &fixture{
		store:   store,
		cache:   cache,
		ledger:  NewStockLedger(store, cache, logger),
		catalog: NewCatalogService(store, cache, logger),
		reports: NewReportService(store),
	}
}

func (f *fixture) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := f.catalog.CreateCategory(context.Background(), name, "")
	require.NoError(t, err)
	return c
}

// product creates a product priced at price with the given stock and threshold.
func (f *fixture) product(t *testing.T, price string, qty, threshold int) *domain.Product {
	t.Helper()
	c := f.category(t, "cat-"+uuid.NewString()[:8])
	p, err := f.catalog.CreateProduct(context.Background(), ProductInput{
		CategoryID:     c.ID,
		Name:           "Product " + uuid.NewString()[:8],
		Price:          decimal.RequireFromString(price),
		Quantity:       qty,
		StockThreshold: &threshold,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) quantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func (f *fixture) outboxTypes(t *testing.T) []string {
	t.Helper()
	msgs, err := f.store.Outbox().GetPendingBatch(context.Background(), 100, 1000)
	require.NoError(t, err)
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	return types
}
