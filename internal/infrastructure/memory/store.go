package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// Store keeps everything in process. Transactions are serialized by one mutex and work on a
// copy of the state, which replaces the live state only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
}

var _ domain.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(ctx, &txRepos{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Close() error { return nil }

// Standalone calls each run in their own transaction.

func (s *Store) Products() domain.ProductRepository { return autoProducts{s} }
func (s *Store) Categories() domain.CategoryRepository { return autoCategories{s} }
func (s *Store) Sales() domain.SaleRepository { return autoSales{s} }
func (s *Store) Users() domain.UserRepository { return autoUsers{s} }
func (s *Store) Outbox() domain.OutboxRepository { return autoOutbox{s} }

type txRepos struct {
	st *state
}

func (r *txRepos) Products() domain.ProductRepository { return productRepo{r.st} }
func (r *txRepos) Categories() domain.CategoryRepository { return categoryRepo{r.st} }
func (r *txRepos) Sales() domain.SaleRepository { return saleRepo{r.st} }
func (r *txRepos) Users() domain.UserRepository { return userRepo{r.st} }
func (r *txRepos) Outbox() domain.OutboxRepository { return outboxRepo{r.st} }

type state struct {
	categories map[uuid.UUID]domain.Category
	products   map[uuid.UUID]domain.Product
	sales      map[uuid.UUID]domain.Sale
	users      map[uuid.UUID]domain.User
	outbox     []domain.OutboxMessage
}

func newState() *state {
	return &state{
		categories: map[uuid.UUID]domain.Category{},
		products:   map[uuid.UUID]domain.Product{},
		sales:      map[uuid.UUID]domain.Sale{},
		users:      map[uuid.UUID]domain.User{},
	}
}

func (s *state) clone() *state {
	c := &state{
		categories: make(map[uuid.UUID]domain.Category, len(s.categories)),
		products:   make(map[uuid.UUID]domain.Product, len(s.products)),
		sales:      make(map[uuid.UUID]domain.Sale, len(s.sales)),
		users:      make(map[uuid.UUID]domain.User, len(s.users)),
		outbox:     make([]domain.OutboxMessage, len(s.outbox)),
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	copy(c.outbox, s.outbox)
	return c
}
