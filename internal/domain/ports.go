package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrCacheMiss is returned by ProductCache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// GetForUpdate locks the product row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, error)
	Insert(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Insert(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SaleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]*Sale, error)
	Insert(ctx context.Context, s *Sale) error
	Update(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Insert(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OutboxRepository interface {
	Insert(ctx context.Context, msg OutboxMessage) error
	GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]OutboxMessage, error)
	Save(ctx context.Context, msg OutboxMessage) error
}

type OutboxMessage struct {
	ID             uuid.UUID
	Type           string
	PayloadJSON    string
	OccurredAtUtc  int64 // unix seconds
	RetryCount     int
	ProcessedAtUtc *int64
}

// Repositories groups the stores. Outside a transaction each call stands alone.
type Repositories interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Sales() SaleRepository
	Users() UserRepository
	Outbox() OutboxRepository
}

// TxManager runs fn in one transaction. Repositories handed to fn share it; any error
// returned by fn rolls everything back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type Store interface {
	Repositories
	TxManager
	Close() error
}

// ProductCache holds read copies of products. Set fills only an empty slot and Delete
// blocks refills for a short while, so a load racing a write cannot cache the old row.
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	Set(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
