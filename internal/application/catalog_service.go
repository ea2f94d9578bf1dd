package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

type CatalogService struct {
	store  domain.Store
	cache  domain.ProductCache
	logger *zap.Logger
	group  singleflight.Group
}

func NewCatalogService(store domain.Store, cache domain.ProductCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Categories

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.store.Categories().List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.store.Categories().GetByID(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	c := domain.NewCategory(name, description)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Categories().Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (*domain.Category, error) {
	var out *domain.Category
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		c, err := repos.Categories().GetByID(ctx, id)
		if err != nil {
			return err
		}
		c.Name = strings.TrimSpace(name)
		c.Description = description
		c.UpdatedAtUtc = time.Now().UTC()
		if err := c.Validate(); err != nil {
			return err
		}
		out = c
		return repos.Categories().Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory removes the category together with its products and their sales.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	var removed []*domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		ps, err := repos.Products().List(ctx, domain.ProductFilter{CategoryID: &id})
		if err != nil {
			return err
		}
		removed = ps
		return repos.Categories().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	for _, p := range removed {
		s.invalidate(ctx, p.ID)
	}
	return nil
}

// Products

// ProductInput is the writable part of a product. Nil pointers keep defaults on create.
type ProductInput struct {
	CategoryID     uuid.UUID
	Name           string
	Description    string
	Sku            string
	Price          decimal.Decimal
	Quantity       int
	StockThreshold *int
	IsActive       *bool
}

func (in ProductInput) apply(p *domain.Product) {
	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Sku = strings.TrimSpace(in.Sku)
	p.Price = in.Price.Round(2)
	if in.StockThreshold != nil {
		p.StockThreshold = *in.StockThreshold
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	return s.store.Products().List(ctx, filter)
}

func (s *CatalogService) LowStock(ctx context.Context) ([]*domain.Product, error) {
	return s.store.Products().List(ctx, domain.ProductFilter{LowStock: true})
}

// GetProduct reads through the cache. Concurrent misses for one id share a single load.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.cache.Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("product cache read failed", zap.String("productId", id.String()), zap.Error(err))
	}

	v, err, _ := s.group.Do(id.String(), func() (interface{}, error) {
		// the load is shared by every waiter and outlives the first caller's cancellation
		loadCtx := context.WithoutCancel(ctx)
		p, err := s.store.Products().GetByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, p); err != nil {
			s.logger.Warn("product cache write failed", zap.String("productId", id.String()), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*domain.Product)
	return &cp, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", domain.ErrValidation)
	}
	p := domain.NewProduct(in.CategoryID, in.Name, in.Price, in.Quantity)
	in.apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		c, err := s.requireCategory(ctx, repos, p.CategoryID)
		if err != nil {
			return err
		}
		p.CategoryName = c.Name
		return repos.Products().Insert(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct replaces the product's fields. A changed quantity is a stock correction and is
// applied under the product row lock, like any ledger movement.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", domain.ErrValidation)
	}

	var out *domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		p, err := repos.Products().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasLow := p.IsLowStock()
		in.apply(p)
		delta := in.Quantity - p.Quantity
		p.Quantity = in.Quantity
		p.UpdatedAtUtc = time.Now().UTC()
		if err := p.Validate(); err != nil {
			return err
		}
		c, err := s.requireCategory(ctx, repos, p.CategoryID)
		if err != nil {
			return err
		}
		p.CategoryName = c.Name
		if err := repos.Products().Update(ctx, p); err != nil {
			return err
		}

		var events []primitives.Event
		if delta != 0 {
			events = append(events, domain.NewStockAdjustedEvent(p.ID, delta, p.Quantity, "product update"))
		}
		if !wasLow && p.IsLowStock() {
			events = append(events, domain.NewLowStockAlertEvent(p))
		}
		out = p
		return NewOutboxWriter(repos.Outbox()).Enqueue(ctx, events...)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return out, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// AdjustStock applies a direct correction (positive restocks, negative writes off).
func (s *CatalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int, reason string) (*domain.Product, error) {
	if delta == 0 || delta > domain.MaxQuantity || delta < -domain.MaxQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	if strings.TrimSpace(reason) == "" {
		reason = "manual adjustment"
	}

	var out *domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		p, err := repos.Products().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Quantity+delta < 0 {
			return domain.NewInsufficientStockError(p, -delta)
		}
		if p.Quantity+delta > domain.MaxQuantity {
			return fmt.Errorf("%w: stock cannot exceed %d", domain.ErrValidation, domain.MaxQuantity)
		}
		wasLow := p.IsLowStock()
		p.Restock(delta)
		if err := repos.Products().Update(ctx, p); err != nil {
			return err
		}

		events := []primitives.Event{domain.NewStockAdjustedEvent(p.ID, delta, p.Quantity, reason)}
		if !wasLow && p.IsLowStock() {
			events = append(events, domain.NewLowStockAlertEvent(p))
		}
		out = p
		return NewOutboxWriter(repos.Outbox()).Enqueue(ctx, events...)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	s.logger.Info("stock adjusted",
		zap.String("productId", id.String()), zap.Int("delta", delta), zap.String("reason", reason))
	return out, nil
}

func (s *CatalogService) requireCategory(ctx context.Context, repos domain.Repositories, id uuid.UUID) (*domain.Category, error) {
	c, err := repos.Categories().GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: category %s does not exist", domain.ErrValidation, id)
	}
	return c, err
}

func (s *CatalogService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.String("productId", id.String()), zap.Error(err))
	}
}
