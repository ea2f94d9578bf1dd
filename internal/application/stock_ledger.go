package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// StockLedger keeps product quantities in step with the sales recorded against them.
// Every operation runs in one store transaction holding row locks on the sale (if any) and
// then the product, so concurrent sales of the same product are applied one after another.
type StockLedger struct {
	store  domain.Store
	cache  domain.ProductCache
	logger *zap.Logger
}

func NewStockLedger(store domain.Store, cache domain.ProductCache, logger *zap.Logger) *StockLedger {
	return &StockLedger{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

type saleOptions struct {
	soldBy    *uuid.UUID
	reference string
}

type SaleOption func(*saleOptions)

// SoldBy records which user made the sale.
func SoldBy(userID uuid.UUID) SaleOption {
	return func(o *saleOptions) {
		if userID != uuid.Nil {
			o.soldBy = &userID
		}
	}
}

// WithReference tags the sale with an upstream identifier. A second sale with the same
// reference fails with ErrConflict.
func WithReference(ref string) SaleOption {
	return func(o *saleOptions) { o.reference = ref }
}

// RecordSale deducts quantity from the product and stores the sale priced at the
// product's current price.
func (l *StockLedger) RecordSale(ctx context.Context, productID uuid.UUID, quantity int, opts ...SaleOption) (*domain.Sale, error) {
	if quantity <= 0 || quantity > domain.MaxQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	var o saleOptions
	for _, opt := range opts {
		opt(&o)
	}

	var sale *domain.Sale
	err := l.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		p, err := repos.Products().GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if !p.CanSell(quantity) {
			return domain.NewInsufficientStockError(p, quantity)
		}

		wasLow := p.IsLowStock()
		sale = domain.NewSale(p, quantity, o.soldBy)
		sale.Reference = o.reference
		p.Deduct(quantity)

		if err := repos.Products().Update(ctx, p); err != nil {
			return err
		}
		if err := repos.Sales().Insert(ctx, sale); err != nil {
			return err
		}

		events := []primitives.Event{domain.NewSaleRecordedEvent(sale, p.Quantity)}
		if !wasLow && p.IsLowStock() {
			events = append(events, domain.NewLowStockAlertEvent(p))
		}
		return NewOutboxWriter(repos.Outbox()).Enqueue(ctx, events...)
	})
	if err != nil {
		l.logFailure("record sale", err, zap.String("productId", productID.String()), zap.Int("quantity", quantity))
		return nil, err
	}

	l.invalidate(ctx, productID)
	l.logger.Info("sale recorded",
		zap.String("saleId", sale.ID.String()),
		zap.String("productId", productID.String()),
		zap.Int("quantity", quantity))
	return sale, nil
}

// ReviseSale changes the quantity of an existing sale and moves the difference in or out of
// stock. The sale keeps its product and unit price.
func (l *StockLedger) ReviseSale(ctx context.Context, saleID uuid.UUID, quantity int) (*domain.Sale, error) {
	if quantity <= 0 || quantity > domain.MaxQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	var sale *domain.Sale
	err := l.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		s, err := repos.Sales().GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		p, err := repos.Products().GetForUpdate(ctx, s.ProductID)
		if err != nil {
			return err
		}

		oldQty := s.QuantitySold
		delta := quantity - oldQty
		if p.Quantity-delta < 0 {
			return domain.NewInsufficientStockError(p, delta)
		}

		wasLow := p.IsLowStock()
		s.Revise(quantity)
		p.Deduct(delta)

		if err := repos.Sales().Update(ctx, s); err != nil {
			return err
		}
		if err := repos.Products().Update(ctx, p); err != nil {
			return err
		}

		events := []primitives.Event{domain.NewSaleRevisedEvent(s, oldQty, p.Quantity)}
		if !wasLow && p.IsLowStock() {
			events = append(events, domain.NewLowStockAlertEvent(p))
		}
		sale = s
		return NewOutboxWriter(repos.Outbox()).Enqueue(ctx, events...)
	})
	if err != nil {
		l.logFailure("revise sale", err, zap.String("saleId", saleID.String()), zap.Int("quantity", quantity))
		return nil, err
	}

	l.invalidate(ctx, sale.ProductID)
	return sale, nil
}

// ReverseSale deletes a sale and returns its quantity to stock.
func (l *StockLedger) ReverseSale(ctx context.Context, saleID uuid.UUID) error {
	var productID uuid.UUID
	err := l.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		s, err := repos.Sales().GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		p, err := repos.Products().GetForUpdate(ctx, s.ProductID)
		if err != nil {
			return err
		}

		p.Restock(s.QuantitySold)
		if err := repos.Products().Update(ctx, p); err != nil {
			return err
		}
		if err := repos.Sales().Delete(ctx, s.ID); err != nil {
			return err
		}

		productID = p.ID
		return NewOutboxWriter(repos.Outbox()).Enqueue(ctx, domain.NewSaleReversedEvent(s, p.Quantity))
	})
	if err != nil {
		l.logFailure("reverse sale", err, zap.String("saleId", saleID.String()))
		return err
	}

	l.invalidate(ctx, productID)
	return nil
}

func (l *StockLedger) IsLowStock(p *domain.Product) bool {
	return p.IsLowStock()
}

func (l *StockLedger) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return l.store.Sales().GetByID(ctx, id)
}

func (l *StockLedger) ListSales(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	return l.store.Sales().List(ctx, filter)
}

// invalidate drops the cached product after a committed change. A failure only means a
// stale read until the entry expires.
func (l *StockLedger) invalidate(ctx context.Context, productID uuid.UUID) {
	if err := l.cache.Delete(context.WithoutCancel(ctx), productID); err != nil {
		l.logger.Warn("product cache invalidation failed",
			zap.String("productId", productID.String()), zap.Error(err))
	}
}

func (l *StockLedger) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrConcurrencyConflict):
		l.logger.Warn(op+": lock contention", fields...)
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict):
		l.logger.Debug(op+" rejected", fields...)
	default:
		l.logger.Error(op+" failed", fields...)
	}
}
