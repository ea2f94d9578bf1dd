package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

func TestRecordSale_LowStockScenario(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "12.50", 10, 5)
	ctx := context.Background()

	sale, err := f.ledger.RecordSale(ctx, p.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, sale.QuantitySold)
	assert.True(t, decimal.RequireFromString("75").Equal(sale.TotalPrice), sale.TotalPrice.String())

	got, err := f.store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	assert.True(t, f.ledger.IsLowStock(got))

	assert.Equal(t, []string{"SaleRecorded", "LowStockAlert"}, f.outboxTypes(t))
	assert.True(t, f.cache.deleted(p.ID))
}

func TestRecordSale_ExactStockSucceeds(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "1", 3, 0)

	_, err := f.ledger.RecordSale(context.Background(), p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, f.quantity(t, p.ID))
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "1", 3, 0)

	_, err := f.ledger.RecordSale(context.Background(), p.ID, 4)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, 3, ise.Available)

	assert.Equal(t, 3, f.quantity(t, p.ID))
	assert.Empty(t, f.outboxTypes(t))
}

func TestRecordSale_InvalidQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "1", 3, 0)

	for _, qty := range []int{0, -1, domain.MaxQuantity + 1} {
		_, err := f.ledger.RecordSale(context.Background(), p.ID, qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "qty=%d", qty)
	}
	assert.Equal(t, 3, f.quantity(t, p.ID))
}

func TestRecordSale_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.RecordSale(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordSale_Options(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "2", 10, 0)
	ctx := context.Background()
	u := domain.NewUser("clerk@shop.io", "clerk", "", "")
	require.NoError(t, f.store.Users().Insert(ctx, u))

	sale, err := f.ledger.RecordSale(ctx, p.ID, 1, SoldBy(u.ID), WithReference("pos:17"))
	require.NoError(t, err)
	require.NotNil(t, sale.SoldBy)
	assert.Equal(t, u.ID, *sale.SoldBy)

	stored, err := f.ledger.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "clerk", stored.SoldByUsername)
	assert.Equal(t, "pos:17", stored.Reference)

	// same reference again is rejected and stock is untouched
	_, err = f.ledger.RecordSale(ctx, p.ID, 1, WithReference("pos:17"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 9, f.quantity(t, p.ID))
}

func TestRecordThenReverse_RestoresStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "3", 8, 2)
	ctx := context.Background()

	sale, err := f.ledger.RecordSale(ctx, p.ID, 5)
	require.NoError(t, err)
	require.NoError(t, f.ledger.ReverseSale(ctx, sale.ID))

	assert.Equal(t, 8, f.quantity(t, p.ID))
	_, err = f.ledger.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{"SaleRecorded", "SaleReversed"}, f.outboxTypes(t))
}

func TestReverseSale_NotFound(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ledger.ReverseSale(context.Background(), uuid.New()), domain.ErrNotFound)
}

func TestReviseSale_MovesStockByDelta(t *testing.T) {
	tests := []struct {
		name    string
		initial int
		oldQty  int
		newQty  int
	}{
		{"increase", 20, 5, 8},
		{"decrease", 20, 5, 2},
		{"unchanged", 20, 5, 5},
		{"consume remaining", 10, 4, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.product(t, "4", tt.initial, 0)
			ctx := context.Background()

			sale, err := f.ledger.RecordSale(ctx, p.ID, tt.oldQty)
			require.NoError(t, err)
			before := f.quantity(t, p.ID)

			revised, err := f.ledger.ReviseSale(ctx, sale.ID, tt.newQty)
			require.NoError(t, err)
			assert.Equal(t, tt.newQty, revised.QuantitySold)
			assert.True(t, decimal.NewFromInt(int64(4*tt.newQty)).Equal(revised.TotalPrice))
			assert.Equal(t, before+(tt.oldQty-tt.newQty), f.quantity(t, p.ID))
		})
	}
}

func TestReviseSale_UsesPriceCapturedAtSale(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "10", 10, 0)
	ctx := context.Background()

	sale, err := f.ledger.RecordSale(ctx, p.ID, 2)
	require.NoError(t, err)

	_, err = f.catalog.UpdateProduct(ctx, p.ID, ProductInput{
		CategoryID: p.CategoryID, Name: p.Name, Price: decimal.NewFromInt(99), Quantity: 8,
	})
	require.NoError(t, err)

	revised, err := f.ledger.ReviseSale(ctx, sale.ID, 3)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(revised.TotalPrice))
}

func TestReviseSale_Errors(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "1", 5, 0)
	ctx := context.Background()
	sale, err := f.ledger.RecordSale(ctx, p.ID, 2)
	require.NoError(t, err)

	_, err = f.ledger.ReviseSale(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.ledger.ReviseSale(ctx, sale.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// 3 left in stock, revising 2 -> 6 needs 4 more
	_, err = f.ledger.ReviseSale(ctx, sale.ID, 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 3, f.quantity(t, p.ID))
	stored, err := f.ledger.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.QuantitySold)
}

func TestIsLowStock(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct{ q, th int }{{0, 0}, {4, 5}, {5, 5}, {6, 5}, {100, 5}, {0, 5}} {
		p := &domain.Product{Quantity: tc.q, StockThreshold: tc.th}
		assert.Equal(t, tc.q <= tc.th, f.ledger.IsLowStock(p), "q=%d t=%d", tc.q, tc.th)
	}
}

func TestRecordSale_ConcurrentSalesNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "1", 5, 0)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		errs     = make([]error, 2)
		attempts = len(errs)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.ledger.RecordSale(ctx, p.ID, 5)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConcurrencyConflict):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, f.quantity(t, p.ID))
}

func TestLedgerInvariant_UnderMixedLoad(t *testing.T) {
	f := newFixture(t)
	const initial = 50
	p := f.product(t, "1", initial, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sale, err := f.ledger.RecordSale(ctx, p.ID, 1+i%3)
			if err != nil {
				return
			}
			switch i % 3 {
			case 0:
				_ = f.ledger.ReverseSale(ctx, sale.ID)
			case 1:
				_, _ = f.ledger.ReviseSale(ctx, sale.ID, 4)
			}
		}(i)
	}
	wg.Wait()

	sales, err := f.ledger.ListSales(ctx, domain.SaleFilter{ProductID: &p.ID})
	require.NoError(t, err)
	sold := 0
	for _, s := range sales {
		sold += s.QuantitySold
	}
	q := f.quantity(t, p.ID)
	assert.GreaterOrEqual(t, q, 0)
	assert.Equal(t, initial, q+sold)
}
