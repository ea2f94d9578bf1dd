package application

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

type CategoryCount struct {
	Name  string
	Value int
}

type Summary struct {
	TotalProducts        int
	ActiveProducts       int
	LowStockProducts     int
	AveragePrice         decimal.Decimal
	TotalInventoryValue  decimal.Decimal
	CategoryDistribution []CategoryCount
	TotalSales           int
	UnitsSold            int
	TotalRevenue         decimal.Decimal
}

type ReportService struct {
	store domain.Store
}

func NewReportService(store domain.Store) *ReportService {
	return &ReportService{store: store}
}

// Summary computes the dashboard figures from one consistent snapshot.
func (r *ReportService) Summary(ctx context.Context) (*Summary, error) {
	var (
		products   []*domain.Product
		categories []*domain.Category
		sales      []*domain.Sale
	)
	err := r.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		if products, err = repos.Products().List(ctx, domain.ProductFilter{}); err != nil {
			return err
		}
		if categories, err = repos.Categories().List(ctx); err != nil {
			return err
		}
		sales, err = repos.Sales().List(ctx, domain.SaleFilter{})
		return err
	})
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		TotalProducts:       len(products),
		AveragePrice:        decimal.Zero,
		TotalInventoryValue: decimal.Zero,
		TotalRevenue:        decimal.Zero,
	}

	perCategory := make(map[string]int, len(categories))
	for _, c := range categories {
		perCategory[c.Name] = 0
	}
	priceTotal := decimal.Zero
	for _, p := range products {
		if p.IsActive {
			sum.ActiveProducts++
		}
		if p.IsLowStock() {
			sum.LowStockProducts++
		}
		priceTotal = priceTotal.Add(p.Price)
		sum.TotalInventoryValue = sum.TotalInventoryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
		perCategory[p.CategoryName]++
	}
	if len(products) > 0 {
		sum.AveragePrice = priceTotal.Div(decimal.NewFromInt(int64(len(products)))).Round(2)
	}

	for name, n := range perCategory {
		sum.CategoryDistribution = append(sum.CategoryDistribution, CategoryCount{Name: name, Value: n})
	}
	sort.Slice(sum.CategoryDistribution, func(i, j int) bool {
		a, b := sum.CategoryDistribution[i], sum.CategoryDistribution[j]
		if a.Value == b.Value {
			return a.Name < b.Name
		}
		return a.Value > b.Value
	})

	sum.TotalSales = len(sales)
	for _, s := range sales {
		sum.UnitsSold += s.QuantitySold
		sum.TotalRevenue = sum.TotalRevenue.Add(s.TotalPrice)
	}
	return sum, nil
}
