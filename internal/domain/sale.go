package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Sale struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	QuantitySold   int
	UnitPrice      decimal.Decimal
	TotalPrice     decimal.Decimal
	SoldBy         *uuid.UUID
	SoldByUsername string
	// Reference identifies the upstream request that produced the sale (e.g. an order line).
	// Unique when set.
	Reference    string
	SaleDateUtc  time.Time
	UpdatedAtUtc time.Time
}

// NewSale prices the sale from the product's current price. Stock is not touched here.
func NewSale(p *Product, qty int, soldBy *uuid.UUID) *Sale {
	now := time.Now().UTC()
	return &Sale{
		ID:           uuid.New(),
		ProductID:    p.ID,
		ProductName:  p.Name,
		QuantitySold: qty,
		UnitPrice:    p.Price,
		TotalPrice:   p.Price.Mul(decimal.NewFromInt(int64(qty))),
		SoldBy:       soldBy,
		SaleDateUtc:  now,
		UpdatedAtUtc: now,
	}
}

// Revise changes the sold quantity and returns the stock delta to apply to the product.
func (s *Sale) Revise(qty int) int {
	delta := qty - s.QuantitySold
	s.QuantitySold = qty
	s.TotalPrice = s.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	s.UpdatedAtUtc = time.Now().UTC()
	return delta
}

type SaleFilter struct {
	ProductID *uuid.UUID
	SoldBy    *uuid.UUID
	Search    string
}

func (f SaleFilter) Matches(s *Sale) bool {
	if f.ProductID != nil && s.ProductID != *f.ProductID {
		return false
	}
	if f.SoldBy != nil && (s.SoldBy == nil || *s.SoldBy != *f.SoldBy) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(s.ProductName), q)
	}
	return true
}
