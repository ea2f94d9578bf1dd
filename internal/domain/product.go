package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultStockThreshold applies when a product is created without an explicit threshold.
const DefaultStockThreshold = 5

// Storage bounds for product and sale columns.
const (
	MaxQuantity  = math.MaxInt32
	MaxSkuLength = 100
)

// MaxPrice is the largest unit price a product can carry.
var MaxPrice = decimal.RequireFromString("99999999.99")

type Product struct {
	ID             uuid.UUID
	CategoryID     uuid.UUID
	CategoryName   string
	Name           string
	Description    string
	Sku            string
	Price          decimal.Decimal
	Quantity       int
	StockThreshold int
	IsActive       bool
	CreatedAtUtc   time.Time
	UpdatedAtUtc   time.Time
}

func NewProduct(categoryID uuid.UUID, name string, price decimal.Decimal, quantity int) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:             uuid.New(),
		CategoryID:     categoryID,
		Name:           name,
		Price:          price,
		Quantity:       quantity,
		StockThreshold: DefaultStockThreshold,
		IsActive:       true,
		CreatedAtUtc:   now,
		UpdatedAtUtc:   now,
	}
}

func (p *Product) Validate() error {
	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: product name is required", ErrValidation)
	case len(name) > 200:
		return fmt.Errorf("%w: product name must be at most 200 characters", ErrValidation)
	case p.CategoryID == uuid.Nil:
		return fmt.Errorf("%w: category is required", ErrValidation)
	case len(p.Sku) > MaxSkuLength:
		return fmt.Errorf("%w: sku must be at most %d characters", ErrValidation, MaxSkuLength)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	case p.Price.GreaterThan(MaxPrice):
		return fmt.Errorf("%w: price cannot exceed %s", ErrValidation, MaxPrice)
	case p.Quantity < 0:
		return fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	case p.Quantity > MaxQuantity:
		return fmt.Errorf("%w: quantity cannot exceed %d", ErrValidation, MaxQuantity)
	case p.StockThreshold < 0:
		return fmt.Errorf("%w: stock threshold cannot be negative", ErrValidation)
	case p.StockThreshold > MaxQuantity:
		return fmt.Errorf("%w: stock threshold cannot exceed %d", ErrValidation, MaxQuantity)
	}
	return nil
}

// IsLowStock reports whether on-hand stock is at or below the threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.StockThreshold
}

func (p *Product) CanSell(qty int) bool {
	return qty > 0 && p.Quantity >= qty
}

// Deduct removes delta units from stock. A negative delta puts units back.
func (p *Product) Deduct(delta int) {
	p.Quantity -= delta
	p.UpdatedAtUtc = time.Now().UTC()
}

func (p *Product) Restock(qty int) {
	p.Deduct(-qty)
}

// ProductFilter narrows product listings. Nil fields are ignored.
type ProductFilter struct {
	CategoryID  *uuid.UUID
	IsActive    *bool
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinQuantity *int
	MaxQuantity *int
	LowStock    bool
	Search      string
}

// Matches applies the filter in memory; the Postgres store translates it to SQL instead.
func (f ProductFilter) Matches(p *Product) bool {
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MinQuantity != nil && p.Quantity < *f.MinQuantity {
		return false
	}
	if f.MaxQuantity != nil && p.Quantity > *f.MaxQuantity {
		return false
	}
	if f.LowStock && !p.IsLowStock() {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		haystack := strings.ToLower(strings.Join([]string{p.Name, p.Description, p.Sku, p.CategoryName}, " "))
		if !strings.Contains(haystack, s) {
			return false
		}
	}
	return true
}
