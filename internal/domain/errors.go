package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidQuantity     = errors.New("quantity sold must be greater than zero")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrConflict            = errors.New("already exists")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("authentication required")
	ErrForbidden           = errors.New("permission denied")
)

// InsufficientStockError carries the numbers behind a rejected stock movement.
// It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func NewInsufficientStockError(p *Product, requested int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Quantity,
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("cannot sell %d units of %s, only %d available in stock",
		e.Requested, e.ProductName, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
