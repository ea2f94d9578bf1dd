package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID           uuid.UUID
	Name         string
	Description  string
	CreatedAtUtc time.Time
	UpdatedAtUtc time.Time
}

func NewCategory(name, description string) *Category {
	now := time.Now().UTC()
	return &Category{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Description:  description,
		CreatedAtUtc: now,
		UpdatedAtUtc: now,
	}
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("%w: category name must be at most 100 characters", ErrValidation)
	}
	return nil
}
