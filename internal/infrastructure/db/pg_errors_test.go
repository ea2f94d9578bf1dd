package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"23505", domain.ErrConflict},
		{"23503", domain.ErrNotFound},
		{"23514", domain.ErrValidation},
		{"22001", domain.ErrValidation},
		{"22003", domain.ErrValidation},
		{"40001", domain.ErrConcurrencyConflict},
		{"40P01", domain.ErrConcurrencyConflict},
		{"55P03", domain.ErrConcurrencyConflict},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := mapPgError(&pgconn.PgError{Code: tt.code, Message: "boom"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	other := &pgconn.PgError{Code: "42P01"}
	assert.Same(t, other, mapPgError(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapPgError(plain))
	assert.NoError(t, mapPgError(nil))
}
