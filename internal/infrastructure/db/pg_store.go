package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so one repository serves both.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PgStore struct {
	db          *sql.DB
	lockTimeout time.Duration
}

var _ domain.Store = (*PgStore)(nil)

// Open connects with the pgx stdlib driver and checks the connection.
func Open(ctx context.Context, dsn string, lockTimeout time.Duration) (*PgStore, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(10)
	return NewPgStore(conn, lockTimeout), nil
}

func NewPgStore(conn *sql.DB, lockTimeout time.Duration) *PgStore {
	return &PgStore{db: conn, lockTimeout: lockTimeout}
}

func (s *PgStore) DB() *sql.DB { return s.db }

func (s *PgStore) Close() error { return s.db.Close() }

func (s *PgStore) Products() domain.ProductRepository { return &PgProductRepository{q: s.db} }
func (s *PgStore) Categories() domain.CategoryRepository { return &PgCategoryRepository{q: s.db} }
func (s *PgStore) Sales() domain.SaleRepository { return &PgSaleRepository{q: s.db} }
func (s *PgStore) Users() domain.UserRepository { return &PgUserRepository{q: s.db} }
func (s *PgStore) Outbox() domain.OutboxRepository { return &PgOutboxRepository{q: s.db} }

// WithinTx runs fn in a read-committed transaction. Row locks taken with GetForUpdate wait at
// most lockTimeout; a timeout, deadlock or serialization failure comes back as
// ErrConcurrencyConflict and the transaction is rolled back.
func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return mapPgError(err)
	}
	defer tx.Rollback()

	if s.lockTimeout > 0 {
		// SET does not take bind parameters
		stmt := fmt.Sprintf("set local lock_timeout = %d", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return mapPgError(err)
		}
	}

	if err := fn(ctx, &txRepos{q: tx}); err != nil {
		return mapPgError(err)
	}
	return mapPgError(tx.Commit())
}

type txRepos struct {
	q querier
}

func (r *txRepos) Products() domain.ProductRepository { return &PgProductRepository{q: r.q} }
func (r *txRepos) Categories() domain.CategoryRepository { return &PgCategoryRepository{q: r.q} }
func (r *txRepos) Sales() domain.SaleRepository { return &PgSaleRepository{q: r.q} }
func (r *txRepos) Users() domain.UserRepository { return &PgUserRepository{q: r.q} }
func (r *txRepos) Outbox() domain.OutboxRepository { return &PgOutboxRepository{q: r.q} }

// mapPgError translates constraint and locking failures into domain errors. Other errors,
// including ones that already wrap a domain error, pass through unchanged.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
	case "23514": // check_violation
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.ConstraintName)
	case "22001", "22003": // string_data_right_truncation, numeric_value_out_of_range
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Message)
	case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, pgErr.Message)
	}
	return err
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
	}
	return mapPgError(err)
}

func expectOne(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
