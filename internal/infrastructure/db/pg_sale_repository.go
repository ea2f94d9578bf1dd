package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

type PgSaleRepository struct {
	q querier
}

const saleColumns = `
        select s.id, s.product_id, p.name, s.quantity_sold, s.unit_price, s.total_price,
               s.sold_by, coalesce(u.username, ''), s.reference,
               s.sale_date_utc, s.updated_at_utc
        from inventory_sales s
        join inventory_products p on p.id = s.product_id
        left join app_users u on u.id = s.sold_by
`

func scanSale(row rowScanner) (*domain.Sale, error) {
	var s domain.Sale
	var soldBy uuid.NullUUID
	var ref sql.NullString
	if err := row.Scan(
		&s.ID,
		&s.ProductID,
		&s.ProductName,
		&s.QuantitySold,
		&s.UnitPrice,
		&s.TotalPrice,
		&soldBy,
		&s.SoldByUsername,
		&ref,
		&s.SaleDateUtc,
		&s.UpdatedAtUtc,
	); err != nil {
		return nil, err
	}
	if soldBy.Valid {
		id := soldBy.UUID
		s.SoldBy = &id
	}
	s.Reference = ref.String
	return &s, nil
}

func (r *PgSaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	s, err := scanSale(r.q.QueryRowContext(ctx, saleColumns+` where s.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "sale", id)
	}
	return s, nil
}

// GetForUpdate locks only the sale row; callers lock the product separately, after the sale.
func (r *PgSaleRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	s, err := scanSale(r.q.QueryRowContext(ctx, saleColumns+` where s.id = $1 for update of s`, id))
	if err != nil {
		return nil, notFound(err, "sale", id)
	}
	return s, nil
}

func (r *PgSaleRepository) List(ctx context.Context, f domain.SaleFilter) ([]*domain.Sale, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != nil {
		add("s.product_id = $%d", *f.ProductID)
	}
	if f.SoldBy != nil {
		add("s.sold_by = $%d", *f.SoldBy)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("p.name ilike $%d", "%"+s+"%")
	}

	query := saleColumns
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by s.sale_date_utc desc"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []*domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func soldByArg(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (r *PgSaleRepository) Insert(ctx context.Context, s *domain.Sale) error {
	q := `
        insert into inventory_sales
        (id, product_id, quantity_sold, unit_price, total_price, sold_by, reference, sale_date_utc, updated_at_utc)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `
	_, err := r.q.ExecContext(ctx, q,
		s.ID,
		s.ProductID,
		s.QuantitySold,
		s.UnitPrice,
		s.TotalPrice,
		soldByArg(s.SoldBy),
		nullIfEmpty(s.Reference),
		s.SaleDateUtc,
		s.UpdatedAtUtc,
	)
	return mapPgError(err)
}

func (r *PgSaleRepository) Update(ctx context.Context, s *domain.Sale) error {
	q := `
        update inventory_sales
        set quantity_sold = $2,
            total_price = $3,
            updated_at_utc = $4
        where id = $1
    `
	res, err := r.q.ExecContext(ctx, q, s.ID, s.QuantitySold, s.TotalPrice, s.UpdatedAtUtc)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "sale", s.ID)
}

func (r *PgSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `delete from inventory_sales where id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "sale", id)
}
