package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

type PgProductRepository struct {
	q querier
}

const productColumns = `
        select p.id, p.category_id, c.name, p.name, p.description, p.sku,
               p.price, p.quantity, p.stock_threshold, p.is_active,
               p.created_at_utc, p.updated_at_utc
        from inventory_products p
        join inventory_categories c on c.id = p.category_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var sku sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.CategoryName,
		&p.Name,
		&p.Description,
		&sku,
		&p.Price,
		&p.Quantity,
		&p.StockThreshold,
		&p.IsActive,
		&p.CreatedAtUtc,
		&p.UpdatedAtUtc,
	); err != nil {
		return nil, err
	}
	p.Sku = sku.String
	return &p, nil
}

func (r *PgProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, productColumns+` where p.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return p, nil
}

// GetForUpdate takes a row lock on the product (not its category) for the rest of the transaction.
func (r *PgProductRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, productColumns+` where p.id = $1 for update of p`, id))
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return p, nil
}

func (r *PgProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CategoryID != nil {
		add("p.category_id = $%d", *f.CategoryID)
	}
	if f.IsActive != nil {
		add("p.is_active = $%d", *f.IsActive)
	}
	if f.MinPrice != nil {
		add("p.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= $%d", *f.MaxPrice)
	}
	if f.MinQuantity != nil {
		add("p.quantity >= $%d", *f.MinQuantity)
	}
	if f.MaxQuantity != nil {
		add("p.quantity <= $%d", *f.MaxQuantity)
	}
	if f.LowStock {
		where = append(where, "p.quantity <= p.stock_threshold")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add(`(p.name ilike $%[1]d or p.description ilike $%[1]d or coalesce(p.sku, '') ilike $%[1]d or c.name ilike $%[1]d)`,
			"%"+s+"%")
	}

	query := productColumns
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by p.name, p.id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PgProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	q := `
        insert into inventory_products
        (id, category_id, name, description, sku, price, quantity, stock_threshold, is_active, created_at_utc, updated_at_utc)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `
	_, err := r.q.ExecContext(ctx, q,
		p.ID,
		p.CategoryID,
		p.Name,
		p.Description,
		nullIfEmpty(p.Sku),
		p.Price,
		p.Quantity,
		p.StockThreshold,
		p.IsActive,
		p.CreatedAtUtc,
		p.UpdatedAtUtc,
	)
	return mapPgError(err)
}

func (r *PgProductRepository) Update(ctx context.Context, p *domain.Product) error {
	q := `
        update inventory_products
        set category_id = $2,
            name = $3,
            description = $4,
            sku = $5,
            price = $6,
            quantity = $7,
            stock_threshold = $8,
            is_active = $9,
            updated_at_utc = $10
        where id = $1
    `
	res, err := r.q.ExecContext(ctx, q,
		p.ID,
		p.CategoryID,
		p.Name,
		p.Description,
		nullIfEmpty(p.Sku),
		p.Price,
		p.Quantity,
		p.StockThreshold,
		p.IsActive,
		p.UpdatedAtUtc,
	)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "product", p.ID)
}

func (r *PgProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `delete from inventory_products where id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "product", id)
}
