package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

type PgCategoryRepository struct {
	q querier
}

func (r *PgCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	q := `
        select id, name, description, created_at_utc, updated_at_utc
        from inventory_categories
        where id = $1
    `
	var c domain.Category
	if err := r.q.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.CreatedAtUtc,
		&c.UpdatedAtUtc,
	); err != nil {
		return nil, notFound(err, "category", id)
	}
	return &c, nil
}

func (r *PgCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	q := `
        select id, name, description, created_at_utc, updated_at_utc
        from inventory_categories
        order by name
    `
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAtUtc, &c.UpdatedAtUtc); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

func (r *PgCategoryRepository) Insert(ctx context.Context, c *domain.Category) error {
	q := `
        insert into inventory_categories (id, name, description, created_at_utc, updated_at_utc)
        values ($1,$2,$3,$4,$5)
    `
	_, err := r.q.ExecContext(ctx, q, c.ID, c.Name, c.Description, c.CreatedAtUtc, c.UpdatedAtUtc)
	return mapPgError(err)
}

func (r *PgCategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	q := `
        update inventory_categories
        set name = $2, description = $3, updated_at_utc = $4
        where id = $1
    `
	res, err := r.q.ExecContext(ctx, q, c.ID, c.Name, c.Description, c.UpdatedAtUtc)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "category", c.ID)
}

// Delete relies on the foreign keys to cascade to products and their sales.
func (r *PgCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `delete from inventory_categories where id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "category", id)
}
