package db

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

type PgUserRepository struct {
	q querier
}

const userColumns = `
        select id, email, username, first_name, last_name, role, bio,
               password_hash, is_superuser, date_joined_utc
        from app_users
`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&role,
		&u.Bio,
		&u.PasswordHash,
		&u.IsSuperuser,
		&u.DateJoined,
	); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, userColumns+` where id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.q.QueryRowContext(ctx, userColumns+` where email = $1`, email))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return u, nil
}

func (r *PgUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx, userColumns+` order by date_joined_utc`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *PgUserRepository) Insert(ctx context.Context, u *domain.User) error {
	q := `
        insert into app_users
        (id, email, username, first_name, last_name, role, bio, password_hash, is_superuser, date_joined_utc)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `
	_, err := r.q.ExecContext(ctx, q,
		u.ID, u.Email, u.Username, u.FirstName, u.LastName,
		string(u.Role), u.Bio, u.PasswordHash, u.IsSuperuser, u.DateJoined,
	)
	return mapPgError(err)
}

func (r *PgUserRepository) Update(ctx context.Context, u *domain.User) error {
	q := `
        update app_users
        set email = $2, username = $3, first_name = $4, last_name = $5,
            role = $6, bio = $7, password_hash = $8, is_superuser = $9
        where id = $1
    `
	res, err := r.q.ExecContext(ctx, q,
		u.ID, u.Email, u.Username, u.FirstName, u.LastName,
		string(u.Role), u.Bio, u.PasswordHash, u.IsSuperuser,
	)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "user", u.ID)
}

func (r *PgUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `delete from app_users where id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return expectOne(res, "user", id)
}
