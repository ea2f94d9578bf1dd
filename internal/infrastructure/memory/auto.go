package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// The auto* repositories wrap each call in its own transaction on the store.

type autoProducts struct{ s *Store }

func (a autoProducts) GetByID(ctx context.Context, id uuid.UUID) (p *domain.Product, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		p, err = r.Products().GetByID(ctx, id)
		return err
	})
	return p, err
}

func (a autoProducts) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return a.GetByID(ctx, id)
}

func (a autoProducts) List(ctx context.Context, f domain.ProductFilter) (ps []*domain.Product, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		ps, err = r.Products().List(ctx, f)
		return err
	})
	return ps, err
}

func (a autoProducts) Insert(ctx context.Context, p *domain.Product) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Products().Insert(ctx, p)
	})
}

func (a autoProducts) Update(ctx context.Context, p *domain.Product) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Products().Update(ctx, p)
	})
}

func (a autoProducts) Delete(ctx context.Context, id uuid.UUID) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Products().Delete(ctx, id)
	})
}

type autoCategories struct{ s *Store }

func (a autoCategories) GetByID(ctx context.Context, id uuid.UUID) (c *domain.Category, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		c, err = r.Categories().GetByID(ctx, id)
		return err
	})
	return c, err
}

func (a autoCategories) List(ctx context.Context) (cs []*domain.Category, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		cs, err = r.Categories().List(ctx)
		return err
	})
	return cs, err
}

func (a autoCategories) Insert(ctx context.Context, c *domain.Category) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Categories().Insert(ctx, c)
	})
}

func (a autoCategories) Update(ctx context.Context, c *domain.Category) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Categories().Update(ctx, c)
	})
}

func (a autoCategories) Delete(ctx context.Context, id uuid.UUID) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Categories().Delete(ctx, id)
	})
}

type autoSales struct{ s *Store }

func (a autoSales) GetByID(ctx context.Context, id uuid.UUID) (s *domain.Sale, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		s, err = r.Sales().GetByID(ctx, id)
		return err
	})
	return s, err
}

func (a autoSales) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return a.GetByID(ctx, id)
}

func (a autoSales) List(ctx context.Context, f domain.SaleFilter) (ss []*domain.Sale, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		ss, err = r.Sales().List(ctx, f)
		return err
	})
	return ss, err
}

func (a autoSales) Insert(ctx context.Context, s *domain.Sale) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Sales().Insert(ctx, s)
	})
}

func (a autoSales) Update(ctx context.Context, s *domain.Sale) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Sales().Update(ctx, s)
	})
}

func (a autoSales) Delete(ctx context.Context, id uuid.UUID) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Sales().Delete(ctx, id)
	})
}

type autoUsers struct{ s *Store }

func (a autoUsers) GetByID(ctx context.Context, id uuid.UUID) (u *domain.User, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		u, err = r.Users().GetByID(ctx, id)
		return err
	})
	return u, err
}

func (a autoUsers) GetByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		u, err = r.Users().GetByEmail(ctx, email)
		return err
	})
	return u, err
}

func (a autoUsers) List(ctx context.Context) (us []*domain.User, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		us, err = r.Users().List(ctx)
		return err
	})
	return us, err
}

func (a autoUsers) Insert(ctx context.Context, u *domain.User) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Users().Insert(ctx, u)
	})
}

func (a autoUsers) Update(ctx context.Context, u *domain.User) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Users().Update(ctx, u)
	})
}

func (a autoUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Users().Delete(ctx, id)
	})
}

type autoOutbox struct{ s *Store }

func (a autoOutbox) Insert(ctx context.Context, msg domain.OutboxMessage) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Outbox().Insert(ctx, msg)
	})
}

func (a autoOutbox) GetPendingBatch(ctx context.Context, maxRetry, batchSize int) (ms []domain.OutboxMessage, err error) {
	err = a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		ms, err = r.Outbox().GetPendingBatch(ctx, maxRetry, batchSize)
		return err
	})
	return ms, err
}

func (a autoOutbox) Save(ctx context.Context, msg domain.OutboxMessage) error {
	return a.s.WithinTx(ctx, func(ctx context.Context, r domain.Repositories) error {
		return r.Outbox().Save(ctx, msg)
	})
}
