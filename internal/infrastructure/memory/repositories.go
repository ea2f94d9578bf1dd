package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// Products

type productRepo struct{ st *state }

func (r productRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	p.CategoryName = r.st.categories[p.CategoryID].Name
	return &p, nil
}

// GetForUpdate needs no extra locking: the whole transaction holds the store mutex.
func (r productRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r productRepo) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(r.st.products))
	for id := range r.st.products {
		p, _ := r.GetByID(ctx, id)
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r productRepo) Insert(_ context.Context, p *domain.Product) error {
	if _, ok := r.st.products[p.ID]; ok {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
	}
	if err := r.checkRefs(p); err != nil {
		return err
	}
	r.st.products[p.ID] = *p
	return nil
}

func (r productRepo) Update(_ context.Context, p *domain.Product) error {
	if _, ok := r.st.products[p.ID]; !ok {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
	}
	if err := r.checkRefs(p); err != nil {
		return err
	}
	r.st.products[p.ID] = *p
	return nil
}

func (r productRepo) checkRefs(p *domain.Product) error {
	if _, ok := r.st.categories[p.CategoryID]; !ok {
		return fmt.Errorf("category %s: %w", p.CategoryID, domain.ErrNotFound)
	}
	if p.Sku == "" {
		return nil
	}
	for id, other := range r.st.products {
		if id != p.ID && other.Sku == p.Sku {
			return fmt.Errorf("sku %q: %w", p.Sku, domain.ErrConflict)
		}
	}
	return nil
}

func (r productRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.st.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	delete(r.st.products, id)
	for sid, s := range r.st.sales {
		if s.ProductID == id {
			delete(r.st.sales, sid)
		}
	}
	return nil
}

// Categories

type categoryRepo struct{ st *state }

func (r categoryRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := r.st.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (r categoryRepo) List(context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(r.st.categories))
	for _, c := range r.st.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r categoryRepo) Insert(_ context.Context, c *domain.Category) error {
	if err := r.checkName(c); err != nil {
		return err
	}
	r.st.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) Update(_ context.Context, c *domain.Category) error {
	if _, ok := r.st.categories[c.ID]; !ok {
		return fmt.Errorf("category %s: %w", c.ID, domain.ErrNotFound)
	}
	if err := r.checkName(c); err != nil {
		return err
	}
	r.st.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) checkName(c *domain.Category) error {
	for id, other := range r.st.categories {
		if id != c.ID && strings.EqualFold(other.Name, c.Name) {
			return fmt.Errorf("category %q: %w", c.Name, domain.ErrConflict)
		}
	}
	return nil
}

// Delete cascades to the category's products and their sales.
func (r categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.st.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	products := productRepo{r.st}
	for pid, p := range r.st.products {
		if p.CategoryID == id {
			_ = products.Delete(ctx, pid)
		}
	}
	delete(r.st.categories, id)
	return nil
}

// Sales

type saleRepo struct{ st *state }

func (r saleRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok {
		return nil, fmt.Errorf("sale %s: %w", id, domain.ErrNotFound)
	}
	r.decorate(&s)
	return &s, nil
}

func (r saleRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r saleRepo) decorate(s *domain.Sale) {
	if p, ok := r.st.products[s.ProductID]; ok {
		s.ProductName = p.Name
	}
	s.SoldByUsername = ""
	if s.SoldBy != nil {
		if u, ok := r.st.users[*s.SoldBy]; ok {
			s.SoldByUsername = u.Username
		}
	}
}

func (r saleRepo) List(_ context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	out := make([]*domain.Sale, 0, len(r.st.sales))
	for _, s := range r.st.sales {
		s := s
		r.decorate(&s)
		if filter.Matches(&s) {
			out = append(out, &s)
		}
	}
	// newest first
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDateUtc.After(out[j].SaleDateUtc) })
	return out, nil
}

func (r saleRepo) Insert(_ context.Context, s *domain.Sale) error {
	if _, ok := r.st.sales[s.ID]; ok {
		return fmt.Errorf("sale %s: %w", s.ID, domain.ErrConflict)
	}
	if _, ok := r.st.products[s.ProductID]; !ok {
		return fmt.Errorf("product %s: %w", s.ProductID, domain.ErrNotFound)
	}
	if s.Reference != "" {
		for _, other := range r.st.sales {
			if other.Reference == s.Reference {
				return fmt.Errorf("sale reference %q: %w", s.Reference, domain.ErrConflict)
			}
		}
	}
	r.st.sales[s.ID] = *s
	return nil
}

func (r saleRepo) Update(_ context.Context, s *domain.Sale) error {
	if _, ok := r.st.sales[s.ID]; !ok {
		return fmt.Errorf("sale %s: %w", s.ID, domain.ErrNotFound)
	}
	r.st.sales[s.ID] = *s
	return nil
}

func (r saleRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.st.sales[id]; !ok {
		return fmt.Errorf("sale %s: %w", id, domain.ErrNotFound)
	}
	delete(r.st.sales, id)
	return nil
}

// Users

type userRepo struct{ st *state }

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.st.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
}

func (r userRepo) List(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.st.users))
	for _, u := range r.st.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateJoined.Before(out[j].DateJoined) })
	return out, nil
}

func (r userRepo) Insert(_ context.Context, u *domain.User) error {
	if err := r.checkEmail(u); err != nil {
		return err
	}
	r.st.users[u.ID] = *u
	return nil
}

func (r userRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.st.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, domain.ErrNotFound)
	}
	if err := r.checkEmail(u); err != nil {
		return err
	}
	r.st.users[u.ID] = *u
	return nil
}

func (r userRepo) checkEmail(u *domain.User) error {
	for id, other := range r.st.users {
		if id != u.ID && other.Email == u.Email {
			return fmt.Errorf("email %q: %w", u.Email, domain.ErrConflict)
		}
	}
	return nil
}

// Delete keeps the user's sales and clears their seller.
func (r userRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.st.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	delete(r.st.users, id)
	for sid, s := range r.st.sales {
		if s.SoldBy != nil && *s.SoldBy == id {
			s.SoldBy = nil
			r.st.sales[sid] = s
		}
	}
	return nil
}

// Outbox

type outboxRepo struct{ st *state }

func (r outboxRepo) Insert(_ context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.OccurredAtUtc == 0 {
		msg.OccurredAtUtc = time.Now().UTC().Unix()
	}
	r.st.outbox = append(r.st.outbox, msg)
	return nil
}

// GetPendingBatch returns messages in insertion order.
func (r outboxRepo) GetPendingBatch(_ context.Context, maxRetry, batchSize int) ([]domain.OutboxMessage, error) {
	var out []domain.OutboxMessage
	for _, m := range r.st.outbox {
		if len(out) >= batchSize {
			break
		}
		if m.ProcessedAtUtc == nil && m.RetryCount < maxRetry {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r outboxRepo) Save(_ context.Context, msg domain.OutboxMessage) error {
	for i := range r.st.outbox {
		if r.st.outbox[i].ID == msg.ID {
			r.st.outbox[i] = msg
			return nil
		}
	}
	return fmt.Errorf("outbox message %s: %w", msg.ID, domain.ErrNotFound)
}
