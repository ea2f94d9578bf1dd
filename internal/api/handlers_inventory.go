package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

func authorize(r *http.Request, action auth.Action) (auth.Principal, error) {
	p := auth.FromContext(r.Context())
	return p, auth.Require(p, action, uuid.Nil)
}

// Categories

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	cats, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		return err
	}
	return okList(w, mapSlice(cats, toCategory))
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	c, err := s.catalog.GetCategory(r.Context(), id)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "", toCategory(c))
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	c, err := s.catalog.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return ok(w, http.StatusCreated, "category created", toCategory(c))
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	c, err := s.catalog.UpdateCategory(r.Context(), id, req.Name, req.Description)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "category updated", toCategory(c))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteCategory(r.Context(), id); err != nil {
		return err
	}
	return ok(w, http.StatusOK, "category deleted", nil)
}

// Products

func productFilter(q url.Values) (domain.ProductFilter, error) {
	var f domain.ProductFilter
	if v := q.Get("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("%w: category is not a valid uuid", domain.ErrValidation)
		}
		f.CategoryID = &id
	}
	if v := q.Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: is_active must be a boolean", domain.ErrValidation)
		}
		f.IsActive = &b
	}
	for key, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if v := q.Get(key); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, key)
			}
			*dst = &d
		}
	}
	for key, dst := range map[string]**int{"min_quantity": &f.MinQuantity, "max_quantity": &f.MaxQuantity} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
			}
			*dst = &n
		}
	}
	if v := q.Get("low_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: low_stock must be a boolean", domain.ErrValidation)
		}
		f.LowStock = b
	}
	f.Search = q.Get("search")
	return f, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	f, err := productFilter(r.URL.Query())
	if err != nil {
		return err
	}
	products, err := s.catalog.ListProducts(r.Context(), f)
	if err != nil {
		return err
	}
	return okList(w, mapSlice(products, toProduct))
}

func (s *Server) lowStockProducts(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	products, err := s.catalog.LowStock(r.Context())
	if err != nil {
		return err
	}
	return okList(w, mapSlice(products, toProduct))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	p, err := s.catalog.GetProduct(r.Context(), id)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "", toProduct(p))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	var req productRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	p, err := s.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		return err
	}
	return ok(w, http.StatusCreated, "product created", toProduct(p))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req productRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return fmt.Errorf("%w: quantity is required", domain.ErrValidation)
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	p, err := s.catalog.UpdateProduct(r.Context(), id, in)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "product updated", toProduct(p))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		return err
	}
	return ok(w, http.StatusOK, "product deleted", nil)
}

func (s *Server) adjustStock(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req stockAdjustmentRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	p, err := s.catalog.AdjustStock(r.Context(), id, req.Delta, req.Reason)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "stock adjusted", toProduct(p))
}

// Any authenticated user may read sales. Writes are admin-only.

func saleFilter(q url.Values) (domain.SaleFilter, error) {
	var f domain.SaleFilter
	for key, dst := range map[string]**uuid.UUID{"product": &f.ProductID, "sold_by": &f.SoldBy} {
		if v := q.Get(key); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s is not a valid uuid", domain.ErrValidation, key)
			}
			*dst = &id
		}
	}
	f.Search = q.Get("search")
	return f, nil
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	f, err := saleFilter(r.URL.Query())
	if err != nil {
		return err
	}
	sales, err := s.ledger.ListSales(r.Context(), f)
	if err != nil {
		return err
	}
	return okList(w, mapSlice(sales, toSale))
}

func (s *Server) getSale(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	sale, err := s.ledger.GetSale(r.Context(), id)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "", toSale(sale))
}

func (s *Server) recordSale(w http.ResponseWriter, r *http.Request) error {
	p, err := authorize(r, auth.ActionWrite)
	if err != nil {
		return err
	}
	var req saleRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	productID, err := uuid.Parse(req.Product)
	if err != nil {
		return fmt.Errorf("%w: product is not a valid uuid", domain.ErrValidation)
	}
	sale, err := s.ledger.RecordSale(r.Context(), productID, req.QuantitySold, application.SoldBy(p.UserID))
	if err != nil {
		return err
	}
	return ok(w, http.StatusCreated, "sale recorded", toSale(sale))
}

func (s *Server) reviseSale(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req saleUpdateRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Product != "" {
		current, err := s.ledger.GetSale(r.Context(), id)
		if err != nil {
			return err
		}
		if current.ProductID != uuid.MustParse(req.Product) {
			return fmt.Errorf("%w: a sale's product cannot be changed", domain.ErrValidation)
		}
	}
	sale, err := s.ledger.ReviseSale(r.Context(), id, req.QuantitySold)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "sale updated", toSale(sale))
}

func (s *Server) reverseSale(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionWrite); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.ledger.ReverseSale(r.Context(), id); err != nil {
		return err
	}
	return ok(w, http.StatusOK, "sale reversed", nil)
}

// Reports

func (s *Server) summary(w http.ResponseWriter, r *http.Request) error {
	if _, err := authorize(r, auth.ActionRead); err != nil {
		return err
	}
	sum, err := s.reports.Summary(r.Context())
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, "", toSummary(sum))
}
