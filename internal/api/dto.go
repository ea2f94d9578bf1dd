package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names rather than Go ones
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode parses the JSON body into dst and validates its struct tags.
func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request payload", domain.ErrValidation)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id is not a valid uuid", domain.ErrValidation)
	}
	return id, nil
}

// Users

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"max=150"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

func (r registerRequest) input() application.RegisterInput {
	return application.RegisterInput{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		Password2: r.Password2,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type googleLoginRequest struct {
	Code        string `json:"code" validate:"required_without=AccessToken"`
	AccessToken string `json:"access_token"`
}

type profileRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=150"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin user"`
}

func (r profileRequest) input() application.ProfileInput {
	in := application.ProfileInput{
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	return in
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        string    `json:"role"`
	Bio         string    `json:"bio"`
	IsSuperuser bool      `json:"is_superuser"`
	DateJoined  time.Time `json:"date_joined"`
}

func toUser(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        string(u.Role),
		Bio:         u.Bio,
		IsSuperuser: u.IsSuperuser,
		DateJoined:  u.DateJoined,
	}
}

type tokensResponse struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh,omitempty"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitzero"`
}

type authResponse struct {
	User   userResponse   `json:"user"`
	Tokens tokensResponse `json:"tokens"`
}

func toAuth(res *application.AuthResult) authResponse {
	return authResponse{
		User: toUser(res.User),
		Tokens: tokensResponse{
			Access:           res.Tokens.Access,
			Refresh:          res.Tokens.Refresh,
			AccessExpiresAt:  res.Tokens.AccessExpiresAt,
			RefreshExpiresAt: res.Tokens.RefreshExpiresAt,
		},
	}
}

// Inventory

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

type categoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCategory(c *domain.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAtUtc,
		UpdatedAt:   c.UpdatedAtUtc,
	}
}

type productRequest struct {
	Category       string           `json:"category" validate:"required,uuid"`
	Name           string           `json:"name" validate:"required,max=200"`
	Description    string           `json:"description"`
	Sku            string           `json:"sku" validate:"max=100"`
	Price          *decimal.Decimal `json:"price"`
	Quantity       *int             `json:"quantity" validate:"omitempty,gte=0,lte=2147483647"`
	StockThreshold *int             `json:"stock_threshold" validate:"omitempty,gte=0,lte=2147483647"`
	IsActive       *bool            `json:"is_active"`
}

func (r productRequest) input() (application.ProductInput, error) {
	if r.Price == nil {
		return application.ProductInput{}, fmt.Errorf("%w: price is required", domain.ErrValidation)
	}
	categoryID, err := uuid.Parse(r.Category)
	if err != nil {
		return application.ProductInput{}, fmt.Errorf("%w: category is not a valid uuid", domain.ErrValidation)
	}
	in := application.ProductInput{
		CategoryID:     categoryID,
		Name:           r.Name,
		Description:    r.Description,
		Sku:            r.Sku,
		Price:          *r.Price,
		StockThreshold: r.StockThreshold,
		IsActive:       r.IsActive,
	}
	if r.Quantity != nil {
		in.Quantity = *r.Quantity
	}
	return in, nil
}

type productResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Category       uuid.UUID       `json:"category"`
	CategoryName   string          `json:"category_name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Description    string          `json:"description"`
	StockThreshold int             `json:"stock_threshold"`
	LowStock       bool            `json:"low_stock"`
	Sku            string          `json:"sku"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toProduct(p *domain.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.CategoryID,
		CategoryName:   p.CategoryName,
		Price:          p.Price,
		Quantity:       p.Quantity,
		Description:    p.Description,
		StockThreshold: p.StockThreshold,
		LowStock:       p.IsLowStock(),
		Sku:            p.Sku,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAtUtc,
		UpdatedAt:      p.UpdatedAtUtc,
	}
}

type stockAdjustmentRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason" validate:"max=200"`
}

// saleRequest ignores any total_price sent by the client; totals are always computed.
type saleRequest struct {
	Product      string `json:"product" validate:"required,uuid"`
	QuantitySold int    `json:"quantity_sold"`
}

type saleUpdateRequest struct {
	Product      string `json:"product" validate:"omitempty,uuid"`
	QuantitySold int    `json:"quantity_sold"`
}

type saleResponse struct {
	ID             uuid.UUID       `json:"id"`
	Product        uuid.UUID       `json:"product"`
	ProductName    string          `json:"product_name"`
	QuantitySold   int             `json:"quantity_sold"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	SoldBy         *uuid.UUID      `json:"sold_by"`
	SoldByUsername string          `json:"sold_by_username,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	SaleDate       time.Time       `json:"sale_date"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toSale(s *domain.Sale) saleResponse {
	return saleResponse{
		ID:             s.ID,
		Product:        s.ProductID,
		ProductName:    s.ProductName,
		QuantitySold:   s.QuantitySold,
		UnitPrice:      s.UnitPrice,
		TotalPrice:     s.TotalPrice,
		SoldBy:         s.SoldBy,
		SoldByUsername: s.SoldByUsername,
		Reference:      s.Reference,
		SaleDate:       s.SaleDateUtc,
		UpdatedAt:      s.UpdatedAtUtc,
	}
}

type categoryCountResponse struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type summaryResponse struct {
	TotalProducts        int                     `json:"total_products"`
	ActiveProducts       int                     `json:"active_products"`
	LowStockProducts     int                     `json:"low_stock_products"`
	AveragePrice         decimal.Decimal         `json:"average_price"`
	TotalInventoryValue  decimal.Decimal         `json:"total_inventory_value"`
	CategoryDistribution []categoryCountResponse `json:"category_distribution"`
	TotalSales           int                     `json:"total_sales"`
	UnitsSold            int                     `json:"units_sold"`
	TotalRevenue         decimal.Decimal         `json:"total_revenue"`
}

func toSummary(s *application.Summary) summaryResponse {
	dist := make([]categoryCountResponse, 0, len(s.CategoryDistribution))
	for _, c := range s.CategoryDistribution {
		dist = append(dist, categoryCountResponse{Name: c.Name, Value: c.Value})
	}
	return summaryResponse{
		TotalProducts:        s.TotalProducts,
		ActiveProducts:       s.ActiveProducts,
		LowStockProducts:     s.LowStockProducts,
		AveragePrice:         s.AveragePrice,
		TotalInventoryValue:  s.TotalInventoryValue,
		CategoryDistribution: dist,
		TotalSales:           s.TotalSales,
		UnitsSold:            s.UnitsSold,
		TotalRevenue:         s.TotalRevenue,
	}
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}

// caller returns the authenticated Principal or ErrUnauthorized.
func caller(r *http.Request) (auth.Principal, error) {
	p := auth.FromContext(r.Context())
	if !p.Authenticated() {
		return p, domain.ErrUnauthorized
	}
	return p, nil
}
