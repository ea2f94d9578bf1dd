package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/cache"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/memory"
)

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, path, token string, body any) (int, testResponse) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func setupServer(t *testing.T) (apiClient, string) {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	tokens := auth.NewTokenManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	users := application.NewUserService(store, tokens, nil, logger)

	_, _, err := users.EnsureInitialAdmin(context.Background(), application.RegisterInput{
		Email:    "admin@example.com",
		Username: "admin",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	srv := NewServer(Deps{
		Ledger:  application.NewStockLedger(store, cache.Noop{}, logger),
		Catalog: application.NewCatalogService(store, cache.Noop{}, logger),
		Reports: application.NewReportService(store),
		Users:   users,
		Tokens:  tokens,
		Logger:  logger,
	})
	client := apiClient{t: t, handler: srv.Handler()}

	code, resp := client.do(http.MethodPost, "/api/user/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var login authResponse
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	return client, login.Tokens.Access
}

func decodeData[T any](t *testing.T, resp testResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func TestHealthAndSwagger(t *testing.T) {
	c, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/swagger.json", nil)
	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))
}

func TestAuthentication(t *testing.T) {
	c, _ := setupServer(t)

	code, _ := c.do(http.MethodGet, "/api/inventory/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodGet, "/api/inventory/products", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := c.do(http.MethodPost, "/api/user/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	c, token := setupServer(t)

	code, resp := c.do(http.MethodPost, "/api/inventory/categories", token, map[string]string{"name": "Tools"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	cat := decodeData[categoryResponse](t, resp)

	code, resp = c.do(http.MethodPost, "/api/inventory/products", token, map[string]any{
		"category":        cat.ID,
		"name":            "Hammer",
		"price":           "2.50",
		"quantity":        10,
		"stock_threshold": 5,
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	product := decodeData[productResponse](t, resp)
	assert.False(t, product.LowStock)

	code, resp = c.do(http.MethodPost, "/api/inventory/sales", token, map[string]any{
		"product":       product.ID,
		"quantity_sold": 6,
		"total_price":   "1.00",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	sale := decodeData[saleResponse](t, resp)
	assert.True(t, decimal.NewFromInt(15).Equal(sale.TotalPrice))
	require.NotNil(t, sale.SoldBy)

	code, resp = c.do(http.MethodGet, "/api/inventory/products/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, code)
	product = decodeData[productResponse](t, resp)
	assert.Equal(t, 4, product.Quantity)
	assert.True(t, product.LowStock)

	code, resp = c.do(http.MethodGet, "/api/inventory/products/low-stock", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 1, *resp.Count)

	code, _ = c.do(http.MethodPost, "/api/inventory/sales", token, map[string]any{
		"product":       product.ID,
		"quantity_sold": 5,
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = c.do(http.MethodPost, "/api/inventory/sales", token, map[string]any{
		"product":       product.ID,
		"quantity_sold": 0,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	saleURL := "/api/inventory/sales/" + sale.ID.String()
	code, resp = c.do(http.MethodPut, saleURL, token, map[string]any{"quantity_sold": 8})
	require.Equal(t, http.StatusOK, code, resp.Message)
	sale = decodeData[saleResponse](t, resp)
	assert.True(t, decimal.NewFromInt(20).Equal(sale.TotalPrice))

	code, _ = c.do(http.MethodPut, saleURL, token, map[string]any{"quantity_sold": 50})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = c.do(http.MethodDelete, saleURL, token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = c.do(http.MethodGet, saleURL, token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = c.do(http.MethodGet, "/api/inventory/products/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 10, decodeData[productResponse](t, resp).Quantity)

	code, resp = c.do(http.MethodPost, "/api/inventory/products/"+product.ID.String()+"/stock-adjustments", token,
		map[string]any{"delta": -11, "reason": "damaged"})
	assert.Equal(t, http.StatusConflict, code, resp.Message)

	code, resp = c.do(http.MethodGet, "/api/inventory/reports/summary", token, nil)
	require.Equal(t, http.StatusOK, code)
	sum := decodeData[summaryResponse](t, resp)
	assert.Equal(t, 1, sum.TotalProducts)
	assert.Equal(t, 0, sum.TotalSales)
}

func TestRegularUserCannotWrite(t *testing.T) {
	c, adminToken := setupServer(t)

	code, resp := c.do(http.MethodPost, "/api/user/auth/register", "", map[string]string{
		"email":     "clerk@example.com",
		"username":  "clerk",
		"password":  "password-1",
		"password2": "password-1",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	reg := decodeData[authResponse](t, resp)
	token := reg.Tokens.Access
	assert.Equal(t, "user", reg.User.Role)

	code, _ = c.do(http.MethodGet, "/api/inventory/categories", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = c.do(http.MethodPost, "/api/inventory/categories", token, map[string]string{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodGet, "/api/inventory/sales", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = c.do(http.MethodGet, "/api/user/users", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodPut, "/api/user/profile", token, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = c.do(http.MethodPut, "/api/user/profile", token, map[string]string{"bio": "counts things"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, "counts things", decodeData[userResponse](t, resp).Bio)

	code, _ = c.do(http.MethodGet, "/api/user/users/"+reg.User.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = c.do(http.MethodPost, "/api/user/auth/register", "", map[string]string{
		"email":     "clerk@example.com",
		"password":  "password-1",
		"password2": "password-1",
	})
	assert.Equal(t, http.StatusConflict, code, resp.Message)
}

func TestRegularUserReadsSales(t *testing.T) {
	c, adminToken := setupServer(t)

	code, resp := c.do(http.MethodPost, "/api/inventory/categories", adminToken, map[string]string{"name": "Paint"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	cat := decodeData[categoryResponse](t, resp)

	code, resp = c.do(http.MethodPost, "/api/inventory/products", adminToken, map[string]any{
		"category": cat.ID,
		"name":     "Brush",
		"price":    "3.00",
		"quantity": 8,
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	product := decodeData[productResponse](t, resp)

	code, resp = c.do(http.MethodPost, "/api/inventory/sales", adminToken, map[string]any{
		"product":       product.ID,
		"quantity_sold": 2,
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	sale := decodeData[saleResponse](t, resp)

	code, resp = c.do(http.MethodPost, "/api/user/auth/register", "", map[string]string{
		"email":     "viewer@example.com",
		"password":  "password-1",
		"password2": "password-1",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	token := decodeData[authResponse](t, resp).Tokens.Access

	code, resp = c.do(http.MethodGet, "/api/inventory/sales", token, nil)
	require.Equal(t, http.StatusOK, code, resp.Message)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 1, *resp.Count)
	sales := decodeData[[]saleResponse](t, resp)
	require.Len(t, sales, 1)
	assert.Equal(t, sale.ID, sales[0].ID)

	code, resp = c.do(http.MethodGet, "/api/inventory/sales/"+sale.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, 2, decodeData[saleResponse](t, resp).QuantitySold)

	code, _ = c.do(http.MethodPost, "/api/inventory/sales", token, map[string]any{
		"product":       product.ID,
		"quantity_sold": 1,
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodDelete, "/api/inventory/sales/"+sale.ID.String(), token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRefreshToken(t *testing.T) {
	c, _ := setupServer(t)

	_, resp := c.do(http.MethodPost, "/api/user/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "s3cret-pass",
	})
	login := decodeData[authResponse](t, resp)

	code, resp := c.do(http.MethodPost, "/api/user/auth/token/refresh", "", map[string]string{"refresh": login.Tokens.Refresh})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.NotEmpty(t, decodeData[tokensResponse](t, resp).Access)

	// an access token is not accepted as a refresh token
	code, _ = c.do(http.MethodPost, "/api/user/auth/token/refresh", "", map[string]string{"refresh": login.Tokens.Access})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestValidationErrors(t *testing.T) {
	c, token := setupServer(t)

	code, resp := c.do(http.MethodPost, "/api/inventory/products", token, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "category")

	code, _ = c.do(http.MethodGet, "/api/inventory/products?min_price=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodGet, "/api/inventory/products/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
