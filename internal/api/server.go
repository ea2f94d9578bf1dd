package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
)

// Server groups the HTTP layer dependencies.
type Server struct {
	ledger  *application.StockLedger
	catalog *application.CatalogService
	reports *application.ReportService
	users   *application.UserService
	tokens  *auth.TokenManager
	logger  *zap.Logger
	timeout time.Duration
}

type Deps struct {
	Ledger  *application.StockLedger
	Catalog *application.CatalogService
	Reports *application.ReportService
	Users   *application.UserService
	Tokens  *auth.TokenManager
	Logger  *zap.Logger
	// RequestTimeout bounds each request; zero means 30s.
	RequestTimeout time.Duration
}

func NewServer(d Deps) *Server {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ledger:  d.Ledger,
		catalog: d.Catalog,
		reports: d.Reports,
		users:   d.Users,
		tokens:  d.Tokens,
		logger:  logger,
		timeout: timeout,
	}
}

// Handler returns the router wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Routes(), "stockledger")
}

// Routes registers every HTTP route on a fresh chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(s.authenticate)

	r.Get("/health", s.handleHealth)
	r.Get("/swagger.json", s.handleSwaggerJson)

	r.Route("/api/user", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handle(s.register))
			r.Post("/admin/register", s.handle(s.registerAdmin))
			r.Post("/login", s.handle(s.login))
			r.Post("/token/refresh", s.handle(s.refresh))
			r.Post("/google", s.handle(s.googleLogin))
		})
		r.Get("/profile", s.handle(s.getProfile))
		r.Put("/profile", s.handle(s.updateProfile))
		r.Get("/users", s.handle(s.listUsers))
		r.Get("/users/{id}", s.handle(s.getUser))
		r.Put("/users/{id}", s.handle(s.updateUser))
		r.Delete("/users/{id}", s.handle(s.deleteUser))
	})

	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/categories", s.handle(s.listCategories))
		r.Post("/categories", s.handle(s.createCategory))
		r.Get("/categories/{id}", s.handle(s.getCategory))
		r.Put("/categories/{id}", s.handle(s.updateCategory))
		r.Delete("/categories/{id}", s.handle(s.deleteCategory))

		r.Get("/products", s.handle(s.listProducts))
		r.Post("/products", s.handle(s.createProduct))
		r.Get("/products/low-stock", s.handle(s.lowStockProducts))
		r.Get("/products/{id}", s.handle(s.getProduct))
		r.Put("/products/{id}", s.handle(s.updateProduct))
		r.Delete("/products/{id}", s.handle(s.deleteProduct))
		r.Post("/products/{id}/stock-adjustments", s.handle(s.adjustStock))

		r.Get("/sales", s.handle(s.listSales))
		r.Post("/sales", s.handle(s.recordSale))
		r.Get("/sales/{id}", s.handle(s.getSale))
		r.Put("/sales/{id}", s.handle(s.reviseSale))
		r.Delete("/sales/{id}", s.handle(s.reverseSale))

		r.Get("/reports/summary", s.handle(s.summary))
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleSwaggerJson(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(openAPISpec))
}
