package router

import (
	"net/http"

	"shopfront/internal/auth"
	"shopfront/internal/handler"
	"shopfront/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Products *handler.ProductHandler
	Reviews  *handler.ReviewHandler
	Cart     *handler.CartHandler
	Wishlist *handler.WishlistHandler
	Orders   *handler.OrderHandler
	Admin    *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// A nil gatherer leaves /metrics unmounted.
func New(
	h Handlers,
	tokens *auth.TokenManager,
	gatherer prometheus.Gatherer,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Order matters: the request ID must exist before logging and recovery read it.
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Catalogue browsing is public.
		r.Get("/products", h.Products.GetAll)
		r.Get("/products/{id}", h.Products.GetByID)
		r.Get("/products/{id}/reviews", h.Reviews.List)
		r.Get("/categories", h.Products.Categories)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens, logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.Get)
				r.Delete("/", h.Cart.Clear)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{productId}", h.Cart.UpdateItem)
				r.Delete("/items/{productId}", h.Cart.RemoveItem)
			})

			r.Post("/products/{id}/reviews", h.Reviews.Create)
			r.Post("/reviews/{reviewId}/helpful", h.Reviews.MarkHelpful)

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.Wishlist.Get)
				r.Post("/", h.Wishlist.Add)
				r.Delete("/{productId}", h.Wishlist.Remove)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Orders.Place)
				r.Get("/", h.Orders.List)
				r.Get("/{orderId}", h.Orders.GetByID)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logger))
				r.Get("/orders", h.Admin.ListOrders)
				r.Put("/orders/{orderId}/status", h.Admin.UpdateStatus)
				r.Get("/stats", h.Admin.Stats)
				r.Get("/analytics", h.Admin.Analytics)
			})
		})
	})

	return otelhttp.NewHandler(r, "shopfront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
