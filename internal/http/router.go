package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Deps struct {
	Logger           *zap.Logger
	Handler          *Handler
	CheckoutLimiter  *RateLimiter
	CORSAllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := d.Handler

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CorrelationID)
	r.Use(RequestLogger(logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionID)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Delete("/items/{productId}", h.RemoveItem)
			r.Post("/items/{productId}/increase", h.IncreaseItem)
			r.Post("/items/{productId}/decrease", h.DecreaseItem)
		})

		r.Route("/buy-now", func(r chi.Router) {
			r.Get("/", h.GetBuyNow)
			r.Post("/", h.AddBuyNow)
			r.Delete("/", h.ClearBuyNow)
		})

		r.Group(func(r chi.Router) {
			if d.CheckoutLimiter != nil {
				r.Use(d.CheckoutLimiter.Limit)
			}
			r.Post("/checkout", h.Checkout)
		})

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderId}", h.GetOrder)
		r.Get("/orders/{orderId}/invoice", h.GetInvoice)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)

		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{category}/products", h.ListProducts)
		r.Get("/categories/{category}/products/{productId}", h.GetProduct)
	})

	origins := d.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderSessionID, HeaderCorrelationID},
		ExposedHeaders: []string{HeaderSessionID, HeaderCorrelationID},
	})

	return c.Handler(r)
}
