package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linemk/order-manager/internal/app/handlers"
	"github.com/linemk/order-manager/internal/lib/logger/handlers/urllog"
	"github.com/linemk/order-manager/internal/service"
)

// Services - зависимости HTTP-слоя
type Services struct {
	Products service.ProductService
	Orders   service.OrderService
	DB       handlers.Pinger
}

// NewRouter собирает chi-роутер со всеми эндпоинтами API
func NewRouter(log *slog.Logger, allowedOrigins []string, svc Services) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	router.Get("/health", handlers.HealthHandler(log, svc.DB))

	router.Route("/api/products", func(r chi.Router) {
		r.Get("/", handlers.ListProductsHandler(log, svc.Products))
		r.Post("/new", handlers.CreateProductHandler(log, svc.Products))
		r.Get("/{id}", handlers.GetProductHandler(log, svc.Products))
		r.Put("/{id}/edit", handlers.UpdateProductHandler(log, svc.Products))
		r.Patch("/{id}/edit", handlers.UpdateProductHandler(log, svc.Products))
		r.Delete("/{id}", handlers.DeleteProductHandler(log, svc.Products))
	})

	router.Route("/api/orders", func(r chi.Router) {
		r.Get("/", handlers.ListOrdersHandler(log, svc.Orders))
		r.Post("/new", handlers.CreateOrderHandler(log, svc.Orders))
		r.Get("/{id}", handlers.GetOrderHandler(log, svc.Orders))
		r.Put("/{id}/edit", handlers.UpdateOrderHandler(log, svc.Orders))
		r.Patch("/{id}/edit", handlers.UpdateOrderHandler(log, svc.Orders))
		r.Delete("/{id}", handlers.DeleteOrderHandler(log, svc.Orders))
	})

	return router
}
