package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/order-manager/internal/domain/models"
	"github.com/linemk/order-manager/internal/service"
)

// ListProductsHandler обрабатывает GET /api/products?name=&description=
func ListProductsHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		filter := models.ProductFilter{
			Name:        r.URL.Query().Get("name"),
			Description: r.URL.Query().Get("description"),
		}
		products, err := productService.List(r.Context(), filter)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// CreateProductHandler обрабатывает POST /api/products/new
func CreateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req service.ProductInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		product, err := productService.Create(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, product)
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}
func GetProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "product not found")
		if !ok {
			return
		}

		product, err := productService.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// UpdateProductHandler обрабатывает PUT и PATCH /api/products/{id}/edit
func UpdateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "product not found")
		if !ok {
			return
		}
		var req service.ProductInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		product, err := productService.Update(r.Context(), id, req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// DeleteProductHandler обрабатывает DELETE /api/products/{id}
func DeleteProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "product not found")
		if !ok {
			return
		}

		if err := productService.Delete(r.Context(), id); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
