package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/order-manager/internal/service"
)

// ListOrdersHandler обрабатывает GET /api/orders?customerName=&description=&startDate=&endDate=
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		q := r.URL.Query()
		orders, err := orderService.List(r.Context(), service.OrderQuery{
			CustomerName: q.Get("customerName"),
			Description:  q.Get("description"),
			StartDate:    q.Get("startDate"),
			EndDate:      q.Get("endDate"),
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// CreateOrderHandler обрабатывает POST /api/orders/new
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req service.OrderInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		order, err := orderService.Create(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "order not found")
		if !ok {
			return
		}

		order, err := orderService.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// UpdateOrderHandler обрабатывает PUT и PATCH /api/orders/{id}/edit
func UpdateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "order not found")
		if !ok {
			return
		}
		var req service.OrderInput
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		order, err := orderService.Update(r.Context(), id, req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// DeleteOrderHandler обрабатывает DELETE /api/orders/{id}; строки заказа удаляются вместе с ним
func DeleteOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteOrderHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "order not found")
		if !ok {
			return
		}

		if err := orderService.Delete(r.Context(), id); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
