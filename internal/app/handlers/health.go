package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger - всё, что умеет проверить соединение с БД (*sql.DB)
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status"`
}

// HealthHandler обрабатывает GET /health
func HealthHandler(log *slog.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HealthHandler"
		logger := log.With(slog.String("op", op))

		if err := db.PingContext(r.Context()); err != nil {
			logger.Error("database ping failed", slog.Any("error", err))
			writeJSON(w, logger, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
		writeJSON(w, logger, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
