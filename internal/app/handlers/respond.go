package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/order-manager/internal/domain/models"
	"github.com/linemk/order-manager/internal/storage"
)

// ErrorResponse - тело ответа для всех ошибок, кроме валидации
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse - тело ответа 422 со списком ошибок по полям
type ValidationResponse struct {
	Errors models.ValidationErrors `json:"errors"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError переводит ошибку сервиса в HTTP-статус; детали внутренних ошибок клиенту не отдаются
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var vErrs models.ValidationErrors
	switch {
	case errors.As(err, &vErrs):
		writeJSON(w, logger, http.StatusUnprocessableEntity, ValidationResponse{Errors: vErrs})
	case errors.Is(err, storage.ErrProductNotFound):
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Error: "product not found"})
	case errors.Is(err, storage.ErrOrderNotFound):
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Error: "order not found"})
	case errors.Is(err, storage.ErrProductInUse):
		writeJSON(w, logger, http.StatusConflict, ErrorResponse{Error: storage.ErrProductInUse.Error()})
	default:
		logger.Error("internal error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// decodeJSON читает тело запроса; при ошибке сам отвечает 400 и возвращает false
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request: decoding error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return false
	}
	return true
}

// idParam извлекает {id} из пути; нечисловой id отвечает 404, как и несуществующий
func idParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, notFound string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		logger.Info("invalid id parameter", slog.String("id", chi.URLParam(r, "id")))
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Error: notFound})
		return 0, false
	}
	return id, true
}
