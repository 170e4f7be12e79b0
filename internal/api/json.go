package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"plex-exchange-go/internal/exchange"
	"plex-exchange-go/internal/store"

	"go.uber.org/zap"
)

// envelope mirrors the response shape the original API exposed:
// {"success": ..., "data": ..., "message": ..., "errors": {...}}.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, code int, message string, errs map[string]string) {
	writeJSON(w, code, envelope{Success: false, Message: message, Errors: errs})
}

// writeFailure maps the core's error taxonomy onto HTTP statuses:
// ValidationError -> 422 field errors, DomainError -> 412, not-found
// sentinels -> 404, anything unexpected -> 500.
func writeFailure(w http.ResponseWriter, message string, err error) {
	var validationErr *exchange.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusUnprocessableEntity, message,
			map[string]string{validationErr.Field: validationErr.Message})
		return
	}

	var domainErr *exchange.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, http.StatusPreconditionFailed, message,
			map[string]string{"request": domainErr.Message})
		return
	}

	switch {
	case errors.Is(err, store.ErrTradeNotFound),
		errors.Is(err, store.ErrTransactionNotFound),
		errors.Is(err, store.ErrInvoiceNotFound),
		errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Resource Not Found.", nil)
	default:
		zap.L().Error("Unexpected error handling request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error.", nil)
	}
}
