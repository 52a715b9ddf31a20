package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"receipts/internal/core"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

var validationErrs = []error{
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrEmptyStoreName,
	core.ErrStoreNameTooLong,
	core.ErrInvalidAmount,
	core.ErrAmountTooLarge,
	core.ErrInvalidDate,
	core.ErrDateOutOfRange,
	core.ErrInvalidCategory,
	core.ErrDescriptionTooLong,
	core.ErrInvalidImageURL,
}

// isValidationError reports whether err comes from the core input rules,
// which map to 422 rather than 400.
func isValidationError(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
