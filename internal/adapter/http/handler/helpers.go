package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tanvo/fraudgate/internal/adapter/http/dto"
	"github.com/tanvo/fraudgate/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes. Review attempts on a
// terminal transaction are conflicts, not bad requests: the request was
// well-formed, the aggregate just moved on.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrOriginAccountNotFound),
		errors.Is(err, domain.ErrDestAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotReviewable),
		errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrAccountNoRequired),
		errors.Is(err, domain.ErrInvalidReviewAction),
		errors.Is(err, domain.ErrReviewerRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
