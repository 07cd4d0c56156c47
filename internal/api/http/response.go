package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
)

// envelope is the body of every API response. success is the only field
// callers need to branch on.
type envelope map[string]any

func respond(w http.ResponseWriter, status int, message string, steps []string, fields envelope) {
	body := envelope{
		"success":         status < http.StatusBadRequest,
		"message":         message,
		"processingSteps": steps,
	}
	if steps == nil {
		body["processingSteps"] = []string{}
	}
	for k, v := range fields {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, steps []string) {
	respond(w, status, message, steps, nil)
}

// statusFor maps the ledger error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSwapPartialFailure):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "malformed JSON: %v", err)
	}
	return nil
}
