package api

import (
	"encoding/json"
	"log"
	"net/http"

	"parkeo/internal/errs"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps the service error taxonomy onto HTTP statuses. Unknown
// errors are logged and hidden behind a 500.
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(errs.KindOf(err))
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		message = "internal server error"
	}
	respondJSON(w, status, map[string]string{"error": message})
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindConflict, errs.KindNoCapacity:
		return http.StatusConflict
	case errs.KindInvalidState, errs.KindCapabilityMismatch:
		return http.StatusUnprocessableEntity
	case errs.KindInvalidArgument:
		return http.StatusBadRequest
	case errs.KindUnauthorized:
		return http.StatusUnauthorized
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
