package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kmuriithi/vehicleguard/internal/auth"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// vehicleIDParam parses the {id} URL parameter.
func vehicleIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// statusForResult maps a coordinator result to an HTTP status. The body is
// the same Result either way; the status lets dumb clients branch cheaply.
func statusForResult(res auth.Result) int {
	switch res.Outcome {
	case auth.OutcomeSuccess:
		return http.StatusOK
	case auth.OutcomeUnauthorized:
		return http.StatusUnauthorized
	default:
		switch res.Reason {
		case auth.RejectLocked:
			return http.StatusTooManyRequests
		case auth.RejectNotFound:
			return http.StatusNotFound
		case auth.RejectNoImage:
			return http.StatusBadRequest
		default:
			return http.StatusInternalServerError
		}
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
