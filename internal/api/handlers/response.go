package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"samsonjenkins/internal/api/middleware"
	"samsonjenkins/internal/logger"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// writeJSON writes v as the JSON response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err, "status", status)
	}
}

// writeErrorWithRequestID writes a standardized error response with optional request ID
func writeErrorWithRequestID(w http.ResponseWriter, r *http.Request, status int, message string) {
	response := map[string]any{
		"error":  message,
		"status": http.StatusText(status),
	}
	if r != nil {
		if requestID := middleware.GetRequestID(r); requestID != "" {
			response["request_id"] = requestID
		}
	}
	writeJSON(w, status, response)
}

// pagination reads limit and offset query parameters, ignoring invalid values
func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
