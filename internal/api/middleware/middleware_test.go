package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"samsonjenkins/internal/config"
)

func TestLimitBodySize(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		maxSize        int64
		bodySize       int
		expectedStatus int
	}{
		{"Small body", 1024 * 1024, 1024, http.StatusOK},
		{"Large body", 1024 * 1024, 2 * 1024 * 1024, http.StatusRequestEntityTooLarge},
		{"No limit", 0, 2 * 1024 * 1024, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader(bytes.Repeat([]byte("a"), tt.bodySize)))
			rr := httptest.NewRecorder()

			LimitBodySize(tt.maxSize)(handler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates an id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTeapot, rr.Code)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("keeps the caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "deploy-42")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "deploy-42", seen)
		assert.Equal(t, "deploy-42", rr.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, string(bytes.Repeat([]byte("x"), 200)))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuthMiddleware(config.APIConfig{Keys: []string{"test-key", " "}})

	var key string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _ = r.Context().Value(APIKeyContextKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"Bearer token", "Bearer test-key", http.StatusOK},
		{"Bare token", "test-key", http.StatusOK},
		{"Wrong token", "Bearer other", http.StatusUnauthorized},
		{"Blank token", "Bearer  ", http.StatusUnauthorized},
		{"Missing header", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "test-key", key)
			}
		})
	}
}
