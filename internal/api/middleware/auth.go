package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"samsonjenkins/internal/config"
	"samsonjenkins/internal/logger"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// APIKeyContextKey is the context key for the API key
const APIKeyContextKey ContextKey = "api_key"

// AuthMiddleware is an HTTP middleware that validates API keys
type AuthMiddleware struct {
	apiKeys [][]byte
}

// NewAuthMiddleware creates a new AuthMiddleware instance
func NewAuthMiddleware(cfg config.APIConfig) *AuthMiddleware {
	am := &AuthMiddleware{}
	for _, key := range cfg.Keys {
		if key = strings.TrimSpace(key); key != "" {
			am.apiKeys = append(am.apiKeys, []byte(key))
		}
	}
	return am
}

// ValidateAPIKey returns true if the API key is valid
func (am *AuthMiddleware) ValidateAPIKey(apiKey string) bool {
	apiKey = strings.TrimSpace(strings.TrimPrefix(apiKey, "Bearer "))
	if apiKey == "" {
		return false
	}

	valid := false
	for _, key := range am.apiKeys {
		if subtle.ConstantTimeCompare(key, []byte(apiKey)) == 1 {
			valid = true
		}
	}
	return valid
}

// GetAPIKey extracts the API key from the Authorization header
func GetAPIKey(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// Middleware returns an HTTP handler that validates API keys
func (am *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := GetAPIKey(r)
		if !am.ValidateAPIKey(apiKey) {
			logger.Warn("Invalid API key", "ip", r.RemoteAddr, "path", r.URL.Path, "request_id", GetRequestID(r))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), APIKeyContextKey, strings.TrimSpace(apiKey))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
