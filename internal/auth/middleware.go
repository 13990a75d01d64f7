package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Skipper lets a request through without authentication.
type Skipper func(r *http.Request) bool

// Middleware rejects requests without a valid bearer token.
type Middleware struct {
	config  Config
	skipper Skipper
}

// NewMiddleware constructs Middleware. /healthz and /metrics are always public.
func NewMiddleware(cfg Config) Middleware {
	return Middleware{config: cfg, skipper: func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics" || r.Method == http.MethodOptions
	}}
}

// Wrap authenticates requests before handing them to next.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipper != nil && m.skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.parseRequest(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, ErrInvalidToken
	}
	return Parse(header[len(prefix):], m.config)
}

// RequireScope responds 401 without claims and 403 when scope is not granted.
func RequireScope(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", ErrMissingToken.Error())
			return
		}
		if !claims.HasScope(scope) {
			writeAuthError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
			return
		}
		next(w, r)
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"type": code, "detail": detail})
}
