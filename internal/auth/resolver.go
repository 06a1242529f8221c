package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/models"
)

// MockTokenPrefix marks synthetic tokens issued by the mock store. The
// prefix is the sole discriminator between token kinds.
const MockTokenPrefix = "mock-token-"

// Resolution is the outcome of resolving a bearer token.
type Resolution struct {
	User   models.Principal
	IsMock bool
}

// contextKey is the private type for values stored by the middleware.
type contextKey string

const resolutionKey = contextKey("authResolution")

// Resolver recovers the acting user behind a bearer token, dispatching
// to the mock store or the primary provider by token shape.
type Resolver struct {
	provider identity.Provider
}

// NewResolver creates a Resolver over the given provider.
func NewResolver(provider identity.Provider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve maps a bearer token to a principal. Mock tokens are trusted
// verbatim: the suffix becomes the principal id with no existence check,
// so anyone can mint one. Strictly a development convenience.
func (r *Resolver) Resolve(ctx context.Context, token string) (Resolution, error) {
	if strings.HasPrefix(token, MockTokenPrefix) {
		id := strings.TrimPrefix(token, MockTokenPrefix)
		return Resolution{User: models.Principal{ID: id}, IsMock: true}, nil
	}

	user, err := r.provider.UserFromToken(ctx, token)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{User: user}, nil
}

// Middleware protects a route. A missing Authorization header is
// rejected before any resource lookup; on success the resolution is
// stored in the request context.
func (r *Resolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			authHeader := req.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "No authorization header")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			res, err := r.Resolve(req.Context(), token)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(req.Context(), resolutionKey, res)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// FromContext returns the resolution stored by Middleware.
func FromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(resolutionKey).(Resolution)
	return res, ok
}

// WithResolution returns a context carrying the given resolution.
// Intended for handler tests that bypass the middleware.
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, res)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
