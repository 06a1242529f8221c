package identity

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/config"
	"github.com/rationbridge/rationbridge-be/internal/models"
)

// Session mirrors the session object issued by the hosted provider.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// SignUpRequest carries the fields submitted on registration.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	UserType string `json:"user_type"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// SignUpResult is the outcome of a provider sign-up. A nil Session with
// a non-nil User means the account was created but still needs email
// confirmation.
type SignUpResult struct {
	User    *models.Principal
	Session *Session
}

// SignInResult is the outcome of a provider password sign-in.
type SignInResult struct {
	User    *models.Principal
	Session *Session
}

// Provider wraps the hosted identity service. Implementations report
// failures as returned errors, never panics, so callers can treat the
// real client and the disabled stub uniformly.
type Provider interface {
	SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (SignInResult, error)
	SignOut(ctx context.Context, token string) error
	UserFromToken(ctx context.Context, token string) (models.Principal, error)
}

// DataAPI wraps the provider's table endpoints.
type DataAPI interface {
	Select(ctx context.Context, table string, filters map[string]string, order string) ([]byte, error)
	SelectOne(ctx context.Context, table, id, columns string) ([]byte, error)
	Insert(ctx context.Context, table string, record any) ([]byte, error)
	Update(ctx context.Context, table, id string, patch []byte) ([]byte, error)
	Upsert(ctx context.Context, table string, record any) ([]byte, error)
	Delete(ctx context.Context, table, id string) error
}

// FromConfig resolves the provider strategy once at startup. Missing or
// placeholder credentials select the disabled stub, which keeps the
// service startable without configuration.
func FromConfig(cfg *config.Config) (Provider, DataAPI) {
	if !cfg.SupabaseConfigured() {
		log.Warn().Msg("Supabase credentials not configured; provider operations will fail until a real SUPABASE_URL and SUPABASE_ANON_KEY are set")
		stub := Disabled{}
		return stub, stub
	}
	client := NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseJWTSecret)
	return client, client
}
