package identity

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/models"
)

// MockAuth is the development credential store the authenticator falls
// back to when the primary provider rejects an operation.
type MockAuth interface {
	Login(email, password string) (models.Principal, string, error)
	Register(req SignUpRequest) (models.Principal, string, error)
}

// AuthOutcome is the result of a completed register or login attempt.
type AuthOutcome struct {
	User                 models.Principal
	Token                string
	Session              *Session
	MockMode             bool
	RequiresConfirmation bool
}

// Authenticator implements the primary-then-mock orchestration used by
// the auth endpoints: the provider is tried first, any provider error is
// logged and swallowed in favor of a mock-store attempt, and only a
// failure of the final mock attempt surfaces to the caller.
type Authenticator struct {
	provider Provider
	mock     MockAuth
}

// NewAuthenticator creates an Authenticator over the given provider and
// mock store.
func NewAuthenticator(provider Provider, mock MockAuth) *Authenticator {
	return &Authenticator{provider: provider, mock: mock}
}

// Register creates an account, preferring the primary provider. A
// session-less provider success means the account needs email
// confirmation before a token can be issued.
func (a *Authenticator) Register(ctx context.Context, req SignUpRequest) (AuthOutcome, error) {
	res, err := a.provider.SignUp(ctx, req)
	if err == nil {
		if res.Session == nil {
			return AuthOutcome{User: *res.User, RequiresConfirmation: true}, nil
		}
		return AuthOutcome{User: *res.User, Token: res.Session.AccessToken, Session: res.Session}, nil
	}

	log.Warn().Err(err).Str("email", req.Email).Msg("Provider registration failed, trying mock store")
	user, token, mockErr := a.mock.Register(req)
	if mockErr != nil {
		return AuthOutcome{}, mockErr
	}
	return AuthOutcome{User: user, Token: token, MockMode: true}, nil
}

// Login authenticates credentials, preferring the primary provider.
func (a *Authenticator) Login(ctx context.Context, email, password string) (AuthOutcome, error) {
	res, err := a.provider.SignIn(ctx, email, password)
	if err == nil {
		return AuthOutcome{User: *res.User, Token: res.Session.AccessToken, Session: res.Session}, nil
	}

	log.Warn().Err(err).Str("email", email).Msg("Provider login failed, trying mock store")
	user, token, mockErr := a.mock.Login(email, password)
	if mockErr != nil {
		return AuthOutcome{}, mockErr
	}
	return AuthOutcome{User: user, Token: token, MockMode: true}, nil
}

// Logout revokes a provider session. Mock tokens have no server-side
// session, so there is nothing to revoke and no fallback.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.provider.SignOut(ctx, token)
}
