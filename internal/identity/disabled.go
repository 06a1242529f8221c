package identity

import (
	"context"
	"errors"

	"github.com/rationbridge/rationbridge-be/internal/models"
)

// ErrNotConfigured is the fixed error every Disabled operation returns.
var ErrNotConfigured = errors.New("supabase not configured")

// Disabled is the stub selected when provider credentials are missing.
// Every operation resolves immediately with ErrNotConfigured, trading
// hard failure at startup for degraded operation.
type Disabled struct{}

func (Disabled) SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error) {
	return SignUpResult{}, ErrNotConfigured
}

func (Disabled) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	return SignInResult{}, ErrNotConfigured
}

func (Disabled) SignOut(ctx context.Context, token string) error {
	return ErrNotConfigured
}

func (Disabled) UserFromToken(ctx context.Context, token string) (models.Principal, error) {
	return models.Principal{}, ErrNotConfigured
}

func (Disabled) Select(ctx context.Context, table string, filters map[string]string, order string) ([]byte, error) {
	return nil, ErrNotConfigured
}

func (Disabled) SelectOne(ctx context.Context, table, id, columns string) ([]byte, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Insert(ctx context.Context, table string, record any) ([]byte, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Update(ctx context.Context, table, id string, patch []byte) ([]byte, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Upsert(ctx context.Context, table string, record any) ([]byte, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Delete(ctx context.Context, table, id string) error {
	return ErrNotConfigured
}
