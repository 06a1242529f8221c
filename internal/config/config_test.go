package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, ":memory:", cfg.LocalStorePath)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "@every 10m", cfg.SweepSchedule)
	assert.False(t, cfg.SupabaseConfigured())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "https://example.supabase.co", cfg.SupabaseURL, "trailing slash is trimmed")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.SupabaseConfigured())
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestSupabaseConfiguredTreatsPlaceholdersAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		want bool
	}{
		{"both empty", "", "", false},
		{"placeholder url", "your_supabase_url_here", "anon-key", false},
		{"placeholder key", "https://example.supabase.co", "your_supabase_anon_key_here", false},
		{"real credentials", "https://example.supabase.co", "anon-key", true},
		{"url only", "https://example.supabase.co", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{SupabaseURL: tt.url, SupabaseAnonKey: tt.key}
			assert.Equal(t, tt.want, cfg.SupabaseConfigured())
		})
	}
}
