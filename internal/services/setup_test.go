package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rationbridge/rationbridge-be/internal/database"
)

// newTestDB opens a fresh in-memory local store with schema and seed
// data applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))
	return db
}
