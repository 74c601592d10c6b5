package repo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/plotline/internal/db"
	"github.com/xxxsen/plotline/test/testutil"
)

func TestApplyMigrationsIdempotent(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	// OpenTestDB already applied the migrations once; a rerun against the
	// populated schema must succeed without error
	require.NoError(t, db.ApplyMigrations(conn))
	require.NoError(t, db.ApplyMigrations(conn))
}
