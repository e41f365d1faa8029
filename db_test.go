package identity_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/exploresg/go-identity"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const migrationUpFile = "data/sql/migrations/20240101000000_create_identity_tables.up.sql"

// setupTestDB opens a per-test in-memory database with the package schema
// applied, so uniqueness constraints behave like production storage.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})

	applySchema(t, db)

	return db
}

func applySchema(t *testing.T, db *bun.DB) {
	t.Helper()

	raw, err := identity.GetMigrationsFS().ReadFile(migrationUpFile)
	require.NoError(t, err)

	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
}
