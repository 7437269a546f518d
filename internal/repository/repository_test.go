package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/repository"
)

func newTestDB(t *testing.T) *repository.DB {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, db.Migrate(ctx, nil))
	return db
}

func countRows(t *testing.T, db *repository.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.SQL().QueryRow(`SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}
