// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/shopfront/pkg/db"
)

// New returns a private in-memory database with the given models migrated.
// It is closed when the test ends.
func New(t testing.TB, models ...any) *gorm.DB {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), "sqlite:file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { pkgdb.Close(db) })

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}
	return db
}
