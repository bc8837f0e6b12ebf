// Package sqlitetest поднимает временную базу SQLite с миграциями для тестов.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"filestorage/internal/config"
	"filestorage/internal/repository"
)

// New возвращает подключение к мигрированной базе во временном каталоге теста.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:          config.DriverSQLite,
		Path:            filepath.Join(t.TempDir(), "filestorage.db"),
		ConnectAttempts: 1,
	}
	require.NoError(t, repository.Migrate(cfg))

	db, err := repository.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
