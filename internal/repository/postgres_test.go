package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"filestorage/internal/config"
	"filestorage/internal/repository"
)

// setupPostgres запускает PostgreSQL в Docker-контейнере и применяет миграции.
func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("filestorage_test"),
		postgres.WithUsername("filestorage"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port.Port(),
		User:            "filestorage",
		Password:        "test-password",
		Name:            "filestorage_test",
		SSLMode:         "disable",
		ConnectAttempts: 3,
		ConnectDelay:    time.Second,
	}
	require.NoError(t, repository.Migrate(cfg))

	db, err := repository.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresProjectLock(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	f := seed(t, db)

	tx1, err := f.projects.BeginTx(ctx)
	require.NoError(t, err)
	_, err = f.projects.GetForUpdate(ctx, tx1, f.project.ID)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		tx2, err := f.projects.BeginTx(ctx)
		if err != nil {
			close(acquired)
			return
		}
		defer tx2.Rollback()
		_, _ = f.projects.GetForUpdate(ctx, tx2, f.project.ID)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second locker must wait for the first transaction")
	case <-time.After(300 * time.Millisecond):
	}

	_, err = f.projects.UpdateStorageSize(ctx, tx1, f.project.ID, 42)
	require.NoError(t, err)
	require.NoError(t, tx1.Commit())

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second locker was not released")
	}

	got, err := f.projects.GetByID(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.StorageSize)
}

func TestPostgresSumActiveSize(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	f := seed(t, db)

	total, err := f.resources.SumActiveSize(ctx, db, f.project.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
}
