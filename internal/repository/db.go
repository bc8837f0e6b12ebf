package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"filestorage/internal/config"
)

// ErrNotFound возвращается, когда запись не найдена
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isPostgres(q sqlx.ExtContext) bool {
	return q.DriverName() == config.DriverPostgres
}

// Connect подключается к базе с повторными попытками и настраивает пул соединений
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == config.DriverPostgres {
		if err := ensureDatabase(ctx, cfg); err != nil {
			slog.Warn("database existence check skipped", "database", cfg.Name, "error", err)
		}
	}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		db  *sqlx.DB
		err error
	)
	for i := 0; i < attempts; i++ {
		db, err = sqlx.ConnectContext(ctx, cfg.Driver, cfg.GetDSN())
		if err == nil {
			break
		}

		slog.Warn("failed to connect to database", "attempt", i+1, "max_attempts", attempts, "error", err)
		if i == attempts-1 {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectDelay):
		}
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite допускает одного писателя; блокировку проекта держит транзакция на этом соединении.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// ensureDatabase создает базу через системную базу postgres, если ее еще нет
func ensureDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	sys := cfg
	sys.Name = "postgres"

	pgDB, err := sqlx.ConnectContext(ctx, config.DriverPostgres, sys.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer pgDB.Close()

	var exists bool
	err = pgDB.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1)`, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	slog.Info("database does not exist, creating", "database", cfg.Name)
	if _, err := pgDB.ExecContext(ctx, "CREATE DATABASE "+quoteIdent(cfg.Name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

func quoteIdent(name string) string {
	out := []byte{'"'}
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	return string(append(out, '"'))
}
