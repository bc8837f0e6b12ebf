package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filestorage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
Database:
  Driver: sqlite3
  Path: /tmp/test.db
Storage:
  Provider: memory
`)
	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(100<<20), cfg.Files.MaxFileSize)
	assert.Equal(t, []string{"exe", "bat", "cmd", "sh", "msi", "com", "scr"}, cfg.Files.BlockedExtensions)
	assert.Equal(t, time.Hour, cfg.Files.PresignExpiry())
	assert.Equal(t, 10, cfg.Files.BulkUploadMaxFiles)
	assert.Equal(t, 8, cfg.Files.KeySuffixLength)
	assert.Equal(t, "application/octet-stream", cfg.Files.DefaultContentType)
	assert.Equal(t, "2525", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestNewConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
Database:
  Driver: sqlite3
  Path: /tmp/test.db
Storage:
  Provider: memory
Files:
  BlockedExtensions: [".EXE", "Js"]
`)
	t.Setenv("FILESTORAGE_FILES_MAXFILESIZE", "2048")
	t.Setenv("FILESTORAGE_SERVER_PORT", "9090")

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), cfg.Files.MaxFileSize)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"exe", "js"}, cfg.Files.BlockedExtensions)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
Database:
  Driver: mysql
Storage:
  Provider: memory
`)
	_, err := NewConfig(path)
	require.ErrorContains(t, err, "unsupported database driver")

	path = writeConfig(t, `
Database:
  Driver: sqlite3
  Path: x.db
Storage:
  Provider: gcs
`)
	_, err = NewConfig(path)
	require.ErrorContains(t, err, "unsupported storage provider")

	path = writeConfig(t, `
Database:
  Driver: sqlite3
  Path: x.db
Storage:
  Provider: memory
Files:
  KeySuffixLength: 0
`)
	_, err = NewConfig(path)
	require.ErrorContains(t, err, "KeySuffixLength")
}

func TestDatabaseURLs(t *testing.T) {
	pg := DatabaseConfig{
		Driver: DriverPostgres, Host: "db", Port: "5432",
		User: "app", Password: "p@ss", Name: "files", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=app password=p@ss dbname=files sslmode=disable", pg.GetDSN())
	assert.Equal(t, "postgres://app:p%40ss@db:5432/files?sslmode=disable", pg.MigrationURL())

	lite := DatabaseConfig{Driver: DriverSQLite, Path: "/data/fs.db"}
	assert.Equal(t, "file:/data/fs.db?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", lite.GetDSN())
	assert.Equal(t, "sqlite3:///data/fs.db?_foreign_keys=on", lite.MigrationURL())
}
