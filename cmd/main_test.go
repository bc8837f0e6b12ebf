package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/storage/memory"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.Warn("visible", "project_id", 7)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "project_id")

	_, err = newLogger(&buf, config.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = newLogger(&buf, config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles([]string{"owner", " Developer ", "OWNER"})
	require.NoError(t, err)
	assert.Equal(t, domain.Roles{domain.RoleOwner, domain.RoleDeveloper}, roles)

	_, err = parseRoles([]string{"owner", "wizard"})
	assert.ErrorContains(t, err, "wizard")
}

func TestNewStorage(t *testing.T) {
	store, err := newStorage(context.Background(), config.StorageConfig{Provider: config.ProviderMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, store)

	_, err = newStorage(context.Background(), config.StorageConfig{Provider: "ftp"})
	assert.Error(t, err)
}

func TestAdminCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "filestorage.yaml")
	cfgData := "Database:\n  Driver: sqlite3\n  Path: " + filepath.Join(dir, "fs.db") + "\n" +
		"Storage:\n  Provider: memory\n" +
		"Log:\n  Level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgData), 0o600))

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		err := rootCmd.Execute()
		return out.String(), err
	}

	_, err := run("migrate")
	require.NoError(t, err)

	out, err := run("project", "create", "--name", "apollo", "--max-storage-size", "1000")
	require.NoError(t, err)
	assert.Equal(t, "created project 1\n", out)

	out, err = run("project", "quota", "--id", "1", "--max-storage-size", "2000")
	require.NoError(t, err)
	assert.Equal(t, "project 1: used 0 of 2000 bytes\n", out)

	_, err = run("project", "quota", "--id", "99", "--max-storage-size", "10")
	assert.Error(t, err)

	out, err = run("user", "create", "--username", "alice", "--role", "owner", "--role", "developer")
	require.NoError(t, err)
	assert.Equal(t, "created user 1\n", out)

	_, err = run("user", "create", "--username", "bob", "--role", "wizard")
	assert.ErrorContains(t, err, "unknown role")
}
