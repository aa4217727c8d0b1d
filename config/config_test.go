package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGER_CONFIG", "")
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://ledger@localhost/ledger", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.ConnectRetries)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("LEDGER_CONFIG", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	content := `
database:
  url: postgres://file@localhost/ledger
  connect_retries: 2
http:
  addr: ":9000"
  shutdown_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("LEDGER_CONFIG", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HTTP_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://file@localhost/ledger", cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.ConnectRetries)
	assert.Equal(t, ":9100", cfg.HTTPAddr, "environment overrides the file")
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_UnreadableFile(t *testing.T) {
	t.Setenv("LEDGER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger")

	_, err := Load()
	assert.Error(t, err)
}
