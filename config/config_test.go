package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ICANVAS_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Wallet.Timeout)
	assert.True(t, cfg.Wallet.Commission)
	assert.Equal(t, 2*time.Minute, cfg.Redis.BalanceTTL)
	assert.Equal(t, "HDMI-A-1", cfg.Display.Output)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, filepath.Join(".", "iotacanvas.db"), cfg.Storage.DBPath())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ICANVAS_CONFIG", "")
	t.Setenv("ICANVAS_WALLET_URL", "http://wallet.local:9000")
	t.Setenv("ICANVAS_STORAGE_ROOT_PATH", "/var/lib/iotacanvas")
	t.Setenv("ICANVAS_S3_BUCKET", "canvas-art")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://wallet.local:9000", cfg.Wallet.URL)
	assert.Equal(t, "/var/lib/iotacanvas/artwork", cfg.Storage.ArtworkDir())
	assert.True(t, cfg.S3.Enabled())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "canvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: "127.0.0.1:9090"
log:
  level: debug
  format: json
`), 0o644))
	t.Setenv("ICANVAS_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ICANVAS_CONFIG", "")
	t.Setenv("ICANVAS_LOG_LEVEL", "chatty")

	_, err := Load()
	assert.ErrorContains(t, err, "validate config")
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ICANVAS_CONFIG", "/does/not/exist.yaml")

	_, err := Load()
	assert.ErrorContains(t, err, "read config")
}

func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestLoadDotEnvWithoutLocal(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ICANVAS_CONFIG", "")
	unsetAfter(t, "ICANVAS_WALLET_URL")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("ICANVAS_WALLET_URL=http://wallet.local:9000\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://wallet.local:9000", cfg.Wallet.URL)
}

func TestLoadDotEnvLocalWins(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ICANVAS_CONFIG", "")
	unsetAfter(t, "ICANVAS_WALLET_URL", "ICANVAS_WALLET_NODE")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"),
		[]byte("ICANVAS_WALLET_URL=http://local.wallet:9000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("ICANVAS_WALLET_URL=http://wallet.local:9000\nICANVAS_WALLET_NODE=https://node.local:443\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://local.wallet:9000", cfg.Wallet.URL)
	assert.Equal(t, "https://node.local:443", cfg.Wallet.Node)
}
