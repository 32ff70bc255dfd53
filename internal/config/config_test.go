package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.JSONFormat)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
catalog_path: /etc/promptforge/catalog.yaml
logging:
  level: debug
  json_format: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/promptforge/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSONFormat)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTFORGE_CATALOG", "/tmp/override.yaml")
	t.Setenv("PROMPTFORGE_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.yaml", cfg.CatalogPath)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown log level "loud"`)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
