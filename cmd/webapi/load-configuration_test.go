package main

import (
	"github.com/ardanlabs/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points the configuration at files that don't exist, unless overridden by the test.
func isolate(t *testing.T) string {
	t.Helper()
	var dir = t.TempDir()
	t.Setenv(envPrefix+"_CONFIG_ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestConfigurationDefaults(t *testing.T) {
	var dir = isolate(t)

	cfg, err := loadConfiguration([]string{"--config-path=" + filepath.Join(dir, "missing.yml")})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3234", cfg.Web.APIHost)
	assert.Equal(t, 5*time.Hour, cfg.Auth.TokenLifetime)
	assert.Equal(t, time.Hour, cfg.Auth.ResetLifetime)
	assert.Equal(t, 13, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Web.AllowedOrigins)
	assert.Equal(t, int64(1<<20), cfg.Web.MaxBodyBytes)
	assert.True(t, cfg.Policy.RevalidateRole)
	assert.False(t, cfg.Policy.CommentOwnership)
	assert.Empty(t, cfg.Auth.Secret)
}

func TestConfigurationFlagsAndEnvironment(t *testing.T) {
	var dir = isolate(t)
	t.Setenv("USOF_DB_FILENAME", "/var/lib/usof.db")

	cfg, err := loadConfiguration([]string{
		"--config-path=" + filepath.Join(dir, "missing.yml"),
		"--auth-secret=flag secret",
		"--policy-admin-categories=true",
	})
	require.NoError(t, err)
	assert.Equal(t, "flag secret", cfg.Auth.Secret)
	assert.Equal(t, "/var/lib/usof.db", cfg.DB.Filename)
	assert.True(t, cfg.Policy.AdminCategories)
}

func TestConfigurationEnvFile(t *testing.T) {
	var dir = t.TempDir()
	var envFile = filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("USOF_AUTH_SECRET=dotenv secret\n"), 0o600))
	t.Setenv(envPrefix+"_CONFIG_ENV_FILE", envFile)
	t.Cleanup(func() { _ = os.Unsetenv("USOF_AUTH_SECRET") })

	cfg, err := loadConfiguration([]string{"--config-path=" + filepath.Join(dir, "missing.yml")})
	require.NoError(t, err)
	assert.Equal(t, "dotenv secret", cfg.Auth.Secret)
}

func TestConfigurationYAMLOverrides(t *testing.T) {
	var dir = isolate(t)
	var path = filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  apihost: 127.0.0.1:9000
policy:
  commentownership: true
`), 0o600))

	cfg, err := loadConfiguration([]string{"--config-path=" + path, "--web-api-host=0.0.0.0:1"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Web.APIHost)
	assert.True(t, cfg.Policy.CommentOwnership)

	// untouched sections keep their defaults
	assert.Equal(t, 5*time.Hour, cfg.Auth.TokenLifetime)
}

func TestConfigurationHelp(t *testing.T) {
	isolate(t)
	_, err := loadConfiguration([]string{"--help"})
	assert.ErrorIs(t, err, conf.ErrHelpWanted)
}
