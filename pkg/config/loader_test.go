package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/config"
	"github.com/fieldops/tenancy/pkg/tenant"
)

type appConfig struct {
	Tenant tenant.Config
	Name   string `env:"APP_NAME" envDefault:"tenancy"`
	DSN    string `env:"DSN,required"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, config.Load[appConfig](nil), config.ErrNilPointer)
	})

	t.Run("nested package config with defaults", func(t *testing.T) {
		t.Parallel()
		var cfg appConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{
			"DSN":                        "postgres://localhost/app",
			"TENANT_BASE_DOMAIN":         "fieldops.io",
			"TENANT_RESERVED_SUBDOMAINS": "www,portal",
		}))
		require.NoError(t, err)
		assert.Equal(t, "tenancy", cfg.Name)
		assert.Equal(t, "fieldops.io", cfg.Tenant.BaseDomain)
		assert.Equal(t, []string{"www", "portal"}, cfg.Tenant.ReservedSubdomains)
		assert.Equal(t, time.Minute, cfg.Tenant.CacheTTL)
		assert.Equal(t, "X-Company-ID", cfg.Tenant.IDHeader)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		var cfg appConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()
		var cfg appConfig
		err := config.Load(&cfg, config.WithPrefix("STAGING_"), config.WithEnvironment(map[string]string{
			"STAGING_DSN": "postgres://staging/app",
		}))
		require.NoError(t, err)
		assert.Equal(t, "postgres://staging/app", cfg.DSN)
	})
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONFIG_TEST_DSN=postgres://file/app\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CONFIG_TEST_DSN") })

	var cfg struct {
		DSN string `env:"CONFIG_TEST_DSN,required"`
	}
	require.NoError(t, config.Load(&cfg, config.WithEnvFiles(path)))
	assert.Equal(t, "postgres://file/app", cfg.DSN)

	err := config.Load(&cfg, config.WithEnvFiles(filepath.Join(dir, "missing.env")))
	assert.ErrorIs(t, err, config.ErrEnvFile)
}
