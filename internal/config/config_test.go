package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/config"
	"github.com/tournevent/courier/pkg/shipper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 500, cfg.ReconcileBatchSize)
	assert.Equal(t, time.Second, cfg.ReconcileDelay)
	assert.Equal(t, 30*time.Second, cfg.CarrierTimeout)
	assert.Equal(t, "https://portal.packzy.com/api/v1", cfg.BaseURLs()[shipper.CarrierSteadfast])
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_DRIVER=sqlite\nRECONCILE_DELAY=250ms\n"), 0o600))
	t.Setenv("RECONCILE_BATCH_SIZE", "50")
	t.Cleanup(func() {
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("RECONCILE_DELAY")
	})

	cfg, err := config.Load(envFile)

	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconcileDelay)
	assert.Equal(t, 50, cfg.ReconcileBatchSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"driver", "DB_DRIVER", "mysql"},
		{"batch", "RECONCILE_BATCH_SIZE", "0"},
		{"port", "PORT", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
