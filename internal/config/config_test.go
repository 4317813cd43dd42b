package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/secpolicy/internal/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, "info", cfg.LogLevel)

				assert.Equal(t, 100000, cfg.KDFIterations)
				assert.Equal(t, 65536, cfg.Argon2MemoryKiB)
				assert.Equal(t, 4, cfg.Argon2TimeCost)
				assert.Equal(t, 3, cfg.Argon2Parallelism)

				assert.Equal(t, 24*time.Hour, cfg.KeyRotationInterval)
				assert.Equal(t, 24*time.Hour, cfg.KeyOverlap)
				assert.False(t, cfg.KeyExportEnabled)

				assert.Equal(t, 5, cfg.RateLimitMaxAttempts)
				assert.Equal(t, 300*time.Second, cfg.RateLimitWindow)
				assert.Equal(t, 3600*time.Second, cfg.RateLimitBanDuration)

				assert.Equal(t, 32, cfg.CsrfTokenLength)
				assert.Equal(t, time.Hour, cfg.CsrfExpire)
				assert.Equal(t, "X-CSRF-Token", cfg.CsrfHeaderName)

				assert.Equal(t, "log", cfg.AuditSink)
				assert.Equal(t, "secpolicy", cfg.MetricsNamespace)
			},
		},
		{
			name: "load custom server configuration",
			envVars: map[string]string{
				"SERVER_HOST":     "localhost",
				"SERVER_PORT":     "9090",
				"TRUSTED_PROXIES": "10.0.0.0/8, 192.168.1.1",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.ServerHost)
				assert.Equal(t, 9090, cfg.ServerPort)
				assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxyList())
			},
		},
		{
			name: "load custom rate limit configuration",
			envVars: map[string]string{
				"RATE_LIMIT_MAX_ATTEMPTS":         "3",
				"RATE_LIMIT_WINDOW_SECONDS":       "60",
				"RATE_LIMIT_BAN_DURATION_SECONDS": "120",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.RateLimitMaxAttempts)
				assert.Equal(t, time.Minute, cfg.RateLimitWindow)
				assert.Equal(t, 2*time.Minute, cfg.RateLimitBanDuration)
			},
		},
		{
			name: "load custom key lifecycle configuration",
			envVars: map[string]string{
				"KEY_ROTATION_INTERVAL_HOURS": "6",
				"KEY_OVERLAP_HOURS":           "2",
				"KEY_EXPORT_ENABLED":          "true",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6*time.Hour, cfg.KeyRotationInterval)
				assert.Equal(t, 2*time.Hour, cfg.KeyOverlap)
				assert.True(t, cfg.KeyExportEnabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				require.NoError(t, os.Setenv(key, value))
			}

			cfg, err := Load()
			require.NoError(t, err)

			tt.validate(t, cfg)
		})
	}
}

func TestLoad_PolicyFile(t *testing.T) {
	os.Clearenv()

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `
algorithm: AES-256-GCM
key_size_bits: 256
kdf:
  iterations: 200000
  argon2:
    memory_kib: 131072
keys:
  rotation_interval_hours: 12
rate_limit:
  max_attempts: 10
  window_seconds: 600
csrf:
  expire_seconds: 1800
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Setenv("SECURITY_POLICY_FILE", path))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200000, cfg.KDFIterations)
	assert.Equal(t, 131072, cfg.Argon2MemoryKiB)
	assert.Equal(t, 4, cfg.Argon2TimeCost, "fields absent from the file keep the environment value")
	assert.Equal(t, 12*time.Hour, cfg.KeyRotationInterval)
	assert.Equal(t, 10, cfg.RateLimitMaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, time.Hour, cfg.RateLimitBanDuration)
	assert.Equal(t, 30*time.Minute, cfg.CsrfExpire)
}

func TestLoad_PolicyFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		os.Clearenv()
		require.NoError(t, os.Setenv("SECURITY_POLICY_FILE", filepath.Join(t.TempDir(), "missing.yaml")))

		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		os.Clearenv()
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("algorithm: AES-256-CBC\n"), 0o600))
		require.NoError(t, os.Setenv("SECURITY_POLICY_FILE", path))

		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "not supported")
	})

	t.Run("wrong key size", func(t *testing.T) {
		os.Clearenv()
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("key_size_bits: 128\n"), 0o600))
		require.NoError(t, os.Setenv("SECURITY_POLICY_FILE", path))

		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	os.Clearenv()
	require.NoError(t, os.Setenv("MASTER_SECRET", "0123456789abcdef0123456789abcdef"))
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid defaults with master secret", func(t *testing.T) {
		cfg := validConfig(t)
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name   string
		mutate func(cfg *Config)
		want   string
	}{
		{
			name:   "missing master secret",
			mutate: func(cfg *Config) { cfg.MasterSecret = "" },
			want:   "MASTER_SECRET is required",
		},
		{
			name:   "weak master secret",
			mutate: func(cfg *Config) { cfg.MasterSecret = "short" },
			want:   "at least 32 characters",
		},
		{
			name:   "iterations below floor",
			mutate: func(cfg *Config) { cfg.KDFIterations = 1000 },
			want:   "below the floor",
		},
		{
			name:   "zero key overlap",
			mutate: func(cfg *Config) { cfg.KeyOverlap = 0 },
			want:   "KEY_OVERLAP_HOURS must be positive",
		},
		{
			name:   "zero max attempts",
			mutate: func(cfg *Config) { cfg.RateLimitMaxAttempts = 0 },
			want:   "RATE_LIMIT_MAX_ATTEMPTS",
		},
		{
			name:   "short csrf token",
			mutate: func(cfg *Config) { cfg.CsrfTokenLength = 8 },
			want:   "CSRF_TOKEN_LENGTH_BYTES",
		},
		{
			name:   "unknown audit sink",
			mutate: func(cfg *Config) { cfg.AuditSink = "kafka" },
			want:   "AUDIT_SINK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("kms wrapped secret skips length check", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.MasterSecret = "c2hvcnQ="
		cfg.KMSKeyURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_GetGinMode(t *testing.T) {
	assert.Equal(t, "debug", (&Config{LogLevel: "debug"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: "info"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: "bogus"}).GetGinMode())
}
