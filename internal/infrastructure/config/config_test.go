package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, DriverMemory, cfg.Repository.Driver)
	assert.Equal(t, 10*time.Second, cfg.Repository.ClientTimeout)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, "product-catalog", cfg.OTLP.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REPOSITORY_DRIVER", DriverRemote)
	t.Setenv("REMOTE_BASE_URL", "http://catalog:8080")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "2s")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://catalog:8080", cfg.Repository.RemoteBaseURL)
	assert.Equal(t, 2*time.Second, cfg.Repository.ClientTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		repo    RepositoryConfig
		wantErr bool
	}{
		{"memory", RepositoryConfig{Driver: DriverMemory}, false},
		{"remote", RepositoryConfig{Driver: DriverRemote}, false},
		{"postgres with url", RepositoryConfig{Driver: DriverPostgres, DatabaseURL: "postgres://x"}, false},
		{"postgres without url", RepositoryConfig{Driver: DriverPostgres}, true},
		{"unknown driver", RepositoryConfig{Driver: "sqlite"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Repository: tc.repo}
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
