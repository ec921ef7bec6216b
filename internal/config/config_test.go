package config

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConsoleConfig(t *testing.T) {
	t.Setenv("API_SERVER_URL", "http://api.internal")
	t.Setenv("API_SERVER_PORT", "9000")
	t.Setenv("API_SERVER_KEY", "secret")
	t.Setenv("CLIENT", "alice")
	t.Setenv("RETRY_BACKOFF_FACTOR", "250ms")

	cfg, err := LoadConsoleConfig("test")
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Client)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BackoffFactor)
	assert.Equal(t, 60*time.Second, cfg.Timeout)

	baseURL, err := cfg.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:9000", baseURL)
}

func TestLoadConsoleConfig_Transport(t *testing.T) {
	t.Setenv("API_SERVER_KEY", "secret")
	t.Setenv("RETRY_RETRIES", "5")
	t.Setenv("HTTP_MAX_IDLE_CONNS_PER_HOST", "4")
	t.Setenv("HTTP_INSECURE_SKIP_VERIFY", "true")

	cfg, err := LoadConsoleConfig("test")
	require.NoError(t, err)

	require.NotNil(t, cfg.Retry.Retries)
	assert.Equal(t, 5, *cfg.Retry.Retries)
	assert.Equal(t, 4, cfg.Transport.MaxIdleConnsPerHost)
	assert.Equal(t, 100, cfg.Transport.MaxIdleConns)
	assert.Equal(t, 10*time.Second, cfg.Transport.DialTimeout)
	assert.True(t, cfg.Transport.InsecureSkipVerify)
}

func TestLoadConsoleConfig_RetriesUnset(t *testing.T) {
	t.Setenv("API_SERVER_KEY", "secret")

	cfg, err := LoadConsoleConfig("test")
	require.NoError(t, err)
	assert.Nil(t, cfg.Retry.Retries)
}

func TestLoadConsoleConfig_NegativeRetries(t *testing.T) {
	t.Setenv("API_SERVER_KEY", "secret")
	t.Setenv("RETRY_RETRIES", "-1")

	_, err := LoadConsoleConfig("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRY_RETRIES")
}

func TestLoadConsoleConfig_DefaultEnvironmentKeepsStdoutClean(t *testing.T) {
	t.Setenv("API_SERVER_KEY", "secret")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = stdout })

	cfg, err := LoadConsoleConfig("")
	require.NoError(t, w.Close())
	os.Stdout = stdout
	require.NoError(t, err)

	printed, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, string(printed))
	assert.Equal(t, "local", cfg.Environment)
}

func TestLoadConsoleConfig_RequiresKey(t *testing.T) {
	t.Setenv("API_SERVER_KEY", "")

	_, err := LoadConsoleConfig("test")
	assert.Error(t, err)
}

func TestConsoleConfig_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		port    int
		want    string
		wantErr bool
	}{
		{name: "port appended", url: "http://localhost", port: 8000, want: "http://localhost:8000"},
		{name: "explicit port wins", url: "https://api.example.com:8443/", port: 8000, want: "https://api.example.com:8443"},
		{name: "zero port", url: "https://api.example.com", port: 0, want: "https://api.example.com"},
		{name: "missing scheme", url: "localhost", port: 8000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ConsoleConfig{APIServerURL: tt.url, APIServerPort: tt.port}
			got, err := cfg.BaseURL()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateServerConfig(t *testing.T) {
	t.Setenv("API_SERVER_KEY", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/rag")
	t.Setenv("ENABLE_MOCKS", "true")

	cfg := &ServerConfig{}
	require.NoError(t, env.Parse(cfg))
	require.NoError(t, validateServerConfig(cfg))
	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, 2*time.Hour, cfg.HistoryTTL)

	cfg.EnableMocks = false
	cfg.DBMinConns = 100
	err := validateServerConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MIN_CONNS")
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.local", getEnvFile(""))
	assert.Equal(t, ".env.staging", getEnvFile("staging"))
}
