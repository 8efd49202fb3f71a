package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/capstone-ai/dna/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Clarify.TTL)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 4096, cfg.Server.MaxInputSize)
	assert.Equal(t, "Authorization", cfg.Remote.AuthHeader)
	assert.Empty(t, cfg.Endpoints.RemoteCall)
}

func TestLoad_Layers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dna.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
env: dev
llm:
  model: from-file
  timeout: 5s
store:
  driver: redis
  ttl: 1h
http:
  headers:
    X-Team: dna
server:
  port: 9000
`), 0o644))

	t.Setenv("DNA_LLM_MODEL", "from-env")
	t.Setenv("DNA_CLARIFY_TTL", "2m")

	v := config.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	require.NoError(t, flags.Parse([]string{"--port", "9100"}))
	require.NoError(t, config.BindFlags(v, flags, map[string]string{"port": "server.port", "missing": "x"}))

	cfg, err := config.Load(v, file)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Clarify.TTL)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "dna", cfg.HTTP.Headers["x-team"])
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "unknown driver", env: map[string]string{"DNA_STORE_DRIVER": "sqlite"}},
		{name: "negative cap", env: map[string]string{"DNA_MEMORY_MAX_MESSAGES": "-1"}},
		{name: "bad port", env: map[string]string{"DNA_SERVER_PORT": "0"}},
		{name: "missing file", file: filepath.Join(t.TempDir(), "nope.yaml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, val := range tt.env {
				t.Setenv(k, val)
			}
			_, err := config.Load(config.New(), tt.file)
			assert.Error(t, err)
		})
	}
}
