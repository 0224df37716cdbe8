package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "deck-api", cfg.ServiceName)
	assert.Equal(t, ":8095", cfg.Addr())
	assert.Equal(t, ProviderJan, cfg.LLMProvider)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, 90*time.Second, cfg.AgentBudget)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.False(t, cfg.RemoteEnabled())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"auth without issuer", map[string]string{"AUTH_ENABLED": "true"}, "AUTH_ISSUER"},
		{"openai without key", map[string]string{"LLM_PROVIDER": "OpenAI"}, "LLM_API_KEY"},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "claude"}, "unsupported LLM_PROVIDER"},
		{"s3 without bucket", map[string]string{"STORAGE_BACKEND": "s3"}, "S3_BUCKET"},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "ftp"}, "unsupported STORAGE_BACKEND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	t.Setenv("BACKGROUND_WORKER_COUNT", "0")
	t.Setenv("AGENT_BUDGET", "0s")
	t.Setenv("GENERATION_SERVICE_URL", "https://gen.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 90*time.Second, cfg.AgentBudget)
	assert.True(t, cfg.RemoteEnabled())
}
