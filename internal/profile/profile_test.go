package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BRIEFLY_AI_LLM_PROVIDER",
		"BRIEFLY_AI_LLM_API_KEY",
		"BRIEFLY_AI_LLM_BASE_URL",
		"BRIEFLY_AI_LLM_MODEL",
		"BRIEFLY_AI_LLM_TIMEOUT_SECONDS",
		"BRIEFLY_AI_TRANSCRIBE_MODEL",
		"BRIEFLY_AUTH_SECRET",
		"BRIEFLY_FINALIZE_WEBHOOK_URL",
		"BRIEFLY_GENERATE_RATE_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.ALLMProvider)
	assert.Equal(t, "gpt-4o", p.ALLMModel)
	assert.Equal(t, "https://api.openai.com/v1", p.ALLMBaseURL)
	assert.Equal(t, 120, p.ALLMTimeout)
	assert.Equal(t, "whisper-1", p.AITranscribeModel)
	assert.Equal(t, 10, p.GenerateRatePerMinute)
	assert.False(t, p.AIEnabled)
	assert.False(t, p.IsAIEnabled())
	assert.False(t, p.IsAuthConfigured())
}

func TestProfileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRIEFLY_AI_LLM_PROVIDER", "DeepSeek")
	t.Setenv("BRIEFLY_AI_LLM_API_KEY", "sk-test")
	t.Setenv("BRIEFLY_AI_LLM_TIMEOUT_SECONDS", "30")
	t.Setenv("BRIEFLY_AUTH_SECRET", "secret")
	t.Setenv("BRIEFLY_FINALIZE_WEBHOOK_URL", "https://hooks.example.com/reports")
	t.Setenv("BRIEFLY_GENERATE_RATE_PER_MINUTE", "not-a-number")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "deepseek", p.ALLMProvider)
	assert.Equal(t, "deepseek-chat", p.ALLMModel)
	assert.Equal(t, "https://api.deepseek.com", p.ALLMBaseURL)
	assert.Equal(t, 30, p.ALLMTimeout)
	assert.True(t, p.AIEnabled)
	assert.True(t, p.IsAuthConfigured())
	assert.Equal(t, "https://hooks.example.com/reports", p.FinalizeWebhookURL)
	assert.Equal(t, 10, p.GenerateRatePerMinute, "unparsable values fall back to the default")
}

func TestProfileUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRIEFLY_AI_LLM_PROVIDER", "acme")
	t.Setenv("BRIEFLY_AI_LLM_MODEL", "acme-large")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.ALLMProvider)
	assert.Equal(t, "acme-large", p.ALLMModel, "explicit model is kept")
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		wantMode string
		wantErr  bool
	}{
		{name: "unknown mode becomes demo", profile: Profile{Mode: "staging", Port: 8081}, wantMode: "demo"},
		{name: "prod kept", profile: Profile{Mode: "prod", Port: 8081, AuthSecret: "s"}, wantMode: "prod"},
		{name: "negative port", profile: Profile{Mode: "dev", Port: -1}, wantErr: true},
		{name: "port too large", profile: Profile{Mode: "dev", Port: 70000}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, p.Mode)
			assert.Equal(t, 120, p.ALLMTimeout)
			assert.Equal(t, 10, p.GenerateRatePerMinute)
		})
	}
}

func TestProfileIsDev(t *testing.T) {
	assert.True(t, (&Profile{Mode: "dev"}).IsDev())
	assert.True(t, (&Profile{Mode: "demo"}).IsDev())
	assert.False(t, (&Profile{Mode: "prod"}).IsDev())
}
