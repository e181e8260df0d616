package profile

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	ALLMProvider string // Provider identifier: openai, deepseek, siliconflow, openrouter, ollama
	ALLMAPIKey   string // Unified LLM API key
	ALLMBaseURL  string // Unified LLM base URL (optional, has default per provider)
	ALLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	ALLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Speech-to-text model used by /api/transcribe
	AITranscribeModel string

	// HS256 secret shared with the identity provider that issues session tokens
	AuthSecret string

	// Finalized reports are posted here when set
	FinalizeWebhookURL string

	// Report generations allowed per user per minute
	GenerateRatePerMinute int

	Mode        string
	Addr        string
	InstanceURL string
	Version     string
	Port        int
	AIEnabled   bool
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.ALLMAPIKey != ""
}

// IsAuthConfigured returns true if session tokens can be verified.
func (p *Profile) IsAuthConfigured() bool {
	return p.AuthSecret != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.ALLMProvider = strings.ToLower(getEnvOrDefault("BRIEFLY_AI_LLM_PROVIDER", "openai"))
	p.ALLMAPIKey = getEnvOrDefault("BRIEFLY_AI_LLM_API_KEY", "")
	p.ALLMBaseURL = getEnvOrDefault("BRIEFLY_AI_LLM_BASE_URL", "")
	p.ALLMModel = getEnvOrDefault("BRIEFLY_AI_LLM_MODEL", "")
	p.ALLMTimeout = getEnvOrDefaultInt("BRIEFLY_AI_LLM_TIMEOUT_SECONDS", 120)
	p.AITranscribeModel = getEnvOrDefault("BRIEFLY_AI_TRANSCRIBE_MODEL", "whisper-1")

	p.AIEnabled = p.ALLMAPIKey != ""

	if _, ok := llmProviderDefaults[p.ALLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: openai", "provider", p.ALLMProvider)
		p.ALLMProvider = "openai"
	}
	defaults := llmProviderDefaults[p.ALLMProvider]
	if p.ALLMBaseURL == "" {
		p.ALLMBaseURL = defaults.BaseURL
	}
	if p.ALLMModel == "" {
		p.ALLMModel = defaults.Model
	}

	p.AuthSecret = getEnvOrDefault("BRIEFLY_AUTH_SECRET", "")
	p.FinalizeWebhookURL = getEnvOrDefault("BRIEFLY_FINALIZE_WEBHOOK_URL", "")
	p.GenerateRatePerMinute = getEnvOrDefaultInt("BRIEFLY_GENERATE_RATE_PER_MINUTE", 10)
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	if p.ALLMTimeout <= 0 {
		p.ALLMTimeout = 120
	}
	if p.GenerateRatePerMinute <= 0 {
		p.GenerateRatePerMinute = 10
	}

	if p.Mode == "prod" && p.AuthSecret == "" {
		slog.Warn("BRIEFLY_AUTH_SECRET is not set; every authenticated route will return 401")
	}
	return nil
}
