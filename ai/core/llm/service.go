package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMCallStats represents statistics for a single LLM call.
type LLMCallStats struct {
	// PromptTokens is the number of tokens in the input prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the generated response.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`

	// CacheReadTokens is the number of tokens read from cache (for providers that support it).
	CacheReadTokens int `json:"cache_read_tokens,omitempty"`

	// TotalDurationMs is the total wall-clock time for the request.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Service is the completion capability consumed by the report generator.
type Service interface {
	// Chat performs a synchronous chat completion. Options override the
	// configured temperature and token cap for this call only.
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, *LLMCallStats, error)

	// Transcribe converts an audio recording to text.
	Transcribe(ctx context.Context, req *TranscribeRequest) (string, error)
}

// TranscribeRequest is a single audio upload.
type TranscribeRequest struct {
	Filename string
	Audio    io.Reader
	Language string
}

// Config represents LLM service configuration.
type Config struct {
	Provider        string // openai, deepseek, siliconflow, openrouter, ollama
	Model           string // gpt-4o, deepseek-chat
	TranscribeModel string // whisper-1
	APIKey          string
	BaseURL         string
	MaxTokens       int     // default: 2048
	Temperature     float32 // default: 0.7
	Timeout         int     // Request timeout in seconds (default: 120)
}

// ChatOption customizes a single Chat call.
type ChatOption func(*chatOptions)

type chatOptions struct {
	temperature *float32
	maxTokens   *int
	jsonObject  bool
}

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float32) ChatOption {
	return func(o *chatOptions) { o.temperature = &t }
}

// WithMaxTokens caps the generated length for one call.
func WithMaxTokens(n int) ChatOption {
	return func(o *chatOptions) { o.maxTokens = &n }
}

// WithJSONObject constrains the response to a single JSON object.
func WithJSONObject() ChatOption {
	return func(o *chatOptions) { o.jsonObject = true }
}

// providerBaseURLs holds the default endpoint of each known OpenAI-compatible provider.
var providerBaseURLs = map[string]string{
	"openai":      "",
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
}

type service struct {
	client          *openai.Client
	model           string
	transcribeModel string
	provider        string
	maxTokens       int
	temperature     float32
	timeout         int // Request timeout in seconds
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		defaultURL, ok := providerBaseURLs[cfg.Provider]
		if !ok {
			// Generic fallback for any other OpenAI-compatible provider
			slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
		}
		baseURL = defaultURL
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	transcribeModel := cfg.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = openai.Whisper1
	}

	return &service{
		client:          openai.NewClientWithConfig(clientConfig),
		model:           cfg.Model,
		transcribeModel: transcribeModel,
		provider:        cfg.Provider,
		maxTokens:       maxTokens,
		temperature:     temperature,
		timeout:         timeout,
	}, nil
}

func (s *service) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	req := s.buildRequest(messages, opts...)

	slog.Debug("LLM: Chat request",
		"provider", s.provider,
		"model", s.model,
		"messages_count", len(messages),
		"max_tokens", req.MaxTokens,
		"json_object", req.ResponseFormat != nil,
	)

	startTime := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: Chat request failed", "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("LLM: Empty response from LLM")
		return "", nil, fmt.Errorf("empty response from LLM")
	}

	totalDuration := time.Since(startTime)

	stats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}
	if resp.Usage.PromptTokensDetails != nil && resp.Usage.PromptTokensDetails.CachedTokens > 0 {
		stats.CacheReadTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	slog.Debug("LLM: Chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", totalDuration.Milliseconds(),
	)

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) buildRequest(messages []Message, opts ...ChatOption) openai.ChatCompletionRequest {
	o := chatOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}
	if o.temperature != nil {
		req.Temperature = *o.temperature
	}
	if o.maxTokens != nil {
		req.MaxTokens = *o.maxTokens
	}
	if o.jsonObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

func (s *service) Transcribe(ctx context.Context, req *TranscribeRequest) (string, error) {
	if req == nil || req.Audio == nil {
		return "", fmt.Errorf("audio is required")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	filename := req.Filename
	if filename == "" {
		filename = "recording.webm"
	}

	startTime := time.Now()
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.transcribeModel,
		FilePath: filename,
		Reader:   req.Audio,
		Language: req.Language,
	})
	if err != nil {
		slog.Error("LLM: transcription failed", "model", s.transcribeModel, "error", err)
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	slog.Debug("LLM: transcription received",
		"model", s.transcribeModel,
		"text_length", len(resp.Text),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	return strings.TrimSpace(resp.Text), nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 180 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Helper for creating system prompts.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
