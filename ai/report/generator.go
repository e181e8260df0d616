// Package report turns a free-form work update into a sectioned weekly report
// and a list of action items using an OpenAI-compatible LLM.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/briefly/ai/core/llm"
	"github.com/hrygo/briefly/internal/logging"
)

// Config holds the generation parameters.
type Config struct {
	APIKey string

	StructureTemperature float32 // default: 0.7
	StructureMaxTokens   int     // default: 2000
	TaskTemperature      float32 // default: 0.1
	TaskMaxTokens        int     // default: 1000
}

// Result is a generated report with its extracted tasks. Tasks is never nil.
type Result struct {
	Report string
	Tasks  []string
}

// Recorder receives generation metrics. A nil Recorder is allowed.
type Recorder interface {
	RecordGeneration(role string, duration time.Duration, success bool)
	RecordTasksExtracted(count int)
	RecordTaskExtractionFailure(cause string)
	RecordLLMTokens(call string, promptTokens, completionTokens int)
}

// Generator is the report structuring service.
type Generator struct {
	llm      llm.Service
	config   Config
	recorder Recorder
}

// NewGenerator creates a Generator. It returns ErrConfiguration when the API
// key or the LLM client is missing.
func NewGenerator(cfg *Config, client llm.Service, recorder Recorder) (*Generator, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrConfiguration
	}
	if client == nil {
		return nil, fmt.Errorf("%w: LLM client is nil", ErrConfiguration)
	}

	config := *cfg
	if config.StructureTemperature <= 0 {
		config.StructureTemperature = 0.7
	}
	if config.StructureMaxTokens <= 0 {
		config.StructureMaxTokens = 2000
	}
	if config.TaskTemperature <= 0 {
		config.TaskTemperature = 0.1
	}
	if config.TaskMaxTokens <= 0 {
		config.TaskMaxTokens = 1000
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &Generator{
		llm:      client,
		config:   config,
		recorder: recorder,
	}, nil
}

// Generate structures content into a report and extracts its tasks. The two
// LLM calls run concurrently; only the structuring call can fail the request.
func (g *Generator) Generate(ctx context.Context, content string, role Role) (*Result, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}

	logger := logging.FromContext(ctx)
	roleLabel := string(role)
	if !role.Known() {
		logger.Debug("unknown role, generating without role emphasis", "role", role)
		roleLabel = "other"
	}

	startTime := time.Now()
	var (
		structured string
		tasks      []string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		r, err := g.structure(egCtx, content, role)
		if err != nil {
			return err
		}
		structured = r
		return nil
	})
	eg.Go(func() error {
		tasks = g.extractTasks(egCtx, content)
		return nil
	})

	if err := eg.Wait(); err != nil {
		g.recorder.RecordGeneration(roleLabel, time.Since(startTime), false)
		logger.Error("report generation failed", "role", role, "error", err)
		return nil, err
	}

	g.recorder.RecordGeneration(roleLabel, time.Since(startTime), true)
	g.recorder.RecordTasksExtracted(len(tasks))
	logger.Info("report generated",
		"role", role,
		"report_length", len(structured),
		"tasks", len(tasks),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return &Result{Report: structured, Tasks: tasks}, nil
}

func (g *Generator) structure(ctx context.Context, content string, role Role) (string, error) {
	messages := []llm.Message{
		llm.SystemPrompt(structureSystemPrompt),
		llm.UserMessage(BuildPrompt(content, role)),
	}

	raw, stats, err := g.llm.Chat(ctx, messages,
		llm.WithTemperature(g.config.StructureTemperature),
		llm.WithMaxTokens(g.config.StructureMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	g.recordUsage("structure", stats)

	structured := stripCodeFence(raw)
	if structured == "" {
		return "", fmt.Errorf("%w: empty response from LLM", ErrGenerationFailed)
	}
	if !HasSectionHeading(structured) {
		return "", fmt.Errorf("%w: response has no section headings", ErrGenerationFailed)
	}
	return structured, nil
}

func (g *Generator) recordUsage(call string, stats *llm.LLMCallStats) {
	if stats == nil {
		return
	}
	g.recorder.RecordLLMTokens(call, stats.PromptTokens, stats.CompletionTokens)
}

// HasSectionHeading reports whether the report has at least one "## " heading line.
func HasSectionHeading(report string) bool {
	for _, line := range strings.Split(report, "\n") {
		if strings.HasPrefix(line, "## ") {
			return true
		}
	}
	return false
}

type noopRecorder struct{}

func (noopRecorder) RecordGeneration(string, time.Duration, bool) {}
func (noopRecorder) RecordTasksExtracted(int) {}
func (noopRecorder) RecordTaskExtractionFailure(string) {}
func (noopRecorder) RecordLLMTokens(string, int, int) {}
