package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/briefly/ai/core/llm"
	"github.com/hrygo/briefly/internal/logging"
)

// Task extraction failure causes, reported in logs and metrics.
const (
	CauseCallFailed        = "call_failed"
	CauseEmptyResponse     = "empty_response"
	CauseInvalidJSON       = "invalid_json"
	CauseMissingTasksField = "missing_tasks_field"
)

var (
	errEmptyResponse     = errors.New("empty task extraction response")
	errInvalidJSON       = errors.New("task extraction response is not valid JSON")
	errMissingTasksField = errors.New("task extraction response has no tasks list")
)

// extractTasks asks the model for action items. It never fails: every problem
// degrades to an empty list and is logged with its cause.
func (g *Generator) extractTasks(ctx context.Context, content string) []string {
	logger := logging.FromContext(ctx)

	messages := []llm.Message{
		llm.SystemPrompt(taskSystemPrompt),
		llm.UserMessage(buildTaskPrompt(content)),
	}

	raw, stats, err := g.llm.Chat(ctx, messages,
		llm.WithTemperature(g.config.TaskTemperature),
		llm.WithMaxTokens(g.config.TaskMaxTokens),
		llm.WithJSONObject(),
	)
	if err != nil {
		if ctx.Err() != nil {
			// The request or the structuring call ended first; nothing failed here.
			logger.Debug("task extraction canceled", "error", err)
			return []string{}
		}
		g.taskExtractionFailed(ctx, CauseCallFailed, err)
		return []string{}
	}
	g.recordUsage("tasks", stats)

	tasks, err := parseTasks(raw)
	if err != nil {
		g.taskExtractionFailed(ctx, failureCause(err), err)
		return []string{}
	}

	logger.Debug("tasks extracted", "count", len(tasks))
	return tasks
}

func (g *Generator) taskExtractionFailed(ctx context.Context, cause string, err error) {
	logging.FromContext(ctx).Warn("task extraction failed, continuing without tasks",
		"cause", cause,
		"error", err,
	)
	g.recorder.RecordTaskExtractionFailure(cause)
}

func failureCause(err error) string {
	switch {
	case errors.Is(err, errEmptyResponse):
		return CauseEmptyResponse
	case errors.Is(err, errInvalidJSON):
		return CauseInvalidJSON
	case errors.Is(err, errMissingTasksField):
		return CauseMissingTasksField
	default:
		return CauseCallFailed
	}
}

// parseTasks decodes {"tasks": [...]} from a model response. A bare JSON
// array is accepted too. Non-string and blank entries are dropped.
func parseTasks(raw string) ([]string, error) {
	content := stripCodeFence(raw)
	if content == "" {
		return nil, errEmptyResponse
	}

	var items []any
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidJSON, err)
		}
		return cleanTasks(items), nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidJSON, err)
	}
	field, ok := payload["tasks"]
	if !ok {
		return nil, errMissingTasksField
	}
	if err := json.Unmarshal(field, &items); err != nil || items == nil {
		return nil, errMissingTasksField
	}
	return cleanTasks(items), nil
}

func cleanTasks(items []any) []string {
	tasks := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tasks = append(tasks, s)
		}
	}
	return tasks
}

// stripCodeFence removes a surrounding ```lang ... ``` wrapper models like to
// add. The whole opening fence line is dropped whatever its language tag.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			content = content[i+1:]
		} else {
			content = strings.TrimPrefix(content, "```")
		}
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
