package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/moodify/internal/models"
)

const PlaceholderTaskCount = 6

var ErrNoTaskArray = errors.New("no JSON array found")

// TaskPrompt is the system prompt asking for six task objects.
func TaskPrompt(summary string) string {
	return fmt.Sprintf(`You're a productivity coach.
Return *only* valid JSON, no markdown or backticks.
Your response must be a JSON array of exactly 6 objects.
Each object must follow this schema and use \" to escape any internal quotes:
{
  "task": string,
  "priority": integer,
  "description": string
}
Include one quirky item.
Base them on: %q`, summary)
}

// GenerateTasks asks the model for task suggestions and parses the reply.
func (c *ChatClient) GenerateTasks(ctx context.Context, summary string) ([]models.GeneratedTask, error) {
	raw, err := c.Complete(ctx, []ChatMessage{
		{Role: "system", Content: TaskPrompt(summary)},
		{Role: "user", Content: summary},
	})
	if err != nil {
		return nil, err
	}
	return ParseGeneratedTasks(raw)
}

// ParseGeneratedTasks strips code fences and decodes the outermost JSON array.
// Unknown keys are ignored.
func ParseGeneratedTasks(raw string) ([]models.GeneratedTask, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "```", ""))
	start := strings.IndexByte(cleaned, '[')
	end := strings.LastIndexByte(cleaned, ']')
	if start == -1 || end <= start {
		return nil, ErrNoTaskArray
	}

	var tasks []models.GeneratedTask
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func PlaceholderTasks() []models.GeneratedTask {
	tasks := make([]models.GeneratedTask, PlaceholderTaskCount)
	for i := range tasks {
		tasks[i] = models.GeneratedTask{Task: fmt.Sprintf("Task #%d", i+1)}
	}
	return tasks
}
