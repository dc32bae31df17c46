// Package completion submits prompts to a text-completion service.
package completion

import (
	"context"
	"strings"
)

// Completer turns a prompt into reply text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Model names the model serving completions, used as a metrics label
	Model() string
}

// CleanResponse strips markdown code fences from a reply
func CleanResponse(response string) string {
	response = strings.ReplaceAll(response, "```json\n", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}
