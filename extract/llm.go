package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
)

// LLMExtractor resolves parameter values a pattern pass could not find by
// asking a chat model to read the prompt.
type LLMExtractor interface {
	Extract(ctx context.Context, prompt string, params []registry.ParameterSpec) (map[string]any, error)
}

const extractionSystemPrompt = `You extract function call parameters from a user instruction.
Respond with a single JSON object mapping parameter names to values.
Only include parameters whose value is clearly stated in the instruction.
Never invent values. Respond with {} when nothing can be extracted.`

func buildExtractionPrompt(prompt string, params []registry.ParameterSpec) string {
	var sb strings.Builder
	sb.WriteString("Instruction:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\nParameters to extract:\n")
	for _, param := range params {
		sb.WriteString("- ")
		sb.WriteString(param.Name)
		if param.Type != "" {
			sb.WriteString(" (")
			sb.WriteString(param.Type)
			sb.WriteString(")")
		}
		if param.Required {
			sb.WriteString(" [required]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseExtraction decodes the model output, tolerating code fences, and
// drops any keys that are not known parameter names.
func parseExtraction(raw string, params []registry.ParameterSpec) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, errors.Wrapf(err, "failed to decode extraction response")
	}

	known := make(map[string]bool, len(params))
	for _, param := range params {
		known[param.Name] = true
	}

	extracted := make(map[string]any, len(decoded))
	for name, value := range decoded {
		if known[name] && value != nil {
			extracted[name] = value
		}
	}
	return extracted, nil
}
