package extract

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
)

type AnthropicExtractor struct {
	client anthropic.Client
	model  anthropic.Model
}

var (
	_ LLMExtractor = (*AnthropicExtractor)(nil)
)

func NewAnthropicExtractor(apiKey string, model string) *AnthropicExtractor {
	if model == "" {
		model = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicExtractor{
		client: client,
		model:  anthropic.Model(model),
	}
}

func (e *AnthropicExtractor) Extract(ctx context.Context, prompt string, params []registry.ParameterSpec) (map[string]any, error) {
	if len(params) == 0 {
		return map[string]any{}, nil
	}

	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: extractionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildExtractionPrompt(prompt, params))),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "anthropic extraction: %v", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "anthropic extraction: empty response")
	}

	return parseExtraction(text, params)
}
