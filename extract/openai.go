package extract

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
)

type OpenAIExtractor struct {
	client openai.Client
	model  openai.ChatModel
}

var (
	_ LLMExtractor = (*OpenAIExtractor)(nil)
)

func NewOpenAIExtractor(apiKey string, model string) *OpenAIExtractor {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &OpenAIExtractor{
		client: client,
		model:  openai.ChatModel(model),
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, prompt string, params []registry.ParameterSpec) (map[string]any, error) {
	if len(params) == 0 {
		return map[string]any{}, nil
	}

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionSystemPrompt),
			openai.UserMessage(buildExtractionPrompt(prompt, params)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "openai extraction: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "openai extraction: empty response")
	}

	return parseExtraction(resp.Choices[0].Message.Content, params)
}
