package embedding

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/prashantdagar001/automation-api/errors"
)

const openaiEmbedDimension = 1536

type OpenAIProvider struct {
	client openai.Client
	model  openai.EmbeddingModel
}

var (
	_ Provider = (*OpenAIProvider)(nil)
)

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &OpenAIProvider{
		client: client,
		model:  openai.EmbeddingModelTextEmbedding3Small,
	}
}

func (p *OpenAIProvider) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          p.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "openai embeddings: %v", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "openai embeddings: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embedding := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			embedding[j] = float32(v)
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}

func (p *OpenAIProvider) Dimension() int {
	return openaiEmbedDimension
}
