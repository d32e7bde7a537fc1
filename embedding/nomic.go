package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/prashantdagar001/automation-api/errors"
)

type (
	TaskType string

	// NomicProvider embeds texts through the Nomic Atlas embedding API.
	NomicProvider struct {
		client   *http.Client
		apiKey   string
		endpoint string
		taskType TaskType
	}
)

const (
	TaskTypeDocument TaskType = "search_document"
	TaskTypeQuery    TaskType = "search_query"

	NomicTextEndpoint = "https://api-atlas.nomic.ai/v1/embedding/text"
	NomicTextModel    = "nomic-embed-text-v1.5"

	nomicEmbedDimension = 768
)

var (
	_ Provider = (*NomicProvider)(nil)
)

func NewNomicProvider(apiKey string, taskType TaskType) *NomicProvider {
	return &NomicProvider{
		client:   http.DefaultClient,
		apiKey:   apiKey,
		endpoint: NomicTextEndpoint,
		taskType: taskType,
	}
}

// WithEndpoint overrides the API endpoint. Used by tests.
func (p *NomicProvider) WithEndpoint(endpoint string) *NomicProvider {
	p.endpoint = endpoint
	return p
}

func (p *NomicProvider) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var requestBody bytes.Buffer
	if err := json.NewEncoder(&requestBody).Encode(struct {
		TaskType string   `json:"task_type"`
		Model    string   `json:"model"`
		Texts    []string `json:"texts"`
	}{
		TaskType: string(p.taskType),
		Model:    NomicTextModel,
		Texts:    texts,
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &requestBody)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "nomic embeddings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "nomic embeddings: HTTP %d", resp.StatusCode)
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "nomic embeddings: %v", err)
	}

	return response.Embeddings, nil
}

func (p *NomicProvider) Dimension() int {
	return nomicEmbedDimension
}
