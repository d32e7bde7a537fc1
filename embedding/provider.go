package embedding

import (
	"context"
)

// Provider computes fixed-length embeddings for texts. Implementations call
// external services; failures wrap errors.ErrProviderUnavailable so the
// dispatcher can report degraded service instead of crashing.
type Provider interface {
	Embed(ctx context.Context, texts ...string) ([][]float32, error)
	Dimension() int
}
