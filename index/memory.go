package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/prashantdagar001/automation-api/embedding"
	"github.com/prashantdagar001/automation-api/errors"
	"gonum.org/v1/gonum/mat"
)

// InMemoryIndex keeps all vectors in process memory. Vectors are normalized
// on insert, so ranking reduces to one matrix-vector multiply.
type InMemoryIndex struct {
	provider embedding.Provider

	mu      sync.RWMutex
	names   []string
	vectors map[string][]float64
}

var (
	_ Index = (*InMemoryIndex)(nil)
)

func NewInMemoryIndex(provider embedding.Provider) *InMemoryIndex {
	return &InMemoryIndex{
		provider: provider,
		vectors:  make(map[string][]float64),
	}
}

func (i *InMemoryIndex) Upsert(ctx context.Context, qualifiedName, description string) error {
	embeddings, err := i.provider.Embed(ctx, description)
	if err != nil {
		return err
	}
	if len(embeddings) != 1 {
		return errors.Wrapf(errors.ErrProviderUnavailable, "expected 1 embedding, got %d", len(embeddings))
	}

	vector := normalize(embeddings[0])

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.vectors[qualifiedName]; !exists {
		i.names = append(i.names, qualifiedName)
		sort.Strings(i.names)
	}
	i.vectors[qualifiedName] = vector

	return nil
}

func (i *InMemoryIndex) Query(ctx context.Context, prompt string, topK int) ([]Match, error) {
	embeddings, err := i.provider.Embed(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "expected 1 embedding, got %d", len(embeddings))
	}
	queryVec := normalize(embeddings[0])
	dim := len(queryVec)

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.names) == 0 {
		return nil, nil
	}

	// Names are kept sorted, so equal scores come out in lexical order
	// after the stable sort below.
	valid := make([]string, 0, len(i.names))
	for _, name := range i.names {
		if len(i.vectors[name]) == dim {
			valid = append(valid, name)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	data := make([]float64, len(valid)*dim)
	for row, name := range valid {
		copy(data[row*dim:(row+1)*dim], i.vectors[name])
	}

	queryVector := mat.NewVecDense(dim, queryVec)
	vectorMatrix := mat.NewDense(len(valid), dim, data)

	var resultVec mat.VecDense
	resultVec.MulVec(vectorMatrix, queryVector)

	matches := make([]Match, len(valid))
	for row, name := range valid {
		// Normalized vectors give an inner product in [-1, 1];
		// shift to [0, 1] for the relevance-score contract.
		matches[row] = Match{
			QualifiedName: name,
			Score:         (resultVec.AtVec(row) + 1.0) * 0.5,
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

func (i *InMemoryIndex) Remove(ctx context.Context, qualifiedName string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, exists := i.vectors[qualifiedName]; !exists {
		return nil
	}
	delete(i.vectors, qualifiedName)
	for idx, name := range i.names {
		if name == qualifiedName {
			i.names = append(i.names[:idx], i.names[idx+1:]...)
			break
		}
	}

	return nil
}

func (i *InMemoryIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.names)
}

func (i *InMemoryIndex) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.names = nil
	i.vectors = make(map[string][]float64)
	return nil
}

func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var norm float64
	for idx, x := range v {
		out[idx] = float64(x)
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return out
	}
	for idx := range out {
		out[idx] /= norm
	}
	return out
}
