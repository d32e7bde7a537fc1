package index

import (
	"context"
)

type (
	// Match is one ranked result of a similarity query. Score is cosine
	// similarity mapped onto [0, 1].
	Match struct {
		QualifiedName string  `json:"qualified_name"`
		Score         float64 `json:"score"`
	}

	// Index stores one embedding per registered function description and
	// answers nearest-neighbour queries over them. Results are ordered by
	// score descending, ties broken by qualified name ascending so queries
	// are deterministic.
	Index interface {
		Upsert(ctx context.Context, qualifiedName, description string) error
		Query(ctx context.Context, prompt string, topK int) ([]Match, error)
		Remove(ctx context.Context, qualifiedName string) error
		Len() int
		Close() error
	}
)
