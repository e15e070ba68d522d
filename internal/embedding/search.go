package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/slovnyk/internal"
)

// Hit is a dictionary entry ranked against a query.
type Hit struct {
	Entry internal.DictionaryEntry
	Score float64
}

// SearchEntries ranks entries by the cosine similarity of their definition
// vectors to query. Entries without a vector are embedded first; the
// vectors are written back into entries so callers can keep them.
func SearchEntries(ctx context.Context, e Embedder, query string, entries []internal.DictionaryEntry, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	q, err := e.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vectors := make([]Vector, len(entries))
	for i := range entries {
		if len(entries[i].EmbeddingDefinition) == 0 {
			text := entries[i].DefinitionEn
			if text == "" {
				text = entries[i].Word
			}
			v, err := e.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("failed to embed %q: %w", entries[i].Word, err)
			}
			entries[i].EmbeddingDefinition = v
		}
		vectors[i] = entries[i].EmbeddingDefinition
	}

	matches := Rank(q, vectors, limit)
	hits := make([]Hit, len(matches))
	for i, m := range matches {
		hits[i] = Hit{Entry: entries[m.Index], Score: m.Score}
	}
	return hits, nil
}
