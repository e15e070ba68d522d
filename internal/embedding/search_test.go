package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/valpere/slovnyk/internal"
)

type mapEmbedder struct {
	vectors map[string]Vector
	calls   int
}

func (m *mapEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	m.calls++
	v, ok := m.vectors[text]
	if !ok {
		return nil, errors.New("unknown text " + text)
	}
	return v, nil
}

func TestSearchEntries(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string]Vector{
		"furniture":              {1, 0},
		"a piece of furniture":   {0.9, 0.1},
		"a vehicle you can hire": {0, 1},
	}}
	entries := []internal.DictionaryEntry{
		{Word: "taxi", DefinitionEn: "a vehicle you can hire"},
		{Word: "table", DefinitionEn: "a piece of furniture"},
		{Word: "tame", EmbeddingDefinition: []float32{0.5, 0.5}},
	}

	hits, err := SearchEntries(context.Background(), emb, "furniture", entries, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Entry.Word != "table" || hits[1].Entry.Word != "tame" {
		t.Errorf("unexpected hits %+v", hits)
	}
	if emb.calls != 3 {
		t.Errorf("expected query plus two missing vectors embedded, got %d calls", emb.calls)
	}
	if len(entries[0].EmbeddingDefinition) == 0 {
		t.Error("computed vectors should be written back")
	}
}

func TestSearchEntries_Errors(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string]Vector{"q": {1}}}
	if _, err := SearchEntries(context.Background(), emb, "  ", nil, 0); err == nil {
		t.Error("expected error for empty query")
	}
	entries := []internal.DictionaryEntry{{Word: "zebra"}}
	if _, err := SearchEntries(context.Background(), emb, "q", entries, 0); err == nil {
		t.Error("expected embedding error to surface")
	}
}
