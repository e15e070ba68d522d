package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/generator"
	"github.com/valpere/slovnyk/internal/langcheck"
)

type fakeSource struct {
	words  []string
	strict bool
	calls  int
}

func (s *fakeSource) Generate(_ context.Context, _ string, _ int, strict bool) []string {
	s.calls++
	s.strict = strict
	return s.words
}

type verdict struct {
	ok     bool
	score  float64
	rarity int
}

type fakeValidator map[string]verdict

func (v fakeValidator) Validate(_ context.Context, word string) (bool, internal.DictionaryEntry) {
	d := v[word]
	return d.ok, internal.DictionaryEntry{
		Word: word, Score: d.score, Confidence: d.score, Rarity: d.rarity,
		DefinitionEn: "def of " + word, ExampleEn: "example of " + word,
		ExampleTarget: "target " + word,
	}
}

type fakeVerifier map[string]bool

func (v fakeVerifier) IsValid(text, lang string) (bool, error) {
	if v[text] {
		return true, nil
	}
	return false, langcheck.ErrLanguageMismatch
}

type fakeEmbedder struct{ fail bool }

func (e fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedder down")
	}
	return []float32{1, 0}, nil
}

func TestFilter_Cutoffs(t *testing.T) {
	src := &fakeSource{words: []string{"tab", "table", "tale", "tax"}}
	val := fakeValidator{
		"tab":   {ok: true, score: 0.5, rarity: 2}, // below score cut
		"table": {ok: true, score: 0.85, rarity: 2},
		"tale":  {ok: false},
		"tax":   {ok: true, score: 0.9, rarity: 4}, // rarity at cut
	}
	f := NewFilter(src, val, FilterConfig{TargetLang: "ko", ScoreCut: 0.6, RarityCut: 4}, nil)

	res := f.Run(context.Background(), "ta", 5)
	if res.Interrupted {
		t.Fatal("unexpected interruption")
	}
	if len(res.Entries) != 1 || res.Entries[0].Word != "table" || res.Entries[0].Prefix != "ta" {
		t.Fatalf("expected only table, got %+v", res.Entries)
	}
	want := internal.Metrics{CandidatesGenerated: 4, Attempts: 4, Accepted: 1, Rejected: 3}
	if res.Metrics != want {
		t.Errorf("metrics = %+v, want %+v", res.Metrics, want)
	}
}

func TestFilter_StopsAtBatch(t *testing.T) {
	src := &fakeSource{words: []string{"table", "tablet", "tackle"}}
	val := fakeValidator{
		"table":  {ok: true, score: 0.9, rarity: 1},
		"tablet": {ok: true, score: 0.9, rarity: 1},
		"tackle": {ok: true, score: 0.9, rarity: 1},
	}
	f := NewFilter(src, val, FilterConfig{ScoreCut: 0.6, RarityCut: 4}, nil)

	res := f.Run(context.Background(), "ta", 2)
	if len(res.Entries) != 2 || res.Metrics.Attempts != 2 {
		t.Errorf("expected to stop after 2 accepted, got %d entries / %d attempts", len(res.Entries), res.Metrics.Attempts)
	}
}

func TestFilter_StrictForRarePrefix(t *testing.T) {
	src := &fakeSource{}
	f := NewFilter(src, fakeValidator{}, FilterConfig{Rare: generator.DefaultRareSet}, nil)

	f.Run(context.Background(), "qx", 1)
	if !src.strict {
		t.Error("expected strict generation for a rare prefix")
	}
	f.Run(context.Background(), "ta", 1)
	if src.strict {
		t.Error("expected normal generation for a common prefix")
	}
}

func TestFilter_LanguageMismatch(t *testing.T) {
	src := &fakeSource{words: []string{"table", "tale"}}
	val := fakeValidator{
		"table": {ok: true, score: 0.9, rarity: 1},
		"tale":  {ok: true, score: 0.9, rarity: 1},
	}
	f := NewFilter(src, val, FilterConfig{
		TargetLang: "ko", ScoreCut: 0.6, RarityCut: 4,
		Verifier: fakeVerifier{"target table": true},
	}, nil)

	res := f.Run(context.Background(), "ta", 5)
	if len(res.Entries) != 1 || res.Entries[0].Word != "table" {
		t.Fatalf("expected only table, got %+v", res.Entries)
	}
	if res.Metrics.LangMismatch != 1 || res.Metrics.Rejected != 1 {
		t.Errorf("expected one lang_mismatch rejection, got %+v", res.Metrics)
	}
}

func TestFilter_Embeddings(t *testing.T) {
	val := fakeValidator{"table": {ok: true, score: 0.9, rarity: 1}}

	f := NewFilter(&fakeSource{words: []string{"table"}}, val,
		FilterConfig{ScoreCut: 0.6, RarityCut: 4, Embedder: fakeEmbedder{}}, nil)
	res := f.Run(context.Background(), "ta", 1)
	if len(res.Entries) != 1 || len(res.Entries[0].EmbeddingDefinition) != 2 || len(res.Entries[0].EmbeddingExample) != 2 {
		t.Errorf("expected vectors on the accepted entry, got %+v", res.Entries)
	}

	f = NewFilter(&fakeSource{words: []string{"table"}}, val,
		FilterConfig{ScoreCut: 0.6, RarityCut: 4, Embedder: fakeEmbedder{fail: true}}, nil)
	res = f.Run(context.Background(), "ta", 1)
	if len(res.Entries) != 1 || res.Metrics.EmbeddingFailures != 1 {
		t.Errorf("embedding failure must not reject the entry: %+v", res)
	}
}

func TestFilter_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{words: []string{"table"}}
	res := NewFilter(src, fakeValidator{}, FilterConfig{}, nil).Run(ctx, "ta", 1)
	if !res.Interrupted || src.calls != 0 {
		t.Errorf("expected interruption without generation, got %+v (calls %d)", res, src.calls)
	}
}
