package quality

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/embedding"
	"github.com/valpere/slovnyk/internal/translator"
)

type fakeTranslator struct {
	out map[string]string
	err error
}

func (f *fakeTranslator) Name() string                      { return "fake" }
func (f *fakeTranslator) IsAvailable(context.Context) error { return nil }

func (f *fakeTranslator) Translate(_ context.Context, req translator.Request) (*translator.Result, error) {
	if f.err != nil {
		return &translator.Result{Service: f.Name(), Error: f.err.Error()}, f.err
	}
	if req.TargetLang != "en" {
		return nil, errors.New("expected back-translation into English")
	}
	return &translator.Result{Service: f.Name(), Text: f.out[req.Text]}, nil
}

type fakeEmbedder struct {
	vectors map[string]embedding.Vector
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (embedding.Vector, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[text], nil
}

func tableEntry() internal.DictionaryEntry {
	return internal.DictionaryEntry{
		Word:          "table",
		TargetLang:    "de",
		ExampleEn:     "The book lies on the table.",
		ExampleTarget: "Das Buch liegt auf dem Tisch.",
	}
}

func TestScoreEntry_Lexical(t *testing.T) {
	tests := []struct {
		back string
		want float64
	}{
		{"The book lies on the table.", 1},
		{"the book is on the table", 0.9231},
	}
	for _, tt := range tests {
		tr := &fakeTranslator{out: map[string]string{"Das Buch liegt auf dem Tisch.": tt.back}}
		sc, err := NewScorer(tr, nil, nil).ScoreEntry(context.Background(), tableEntry())
		if err != nil {
			t.Fatal(err)
		}
		if sc.Final != tt.want || sc.Semantic != sc.Lexical || sc.Embedded {
			t.Errorf("back %q: got %+v, want final %v", tt.back, sc, tt.want)
		}
	}
}

func TestScoreEntry_Embedding(t *testing.T) {
	tr := &fakeTranslator{out: map[string]string{"Das Buch liegt auf dem Tisch.": "the book is on the table"}}
	emb := &fakeEmbedder{vectors: map[string]embedding.Vector{
		"The book lies on the table.": {1, 0},
		"the book is on the table":    {1, 1},
	}}

	sc, err := NewScorer(tr, emb, nil).ScoreEntry(context.Background(), tableEntry())
	if err != nil {
		t.Fatal(err)
	}
	if !sc.Embedded || sc.Semantic != 0.7071 {
		t.Errorf("unexpected semantic score %+v", sc)
	}
	if sc.Final != 0.7503 {
		t.Errorf("final = %v, want 0.8*0.7071 + 0.2*0.9231", sc.Final)
	}
	if sc.Service != "fake" || sc.BackTranslation != "the book is on the table" {
		t.Errorf("unexpected score %+v", sc)
	}
}

func TestScoreEntry_EmbeddingFailureFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := &fakeTranslator{out: map[string]string{"Das Buch liegt auf dem Tisch.": "The book lies on the table."}}

	sc, err := NewScorer(tr, &fakeEmbedder{err: errors.New("model not loaded")}, zap.New(core)).
		ScoreEntry(context.Background(), tableEntry())
	if err != nil {
		t.Fatal(err)
	}
	if sc.Embedded || sc.Final != 1 {
		t.Errorf("expected lexical fallback, got %+v", sc)
	}
	if logs.Len() != 1 {
		t.Errorf("expected one warning, got %d", logs.Len())
	}
}

func TestScoreEntry_Errors(t *testing.T) {
	e := tableEntry()
	e.ExampleTarget = ""
	if _, err := NewScorer(&fakeTranslator{}, nil, nil).ScoreEntry(context.Background(), e); !errors.Is(err, ErrNoExample) {
		t.Errorf("expected ErrNoExample, got %v", err)
	}

	boom := errors.New("quota exceeded")
	if _, err := NewScorer(&fakeTranslator{err: boom}, nil, nil).ScoreEntry(context.Background(), tableEntry()); !errors.Is(err, boom) {
		t.Errorf("expected translator error, got %v", err)
	}
}

func TestScoreAll_SkipsUnscorable(t *testing.T) {
	tr := &fakeTranslator{out: map[string]string{"Das Buch liegt auf dem Tisch.": "The book lies on the table."}}
	noExample := tableEntry()
	noExample.Word = "tame"
	noExample.ExampleTarget = ""

	scores, err := NewScorer(tr, nil, nil).ScoreAll(context.Background(), []internal.DictionaryEntry{tableEntry(), noExample})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 || scores[0].Word != "table" {
		t.Errorf("unexpected scores %+v", scores)
	}
	if Mean(scores) != 1 {
		t.Errorf("mean = %v", Mean(scores))
	}
	if Mean(nil) != 0 {
		t.Error("mean of no scores should be 0")
	}
}
