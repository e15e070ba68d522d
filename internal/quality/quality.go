// Package quality scores translated examples by back-translating them
// into English and comparing the result with the source example.
package quality

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/embedding"
	"github.com/valpere/slovnyk/internal/textsim"
	"github.com/valpere/slovnyk/internal/translator"
)

const (
	semanticWeight = 0.8
	lexicalWeight  = 0.2
)

// ErrNoExample is returned for entries without a target-language example.
var ErrNoExample = errors.New("entry has no target example")

// Score is the back-translation quality of one entry.
type Score struct {
	Word            string  `json:"word"`
	Lang            string  `json:"lang"`
	BackTranslation string  `json:"back_translation"`
	Service         string  `json:"service"`
	Semantic        float64 `json:"embedding_similarity"`
	Lexical         float64 `json:"lexical_similarity"`
	Final           float64 `json:"final_score"`
	// Embedded is false when Semantic fell back to lexical similarity.
	Embedded bool `json:"embedded"`
}

type Scorer struct {
	translator translator.Service
	embedder   embedding.Embedder
	logger     *zap.Logger
}

// NewScorer returns a Scorer. embedder may be nil, in which case the
// semantic component is the lexical similarity.
func NewScorer(t translator.Service, e embedding.Embedder, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{translator: t, embedder: e, logger: logger}
}

// ScoreEntry back-translates e.ExampleTarget and compares it with
// e.ExampleEn, or with the headword when the entry has no English example.
func (s *Scorer) ScoreEntry(ctx context.Context, e internal.DictionaryEntry) (*Score, error) {
	if strings.TrimSpace(e.ExampleTarget) == "" {
		return nil, fmt.Errorf("%s: %w", e.Word, ErrNoExample)
	}
	reference := e.ExampleEn
	if strings.TrimSpace(reference) == "" {
		reference = e.Word
	}

	res, err := s.translator.Translate(ctx, translator.Request{
		Text:       e.ExampleTarget,
		SourceLang: e.TargetLang,
		TargetLang: internal.SourceLang,
	})
	if err != nil {
		return nil, fmt.Errorf("back-translation of %q failed: %w", e.Word, err)
	}

	sc := &Score{
		Word:            e.Word,
		Lang:            e.TargetLang,
		BackTranslation: res.Text,
		Service:         res.Service,
		Lexical:         round4(textsim.Similarity(normalize(reference), normalize(res.Text))),
	}
	sc.Semantic = sc.Lexical

	if s.embedder != nil {
		if sim, err := s.semantic(ctx, reference, res.Text); err != nil {
			s.logger.Warn("Embedding similarity failed, using lexical similarity",
				zap.String("word", e.Word), zap.Error(err))
		} else {
			sc.Semantic = round4(sim)
			sc.Embedded = true
		}
	}

	sc.Final = round4(semanticWeight*sc.Semantic + lexicalWeight*sc.Lexical)
	return sc, nil
}

// ScoreAll scores every entry with a target example. Entries that cannot
// be scored are logged and skipped.
func (s *Scorer) ScoreAll(ctx context.Context, entries []internal.DictionaryEntry) ([]Score, error) {
	var scores []Score
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return scores, err
		}
		sc, err := s.ScoreEntry(ctx, e)
		if err != nil {
			s.logger.Warn("Skipping entry", zap.String("word", e.Word), zap.Error(err))
			continue
		}
		scores = append(scores, *sc)
	}
	return scores, nil
}

// Mean returns the average final score.
func Mean(scores []Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Final
	}
	return round4(sum / float64(len(scores)))
}

func (s *Scorer) semantic(ctx context.Context, a, b string) (float64, error) {
	va, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return embedding.CosineSimilarity(va, vb), nil
}

func normalize(s string) string {
	s = strings.ToLower(textsim.Normalize(s))
	return strings.TrimRight(s, ".!?")
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
