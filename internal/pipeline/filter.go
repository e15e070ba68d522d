package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/generator"
	"github.com/valpere/slovnyk/internal/langcheck"
)

// CandidateSource produces candidate words for a prefix.
type CandidateSource interface {
	Generate(ctx context.Context, prefix string, targetCount int, strict bool) []string
}

// WordValidator runs the consensus check on one word.
type WordValidator interface {
	Validate(ctx context.Context, word string) (bool, internal.DictionaryEntry)
}

// LanguageVerifier reports whether text is written in lang.
type LanguageVerifier interface {
	IsValid(text, lang string) (bool, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// FilterConfig holds the acceptance cutoffs and optional collaborators.
type FilterConfig struct {
	TargetLang string
	ScoreCut   float64
	RarityCut  int

	// Rare selects strict generation for a prefix; nil never does.
	Rare generator.RareSet
	// Verifier, when set, rejects entries whose target text is in the
	// wrong language.
	Verifier LanguageVerifier
	// Embedder, when set, attaches definition and example vectors.
	Embedder Embedder
}

// PrefixResult is the outcome of one prefix.
type PrefixResult struct {
	Prefix  string
	Entries []internal.DictionaryEntry
	Metrics internal.Metrics
	// Interrupted is set when shutdown was requested before the prefix
	// finished; the entries and metrics must then be discarded.
	Interrupted bool
}

// Filter decides which validated words of a prefix enter the dictionary.
type Filter struct {
	candidates CandidateSource
	validator  WordValidator
	cfg        FilterConfig
	logger     *zap.Logger
}

func NewFilter(candidates CandidateSource, validator WordValidator, cfg FilterConfig, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{candidates: candidates, validator: validator, cfg: cfg, logger: logger}
}

// Run pulls candidates for prefix and keeps an entry iff it reached
// consensus, scores at least ScoreCut and is rarer than RarityCut allows.
// It stops once batch entries are accepted, candidates run out or ctx is
// cancelled.
func (f *Filter) Run(ctx context.Context, prefix string, batch int) PrefixResult {
	res := PrefixResult{Prefix: prefix}
	if ctx.Err() != nil {
		res.Interrupted = true
		return res
	}

	strict := f.cfg.Rare != nil && f.cfg.Rare.Contains(prefix)
	candidates := f.candidates.Generate(ctx, prefix, batch, strict)
	res.Metrics.CandidatesGenerated = len(candidates)

	for _, word := range candidates {
		if ctx.Err() != nil {
			res.Interrupted = true
			return res
		}

		ok, entry := f.validator.Validate(ctx, word)
		if ctx.Err() != nil {
			// Samples cut short by shutdown are not a verdict on the word.
			res.Interrupted = true
			return res
		}
		entry.Prefix = prefix
		res.Metrics.Attempts++

		if !ok || entry.Score < f.cfg.ScoreCut || entry.Rarity >= f.cfg.RarityCut {
			res.Metrics.Rejected++
			continue
		}
		if !f.verifyLanguage(entry) {
			res.Metrics.Rejected++
			res.Metrics.LangMismatch++
			continue
		}
		if f.cfg.Embedder != nil && !f.embed(ctx, &entry) {
			res.Metrics.EmbeddingFailures++
		}

		res.Entries = append(res.Entries, entry)
		res.Metrics.Accepted++
		if len(res.Entries) >= batch {
			break
		}
	}
	return res
}

func (f *Filter) verifyLanguage(entry internal.DictionaryEntry) bool {
	if f.cfg.Verifier == nil {
		return true
	}
	text := entry.ExampleTarget
	if text == "" {
		text = entry.DefinitionTarget
	}
	if text == "" {
		return true
	}

	valid, err := f.cfg.Verifier.IsValid(text, f.cfg.TargetLang)
	if err != nil && !errors.Is(err, langcheck.ErrLanguageMismatch) {
		f.logger.Debug("language check skipped", zap.String("word", entry.Word), zap.Error(err))
		return true
	}
	if !valid {
		f.logger.Info("lang_mismatch",
			zap.String("word", entry.Word),
			zap.String("lang", f.cfg.TargetLang),
			zap.Error(err))
	}
	return valid
}

// embed attaches vectors to entry and reports whether both succeeded.
// Failures leave the entry accepted without vectors.
func (f *Filter) embed(ctx context.Context, entry *internal.DictionaryEntry) bool {
	ok := true
	if entry.DefinitionEn != "" {
		v, err := f.cfg.Embedder.Embed(ctx, entry.DefinitionEn)
		if err != nil {
			f.logger.Warn("embedding failed", zap.String("word", entry.Word), zap.String("field", "definition"), zap.Error(err))
			ok = false
		} else {
			entry.EmbeddingDefinition = v
		}
	}
	if entry.ExampleEn != "" {
		v, err := f.cfg.Embedder.Embed(ctx, entry.ExampleEn)
		if err != nil {
			f.logger.Warn("embedding failed", zap.String("word", entry.Word), zap.String("field", "example"), zap.Error(err))
			ok = false
		} else {
			entry.EmbeddingExample = v
		}
	}
	return ok
}
