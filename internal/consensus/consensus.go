// Package consensus validates a candidate word by sampling the oracle at
// several temperatures and accepting it only on quorum agreement.
package consensus

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/config"
	"github.com/valpere/slovnyk/internal/oracle"
)

// Config controls sampling and normalisation.
type Config struct {
	TargetLang   string
	LanguageName string
	Temperatures []float64
	RarityCut    int
	// Concurrency bounds in-flight samples per word; 1 samples sequentially.
	Concurrency int
}

// Validator runs the multi-sample consensus check.
type Validator struct {
	oracle oracle.Oracle
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func New(o oracle.Oracle, cfg Config, logger *zap.Logger) *Validator {
	if cfg.LanguageName == "" {
		cfg.LanguageName = config.LanguageName(cfg.TargetLang)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{oracle: o, cfg: cfg, logger: logger, now: time.Now}
}

// Quorum is the number of accepting samples required out of n:
// max(2, ceil((n+1)/2)).
func Quorum(n int) int {
	return max(2, (n+2)/2)
}

// Reached reports whether k accepting samples out of n form a quorum.
func Reached(k, n int) bool {
	return n > 0 && k >= Quorum(n)
}

// Validate samples the oracle once per configured temperature and reduces
// the judgments. The returned entry is meaningful only when accepted is true.
func (v *Validator) Validate(ctx context.Context, word string) (bool, internal.DictionaryEntry) {
	judgments := v.Sample(ctx, word)
	ok, entry := Aggregate(word, v.cfg.TargetLang, judgments, v.now())

	v.logger.Debug("consensus",
		zap.String("word", word),
		zap.Bool("accepted", ok),
		zap.Int("accepting", countAccepting(judgments)),
		zap.Int("samples", len(judgments)),
		zap.Float64("score", entry.Score))
	return ok, entry
}

// Sample returns one judgment per temperature, in temperature order.
func (v *Validator) Sample(ctx context.Context, word string) []Judgment {
	judgments := make([]Judgment, len(v.cfg.Temperatures))
	prompt := buildPrompt(word, v.cfg.LanguageName)

	var g errgroup.Group
	g.SetLimit(v.cfg.Concurrency)
	for i, temp := range v.cfg.Temperatures {
		g.Go(func() error {
			judgments[i] = v.judge(ctx, word, prompt, temp)
			return nil
		})
	}
	_ = g.Wait()
	return judgments
}

func (v *Validator) judge(ctx context.Context, word, prompt string, temp float64) Judgment {
	opts := oracle.DefaultSampleOptions(temp)
	opts.Format = "json"

	resp, err := v.oracle.Generate(ctx, prompt, opts)
	if err != nil {
		v.logger.Warn("validation sample failed",
			zap.String("word", word),
			zap.Float64("temperature", temp),
			zap.Error(err))
		j := rejecting(word, ReasonOracleUnavailable)
		j.Temperature = temp
		return j
	}

	j := ParseJudgment(word, resp, v.cfg.RarityCut)
	j.Temperature = temp
	if len(j.Reasons) > 0 && j.Reasons[0] == ReasonInvalidJSON {
		v.logger.Warn("unparseable judgment",
			zap.String("word", word),
			zap.Float64("temperature", temp))
	}
	return j
}

// Aggregate reduces judgments to a decision. On consensus the accepting
// judgment with the highest confidence (earliest on ties) supplies the
// part of speech and every definition, example and translation; confidence
// and rarity are means over the accepting judgments and
// score = confidence * k/n.
func Aggregate(word, targetLang string, judgments []Judgment, collectedAt time.Time) (bool, internal.DictionaryEntry) {
	entry := internal.DictionaryEntry{
		Word:       word,
		Length:     utf8.RuneCountInString(word),
		TargetLang: targetLang,
	}

	n := len(judgments)
	k := countAccepting(judgments)
	if !Reached(k, n) {
		return false, entry
	}

	var best *Judgment
	var confSum, raritySum float64
	for i := range judgments {
		j := &judgments[i]
		if !j.Accept {
			continue
		}
		confSum += j.Confidence
		raritySum += float64(j.Rarity)
		if best == nil || j.Confidence > best.Confidence {
			best = j
		}
	}

	conf := confSum / float64(k)
	score := conf * float64(k) / float64(n)

	entry.POS = best.POS
	entry.DefinitionEn = best.DefinitionEn
	entry.ExampleEn = best.ExampleEn
	entry.WordTarget = best.WordTarget
	entry.DefinitionTarget = best.DefinitionTarget
	entry.ExampleTarget = best.ExampleTarget
	entry.Rarity = int(math.RoundToEven(raritySum / float64(k)))
	entry.Confidence = round3(conf)
	entry.Score = round3(score)
	entry.CollectedAt = collectedAt
	return true, entry
}

func countAccepting(judgments []Judgment) int {
	k := 0
	for _, j := range judgments {
		if j.Accept {
			k++
		}
	}
	return k
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func buildPrompt(word, langName string) string {
	return fmt.Sprintf(`You are a multilingual dictionary editor. Validate the English word '%[1]s' and provide its translation and usage in %[2]s.

Return ONLY a single JSON object with the following structure.

{
  "word": "%[1]s",
  "pos": "part of speech (e.g., noun, verb)",
  "definition_en": "A concise English definition (max 25 words).",
  "example_en": "A natural English example sentence (max 25 words).",
  "word_target": "The single, most common one-word translation of '%[1]s' in %[2]s.",
  "definition_target": "A concise and natural translation of the definition in %[2]s.",
  "example_target": "A natural translation of the example in %[2]s.",
  "proper_noun": false,
  "rarity": 3,
  "confidence": 0.8,
  "accept": true,
  "reasons": []
}

Rules:
- The word_target field MUST be a single, direct translation of the English word.
- rarity is 1 (very common) to 5 (archaic or very rare); confidence is 0 to 1.
- Reject if proper noun, abbreviation, misspelling, or very rare/archaic.
- Keep all text fields concise.

Validate and provide the dictionary entry for: '%[1]s'
`, word, langName)
}
