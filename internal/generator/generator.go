// Package generator asks the oracle for source-language words that share a
// prefix and filters the raw reply into a clean candidate list.
package generator

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/slovnyk/internal/oracle"
	"github.com/valpere/slovnyk/internal/postprocess"
)

// NoneFoundSentinel is the reply a strict prompt asks for when no common word
// exists for a prefix.
const NoneFoundSentinel = "No common words found"

const candidateTemperature = 0.1

var leadingMarkers = regexp.MustCompile(`^[\s\-\*\d\.\)\(]+`)

// Config controls candidate filtering.
type Config struct {
	MinLen        int
	MaxLen        int
	OvergenFactor float64
	Stopwords     map[string]struct{}
}

// Generator produces candidate words for a prefix.
type Generator struct {
	oracle oracle.Oracle
	cfg    Config
	logger *zap.Logger
}

// New returns a Generator. A nil Stopwords set uses DefaultStopwords.
func New(o oracle.Oracle, cfg Config, logger *zap.Logger) *Generator {
	if cfg.OvergenFactor < 1.0 {
		cfg.OvergenFactor = 1.0
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = DefaultStopwords
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{oracle: o, cfg: cfg, logger: logger}
}

// Cap is the over-generation cap for a target count.
func (g *Generator) Cap(targetCount int) int {
	return int(math.Ceil(float64(max(targetCount, 1)) * g.cfg.OvergenFactor))
}

// Generate returns up to Cap(targetCount) candidates in oracle order. An
// oracle failure yields an empty list, never an error.
func (g *Generator) Generate(ctx context.Context, prefix string, targetCount int, strict bool) []string {
	over := g.Cap(targetCount)
	prompt := g.prompt(prefix, over, strict)

	resp, err := g.oracle.Generate(ctx, prompt, oracle.DefaultSampleOptions(candidateTemperature))
	if err != nil {
		g.logger.Warn("candidate generation failed",
			zap.String("prefix", prefix),
			zap.Error(err))
		return nil
	}
	resp = postprocess.StripReasoning(resp)

	if strings.Contains(strings.ToLower(resp), strings.ToLower(NoneFoundSentinel)) {
		g.logger.Debug("oracle reported no common words", zap.String("prefix", prefix))
		return nil
	}
	return g.Filter(resp, prefix, over)
}

// Filter applies the per-line rules to a raw reply.
func (g *Generator) Filter(resp, prefix string, limit int) []string {
	prefix = strings.ToLower(prefix)
	seen := make(map[string]struct{})
	var words []string

	for _, line := range strings.Split(resp, "\n") {
		w := strings.ToLower(strings.TrimSpace(line))
		w = leadingMarkers.ReplaceAllString(w, "")
		w = strings.Trim(w, " '-")
		w = norm.NFC.String(w)
		if w == "" {
			continue
		}

		n := utf8.RuneCountInString(w)
		if n < g.cfg.MinLen || n > g.cfg.MaxLen {
			continue
		}
		if !strings.HasPrefix(w, prefix) {
			continue
		}
		if _, stop := g.cfg.Stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}

		seen[w] = struct{}{}
		words = append(words, w)
		if len(words) >= limit {
			break
		}
	}
	return words
}

func (g *Generator) prompt(prefix string, over int, strict bool) string {
	if strict {
		return fmt.Sprintf(`List ONLY real, common English words starting with '%s'.
- Up to %d words
- One word per line
- No proper nouns or abbreviations
- Words must be >= %d letters
If none exist, write: %s.`, prefix, over, g.cfg.MinLen, NoneFoundSentinel)
	}
	return fmt.Sprintf(`List %d real English words that start with '%s'.
- One word per line, no extra text
- >= %d letters`, over, prefix, g.cfg.MinLen)
}
