package schema

import "strings"

// Source reliability ranks. Curated lexical databases and human annotation
// outrank generated data.
var sourceReliability = map[string]float64{
	"omw":        1.0,
	"wordnet":    1.0,
	"human":      1.0,
	"kagome_ipa": 0.95,
	"llm":        0.90,
}

// Field weights rank how literally a field can be copied from its source.
var fieldWeights = map[string]float64{
	"word":         0.98,
	"gender":       0.99,
	"plural":       0.97,
	"number":       0.97,
	"aspect":       0.96,
	"pos":          0.95,
	"hanja":        0.95,
	"kanji":        0.95,
	"hiragana":     0.95,
	"katakana":     0.95,
	"simplified":   0.95,
	"traditional":  0.95,
	"romanization": 0.94,
	"pinyin":       0.94,
	"tones":        0.93,
	"definition":   0.92,
	"inflection":   0.92,
	"examples":     0.90,
}

const (
	defaultSourceReliability = 0.80
	defaultFieldWeight       = 0.90
)

// Confidence returns baseConfidence(source) * fieldWeight(field), rounded to
// four decimals. Unknown sources and fields use conservative defaults.
func Confidence(source, field string) float64 {
	c := SourceReliability(source) * FieldWeight(field)
	return float64(int(c*10000+0.5)) / 10000
}

// SourceReliability matches source exactly first, then by its family prefix
// ("omw_v1_ja" -> "omw", "llm:gpt-oss-120b" -> "llm").
func SourceReliability(source string) float64 {
	s := strings.ToLower(strings.TrimSpace(source))
	if r, ok := sourceReliability[s]; ok {
		return r
	}
	if i := strings.IndexAny(s, "_:-/"); i > 0 {
		if r, ok := sourceReliability[s[:i]]; ok {
			return r
		}
	}
	return defaultSourceReliability
}

func FieldWeight(field string) float64 {
	if w, ok := fieldWeights[strings.ToLower(field)]; ok {
		return w
	}
	return defaultFieldWeight
}
