package features

import (
	"fmt"

	"github.com/valpere/slovnyk/internal/config"
	"github.com/valpere/slovnyk/internal/schema"
)

// MinExampleConfidence is the lowest confidence an example may carry in a
// validated corpus.
const MinExampleConfidence = 0.85

// Violation is one broken structural rule.
type Violation struct {
	Lang   string `json:"lang"`
	Word   string `json:"word"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s", v.Lang, v.Reason)
}

// Result is the outcome of validating one feature set.
type Result struct {
	Lang       string      `json:"lang"`
	Word       string      `json:"word"`
	Violations []Violation `json:"violations,omitempty"`
}

// Valid reports whether no rule was broken.
func (r Result) Valid() bool { return len(r.Violations) == 0 }

type ruleFunc func(fs FeatureSet) []Violation

// rules holds the language-specific checks; the universal example rules
// run for every variant.
var rules = map[string]ruleFunc{
	"de": germanRules,
	"hr": croatianRules,
	"ko": koreanRules,
	"es": spanishRules,
	"fr": frenchRules,
	"ja": japaneseRules,
	"zh": chineseRules,
}

// Validate checks fs against the universal rules and the rules of its
// language. It never fails; broken rules are reported in the Result.
func Validate(fs FeatureSet) Result {
	b := fs.Base()
	res := Result{Lang: fs.Lang(), Word: b.WordTarget.Value()}

	if rule, ok := rules[fs.Lang()]; ok {
		res.Violations = append(res.Violations, rule(fs)...)
	}
	res.Violations = append(res.Violations, exampleRules(fs)...)
	return res
}

func exampleRules(fs FeatureSet) []Violation {
	b := fs.Base()
	word := b.WordTarget.Value()
	if len(b.Examples) == 0 {
		return []Violation{violation(fs, "examples", "%s entry '%s' is missing 'examples'.", languageName(fs), word)}
	}
	var out []Violation
	for _, ex := range b.Examples {
		if ex.Confidence() < MinExampleConfidence {
			out = append(out, violation(fs, "examples",
				"Example '%s' for '%s' has low confidence %v.", ex.Value(), word, ex.Confidence()))
		}
	}
	return out
}

func germanRules(fs FeatureSet) []Violation {
	f := fs.(*GermanFeatures)
	if f.POS() != schema.PosNoun {
		return nil
	}
	var out []Violation
	if f.Gender == nil {
		out = append(out, missing(fs, "noun", "gender"))
	}
	if f.Plural == nil {
		out = append(out, missing(fs, "noun", "plural"))
	}
	return out
}

func croatianRules(fs FeatureSet) []Violation {
	f := fs.(*CroatianFeatures)
	switch f.POS() {
	case schema.PosNoun:
		if f.Gender == nil {
			return []Violation{missing(fs, "noun", "gender")}
		}
	case schema.PosVerb:
		if f.Aspect == nil {
			return []Violation{missing(fs, "verb", "aspect")}
		}
	}
	return nil
}

func koreanRules(fs FeatureSet) []Violation {
	f := fs.(*KoreanFeatures)
	var out []Violation
	if f.POS() == schema.PosVerb && len(f.ConjugationSamples) == 0 {
		out = append(out, missing(fs, "verb", "conjugation_samples"))
	}
	if f.Hanja != nil && f.Romanization == nil {
		out = append(out, violation(fs, "romanization",
			"Korean entry '%s' with hanja must have romanization.", f.WordTarget.Value()))
	}
	return out
}

func spanishRules(fs FeatureSet) []Violation {
	f := fs.(*SpanishFeatures)
	return genderNumber(fs, f.Gender, f.Number)
}

func frenchRules(fs FeatureSet) []Violation {
	f := fs.(*FrenchFeatures)
	return genderNumber(fs, f.Gender, f.Number)
}

func genderNumber(fs FeatureSet, gender, number *schema.ValueField[string]) []Violation {
	if fs.Base().POS() != schema.PosNoun {
		return nil
	}
	var out []Violation
	if gender == nil {
		out = append(out, missing(fs, "noun", "gender"))
	}
	if number == nil {
		out = append(out, missing(fs, "noun", "number"))
	}
	return out
}

func japaneseRules(fs FeatureSet) []Violation {
	f := fs.(*JapaneseFeatures)
	if f.Kanji == nil && f.Hiragana == nil && f.Katakana == nil {
		return []Violation{violation(fs, "kanji",
			"Japanese entry '%s' must have at least one of 'kanji', 'hiragana', or 'katakana'.", f.WordTarget.Value())}
	}
	return nil
}

func chineseRules(fs FeatureSet) []Violation {
	f := fs.(*ChineseFeatures)
	if f.Simplified == nil && f.Traditional == nil {
		return []Violation{violation(fs, "simplified",
			"Chinese entry '%s' must have at least one of 'simplified' or 'traditional'.", f.WordTarget.Value())}
	}
	return nil
}

func missing(fs FeatureSet, pos, field string) Violation {
	return violation(fs, field, "%s %s '%s' is missing '%s'.", languageName(fs), pos, fs.Base().WordTarget.Value(), field)
}

func violation(fs FeatureSet, field, format string, args ...any) Violation {
	return Violation{
		Lang:   fs.Lang(),
		Word:   fs.Base().WordTarget.Value(),
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func languageName(fs FeatureSet) string {
	return config.LanguageName(fs.Lang())
}
