// Package langcheck checks that generated target-language text is actually
// written in the target language.
package langcheck

import (
	"errors"
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// minCheckLength is the minimum rune count required to attempt detection.
// Shorter texts produce unreliable results and pass unchecked.
const minCheckLength = 20

// ErrLanguageMismatch is wrapped by IsValid when the detected language
// differs from the expected one.
var ErrLanguageMismatch = errors.New("language mismatch")

var languages = map[string]lingua.Language{
	"en": lingua.English,
	"ko": lingua.Korean,
	"de": lingua.German,
	"ja": lingua.Japanese,
	"hr": lingua.Croatian,
	"es": lingua.Spanish,
	"fr": lingua.French,
	"zh": lingua.Chinese,
	"ru": lingua.Russian,
}

// Checker wraps a lingua detector restricted to the dictionary languages.
// Building it is expensive; reuse the instance.
type Checker struct {
	detector lingua.LanguageDetector
}

func New() *Checker {
	langs := make([]lingua.Language, 0, len(languages))
	for _, l := range languages {
		langs = append(langs, l)
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()

	return &Checker{detector: detector}
}

func (c *Checker) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return c.detector.DetectLanguageOf(text)
}

// DetectISO returns the ISO 639-1 code of text, lower-cased.
func (c *Checker) DetectISO(text string) (string, bool) {
	lang, ok := c.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// IsValid returns true when text appears to be written in lang.
//
// Short texts, texts whose language cannot be determined and languages the
// checker does not know pass without error.
func (c *Checker) IsValid(text, lang string) (bool, error) {
	if _, known := languages[lang]; !known {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("text is empty")
	}
	if len([]rune(text)) < minCheckLength {
		return true, nil
	}

	detected, ok := c.DetectISO(text)
	if !ok {
		return true, nil
	}
	if !strings.EqualFold(detected, lang) {
		return false, fmt.Errorf("%w: expected %s but detected %s", ErrLanguageMismatch, lang, detected)
	}
	return true, nil
}
