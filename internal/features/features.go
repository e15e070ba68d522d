// Package features models the language-specific linguistic features of a
// dictionary record and checks them against per-language structural rules.
package features

import "github.com/valpere/slovnyk/internal/schema"

// FeatureSet is one of the language variants below. The set of variants is
// closed; use a type switch to reach the language-specific fields.
type FeatureSet interface {
	Lang() string
	Base() *BaseFeatures
	featureSet()
}

// BaseFeatures are shared by every variant.
type BaseFeatures struct {
	WordTarget   schema.ValueField[string]          `json:"word_target"`
	PartOfSpeech *schema.ValueField[schema.PosType] `json:"part_of_speech,omitempty"`
	Definition   *schema.ValueField[string]         `json:"definition,omitempty"`
	Examples     []schema.ValueField[string]        `json:"examples"`
}

func (b *BaseFeatures) Base() *BaseFeatures { return b }
func (b *BaseFeatures) featureSet()         {}

// POS returns the declared part of speech, or "" when none is set.
func (b *BaseFeatures) POS() schema.PosType {
	if b.PartOfSpeech == nil {
		return ""
	}
	return b.PartOfSpeech.Value()
}

type EnglishFeatures struct {
	BaseFeatures
}

type GermanFeatures struct {
	BaseFeatures
	Gender          *schema.ValueField[string] `json:"gender,omitempty"`
	Plural          *schema.ValueField[string] `json:"plural,omitempty"`
	DeclensionTable []schema.Inflection        `json:"declension_table,omitempty"`
}

type CroatianFeatures struct {
	BaseFeatures
	Gender      *schema.ValueField[string] `json:"gender,omitempty"`
	Declensions []schema.Inflection        `json:"declensions,omitempty"`
	Aspect      *schema.ValueField[string] `json:"aspect,omitempty"`
}

type KoreanFeatures struct {
	BaseFeatures
	Hanja              *schema.ValueField[string] `json:"hanja,omitempty"`
	Romanization       *schema.ValueField[string] `json:"romanization,omitempty"`
	ConjugationSamples []schema.Inflection        `json:"conjugation_samples,omitempty"`
}

type SpanishFeatures struct {
	BaseFeatures
	Gender           *schema.ValueField[string] `json:"gender,omitempty"`
	Number           *schema.ValueField[string] `json:"number,omitempty"`
	VerbConjugations []schema.Inflection        `json:"verb_conjugations,omitempty"`
}

type FrenchFeatures struct {
	BaseFeatures
	Gender     *schema.ValueField[string] `json:"gender,omitempty"`
	Number     *schema.ValueField[string] `json:"number,omitempty"`
	VerbTenses []schema.Inflection        `json:"verb_tenses,omitempty"`
}

type JapaneseFeatures struct {
	BaseFeatures
	Kanji            *schema.ValueField[string] `json:"kanji,omitempty"`
	Hiragana         *schema.ValueField[string] `json:"hiragana,omitempty"`
	Katakana         *schema.ValueField[string] `json:"katakana,omitempty"`
	Romanization     *schema.ValueField[string] `json:"romanization,omitempty"`
	PolitenessLevels []schema.Inflection        `json:"politeness_levels,omitempty"`
}

type ChineseFeatures struct {
	BaseFeatures
	Simplified   *schema.ValueField[string] `json:"simplified,omitempty"`
	Traditional  *schema.ValueField[string] `json:"traditional,omitempty"`
	Pinyin       *schema.ValueField[string] `json:"pinyin,omitempty"`
	Tones        *schema.ValueField[string] `json:"tones,omitempty"`
	MeasureWords []schema.Inflection        `json:"measure_words,omitempty"`
}

func (*EnglishFeatures) Lang() string  { return "en" }
func (*GermanFeatures) Lang() string   { return "de" }
func (*CroatianFeatures) Lang() string { return "hr" }
func (*KoreanFeatures) Lang() string   { return "ko" }
func (*SpanishFeatures) Lang() string  { return "es" }
func (*FrenchFeatures) Lang() string   { return "fr" }
func (*JapaneseFeatures) Lang() string { return "ja" }
func (*ChineseFeatures) Lang() string  { return "zh" }

// Languages lists the codes that have a feature variant.
var Languages = []string{"en", "de", "hr", "ko", "es", "fr", "ja", "zh"}
