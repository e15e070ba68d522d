package features

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/schema"
)

var (
	ErrEmptyWord = errors.New("field 'word' cannot be empty")
	ErrNoVariant = errors.New("no feature variant for language")
)

// RawRecord is a target-language record as produced by any data source,
// before confidence scoring. Only the fields of the record's language
// variant are used.
type RawRecord struct {
	Lang        string `json:"lang" yaml:"lang"`
	Word        string `json:"word" yaml:"word"`
	Source      string `json:"source" yaml:"source"`
	PromptID    string `json:"prompt_id,omitempty" yaml:"prompt_id,omitempty"`
	GeneratedBy string `json:"generated_by,omitempty" yaml:"generated_by,omitempty"`

	POS              string   `json:"pos,omitempty" yaml:"pos,omitempty"`
	DefinitionTarget string   `json:"definition_target,omitempty" yaml:"definition_target,omitempty"`
	ExampleTarget    string   `json:"example_target,omitempty" yaml:"example_target,omitempty"`
	Examples         []string `json:"examples,omitempty" yaml:"examples,omitempty"`

	Gender       string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Plural       string `json:"plural,omitempty" yaml:"plural,omitempty"`
	Number       string `json:"number,omitempty" yaml:"number,omitempty"`
	Aspect       string `json:"aspect,omitempty" yaml:"aspect,omitempty"`
	Hanja        string `json:"hanja,omitempty" yaml:"hanja,omitempty"`
	Romanization string `json:"romanization,omitempty" yaml:"romanization,omitempty"`
	Kanji        string `json:"kanji,omitempty" yaml:"kanji,omitempty"`
	Hiragana     string `json:"hiragana,omitempty" yaml:"hiragana,omitempty"`
	Katakana     string `json:"katakana,omitempty" yaml:"katakana,omitempty"`
	Simplified   string `json:"simplified,omitempty" yaml:"simplified,omitempty"`
	Traditional  string `json:"traditional,omitempty" yaml:"traditional,omitempty"`
	Pinyin       string `json:"pinyin,omitempty" yaml:"pinyin,omitempty"`
	Tones        string `json:"tones,omitempty" yaml:"tones,omitempty"`

	Declensions      map[string]string `json:"declensions,omitempty" yaml:"declensions,omitempty"`
	Conjugations     map[string]string `json:"conjugations,omitempty" yaml:"conjugations,omitempty"`
	VerbTenses       map[string]string `json:"verb_tenses,omitempty" yaml:"verb_tenses,omitempty"`
	PolitenessLevels map[string]string `json:"politeness_levels,omitempty" yaml:"politeness_levels,omitempty"`
	MeasureWords     map[string]string `json:"measure_words,omitempty" yaml:"measure_words,omitempty"`
}

// FromEntry turns a collected dictionary entry into a raw record attributed
// to source.
func FromEntry(e internal.DictionaryEntry, source string) RawRecord {
	return RawRecord{
		Lang:             e.TargetLang,
		Word:             e.WordTarget,
		Source:           source,
		POS:              e.POS,
		DefinitionTarget: e.DefinitionTarget,
		ExampleTarget:    e.ExampleTarget,
	}
}

// posTags maps source-language part-of-speech labels per language.
var posTags = map[string]map[string]schema.PosType{
	"de": {"Substantiv": schema.PosNoun, "Verb": schema.PosVerb, "Adjektiv": schema.PosAdj},
	"ko": {"명사": schema.PosNoun, "동사": schema.PosVerb, "형용사": schema.PosAdj},
	"ja": {"名詞": schema.PosNoun, "動詞": schema.PosVerb, "形容詞": schema.PosAdj},
	"en": {"noun": schema.PosNoun, "verb": schema.PosVerb, "adjective": schema.PosAdj},
	"hr": {"imenica": schema.PosNoun, "glagol": schema.PosVerb, "pridjev": schema.PosAdj},
	"es": {"nombre": schema.PosNoun, "verbo": schema.PosVerb, "adjetivo": schema.PosAdj},
	"fr": {"nom": schema.PosNoun, "verbe": schema.PosVerb, "adjectif": schema.PosAdj},
	"zh": {"名词": schema.PosNoun, "动词": schema.PosVerb, "形容词": schema.PosAdj},
}

// MapPOS normalises a raw part-of-speech label. Language-specific labels
// are tried first, then the canonical English names in any language.
func MapPOS(raw, lang string) (schema.PosType, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if pos, ok := posTags[lang][raw]; ok {
		return pos, true
	}
	switch p := schema.PosType(strings.ToLower(raw)); p {
	case schema.PosNoun, schema.PosVerb, schema.PosAdj, schema.PosAdv, schema.PosOther:
		return p, true
	}
	return "", false
}

// ReadingSource supplies a hiragana reading for Japanese text.
type ReadingSource interface {
	Hiragana(text string) string
}

// Builder turns raw records into scored feature sets. Missing fields are
// reported to the parser log.
type Builder struct {
	parserLog *zap.Logger
	reader    ReadingSource
}

// NewBuilder returns a Builder. parserLog may be nil; reader may be nil to
// skip Japanese reading enrichment.
func NewBuilder(parserLog *zap.Logger, reader ReadingSource) *Builder {
	if parserLog == nil {
		parserLog = zap.NewNop()
	}
	return &Builder{parserLog: parserLog, reader: reader}
}

// Build assembles the language variant of rec.
func (b *Builder) Build(rec RawRecord) (FeatureSet, error) {
	if strings.TrimSpace(rec.Word) == "" {
		return nil, ErrEmptyWord
	}
	if !slices.Contains(Languages, rec.Lang) {
		return nil, fmt.Errorf("%w: %q", ErrNoVariant, rec.Lang)
	}
	r := &recordBuilder{
		rec:  rec,
		prov: schema.NewProvenance(rec.Source, rec.GeneratedBy, rec.PromptID),
		log:  b.parserLog,
	}
	base := r.base()

	switch rec.Lang {
	case "en":
		return &EnglishFeatures{BaseFeatures: base}, nil
	case "de":
		return &GermanFeatures{
			BaseFeatures:    base,
			Gender:          r.field(rec.Gender, "gender"),
			Plural:          r.field(rec.Plural, "plural"),
			DeclensionTable: r.inflections(rec.Declensions),
		}, nil
	case "hr":
		return &CroatianFeatures{
			BaseFeatures: base,
			Gender:       r.field(rec.Gender, "gender"),
			Aspect:       r.field(rec.Aspect, "aspect"),
			Declensions:  r.inflections(rec.Declensions),
		}, nil
	case "ko":
		return &KoreanFeatures{
			BaseFeatures:       base,
			Hanja:              r.field(rec.Hanja, "hanja"),
			Romanization:       r.field(rec.Romanization, "romanization"),
			ConjugationSamples: r.inflections(rec.Conjugations),
		}, nil
	case "es":
		return &SpanishFeatures{
			BaseFeatures:     base,
			Gender:           r.field(rec.Gender, "gender"),
			Number:           r.field(rec.Number, "number"),
			VerbConjugations: r.inflections(rec.Conjugations),
		}, nil
	case "fr":
		return &FrenchFeatures{
			BaseFeatures: base,
			Gender:       r.field(rec.Gender, "gender"),
			Number:       r.field(rec.Number, "number"),
			VerbTenses:   r.inflections(rec.VerbTenses),
		}, nil
	case "ja":
		f := &JapaneseFeatures{
			BaseFeatures:     base,
			Kanji:            r.field(rec.Kanji, "kanji"),
			Hiragana:         r.field(rec.Hiragana, "hiragana"),
			Katakana:         r.field(rec.Katakana, "katakana"),
			Romanization:     r.field(rec.Romanization, "romanization"),
			PolitenessLevels: r.inflections(rec.PolitenessLevels),
		}
		if f.Hiragana == nil && b.reader != nil {
			f.Hiragana = r.enrich(b.reader.Hiragana(rec.Word), "hiragana", ReadingSourceName)
		}
		return f, nil
	case "zh":
		return &ChineseFeatures{
			BaseFeatures: base,
			Simplified:   r.field(rec.Simplified, "simplified"),
			Traditional:  r.field(rec.Traditional, "traditional"),
			Pinyin:       r.field(rec.Pinyin, "pinyin"),
			Tones:        r.field(rec.Tones, "tones"),
			MeasureWords: r.inflections(rec.MeasureWords),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrNoVariant, rec.Lang)
	}
}

type recordBuilder struct {
	rec  RawRecord
	prov schema.Provenance
	log  *zap.Logger
}

func (r *recordBuilder) base() BaseFeatures {
	word := r.field(r.rec.Word, "word")

	base := BaseFeatures{WordTarget: *word}
	if pos, ok := MapPOS(r.rec.POS, r.rec.Lang); ok {
		base.PartOfSpeech = newField(pos, r.prov, schema.Confidence(r.prov.Source, "pos"))
	} else {
		r.missing("pos")
	}
	base.Definition = r.field(r.rec.DefinitionTarget, "definition")

	examples := r.rec.Examples
	if r.rec.ExampleTarget != "" {
		examples = append(examples[:len(examples):len(examples)], r.rec.ExampleTarget)
	}
	for _, ex := range examples {
		if f := r.field(ex, "examples"); f != nil {
			base.Examples = append(base.Examples, *f)
		}
	}
	return base
}

// field scores a non-empty value; empty values are logged and yield nil.
func (r *recordBuilder) field(value, key string) *schema.ValueField[string] {
	value = strings.TrimSpace(value)
	if value == "" {
		r.missing(key)
		return nil
	}
	return newField(value, r.prov, schema.Confidence(r.prov.Source, key))
}

// enrich scores a value derived from another source.
func (r *recordBuilder) enrich(value, key, source string) *schema.ValueField[string] {
	if value == "" {
		return nil
	}
	return newField(value, r.prov.WithSource(source), schema.Confidence(source, key))
}

func (r *recordBuilder) inflections(forms map[string]string) []schema.Inflection {
	if len(forms) == 0 {
		return nil
	}
	types := make([]string, 0, len(forms))
	for t := range forms {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]schema.Inflection, 0, len(types))
	for _, t := range types {
		form := r.field(forms[t], "inflection")
		if form == nil {
			continue
		}
		out = append(out, schema.Inflection{Form: *form, Type: t})
	}
	return out
}

func (r *recordBuilder) missing(key string) {
	r.log.Warn("Missing or empty field",
		zap.String("lang", r.rec.Lang),
		zap.String("word", r.rec.Word),
		zap.String("key", key),
		zap.String("source", r.prov.Source),
		zap.String("severity", "warning"))
}

func newField[T any](value T, prov schema.Provenance, confidence float64) *schema.ValueField[T] {
	f, err := schema.NewValueField(value, prov, confidence)
	if err != nil {
		return nil
	}
	return &f
}
