// Package schema holds the provenance-tracked value types shared by every
// feature set and the confidence policy that scores them.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultGenerator is recorded when a record does not name its generator.
const DefaultGenerator = "gpt-oss-120b-v1.0"

// ErrConfidenceRange is returned when a confidence lies outside [0, 1].
var ErrConfidenceRange = errors.New("confidence must be between 0.0 and 1.0")

// PosType is a normalised part of speech.
type PosType string

const (
	PosNoun  PosType = "noun"
	PosVerb  PosType = "verb"
	PosAdj   PosType = "adjective"
	PosAdv   PosType = "adverb"
	PosOther PosType = "other"
)

// Provenance records where a linguistic fact came from.
type Provenance struct {
	Source      string    `json:"source" yaml:"source"`
	GeneratedBy string    `json:"generated_by" yaml:"generated_by"`
	PromptID    string    `json:"prompt_id,omitempty" yaml:"prompt_id,omitempty"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	AnnotatorID string    `json:"annotator_id,omitempty" yaml:"annotator_id,omitempty"`
}

// NewProvenance stamps a provenance with the current UTC time.
func NewProvenance(source, generatedBy, promptID string) Provenance {
	if generatedBy == "" {
		generatedBy = DefaultGenerator
	}
	return Provenance{
		Source:      source,
		GeneratedBy: generatedBy,
		PromptID:    promptID,
		Timestamp:   time.Now().UTC(),
	}
}

// WithSource returns a copy of p attributed to another source.
func (p Provenance) WithSource(source string) Provenance {
	p.Source = source
	return p
}

// ValueField is a single fact with its provenance and confidence. The zero
// value is valid and carries confidence 0. Fields are read-only once built.
type ValueField[T any] struct {
	value      T
	provenance Provenance
	confidence float64
}

// NewValueField fails with ErrConfidenceRange unless 0 <= confidence <= 1.
func NewValueField[T any](value T, prov Provenance, confidence float64) (ValueField[T], error) {
	if err := checkConfidence(confidence); err != nil {
		return ValueField[T]{}, err
	}
	return ValueField[T]{value: value, provenance: prov, confidence: confidence}, nil
}

func (f ValueField[T]) Value() T               { return f.value }
func (f ValueField[T]) Provenance() Provenance { return f.provenance }
func (f ValueField[T]) Confidence() float64    { return f.confidence }

type valueFieldJSON[T any] struct {
	Value      T          `json:"value"`
	Provenance Provenance `json:"provenance"`
	Confidence float64    `json:"confidence"`
}

func (f ValueField[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueFieldJSON[T]{Value: f.value, Provenance: f.provenance, Confidence: f.confidence})
}

// UnmarshalJSON rejects documents whose confidence is out of range.
func (f *ValueField[T]) UnmarshalJSON(data []byte) error {
	var raw valueFieldJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := checkConfidence(raw.Confidence); err != nil {
		return err
	}
	*f = ValueField[T]{value: raw.Value, provenance: raw.Provenance, confidence: raw.Confidence}
	return nil
}

func checkConfidence(c float64) error {
	// written negated so NaN fails
	if !(c >= 0 && c <= 1) {
		return fmt.Errorf("%w, got %v", ErrConfidenceRange, c)
	}
	return nil
}

// Inflection is one inflected form: a declension case, a conjugation, a
// politeness level or a measure word.
type Inflection struct {
	Form   ValueField[string] `json:"form"`
	Type   string             `json:"type"`
	Tense  string             `json:"tense,omitempty"`
	Aspect string             `json:"aspect,omitempty"`
	Mood   string             `json:"mood,omitempty"`
}
