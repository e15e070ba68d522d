package internal

import "time"

// SourceLang is the language every headword is collected in.
const SourceLang = "en"

// DictionaryEntry is an accepted, aggregated dictionary record.
type DictionaryEntry struct {
	Word   string `json:"word" yaml:"word"`
	Prefix string `json:"prefix" yaml:"prefix"`
	Length int    `json:"length" yaml:"length"`
	POS    string `json:"pos" yaml:"pos"`

	DefinitionEn string `json:"definition_en" yaml:"definition_en"`
	ExampleEn    string `json:"example_en" yaml:"example_en"`

	WordTarget       string `json:"word_target" yaml:"word_target"`
	DefinitionTarget string `json:"definition_target" yaml:"definition_target"`
	ExampleTarget    string `json:"example_target" yaml:"example_target"`
	TargetLang       string `json:"target_lang" yaml:"target_lang"`

	Rarity      int       `json:"rarity" yaml:"rarity"`
	Confidence  float64   `json:"confidence" yaml:"confidence"`
	Score       float64   `json:"score" yaml:"score"`
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`

	EmbeddingDefinition []float32 `json:"embedding_definition,omitempty" yaml:"embedding_definition,omitempty"`
	EmbeddingExample    []float32 `json:"embedding_example,omitempty" yaml:"embedding_example,omitempty"`
}

// Metrics are the run counters persisted with every checkpoint.
type Metrics struct {
	CandidatesGenerated int `json:"candidates_generated"`
	Attempts            int `json:"attempts"`
	Accepted            int `json:"accepted"`
	Rejected            int `json:"rejected"`
	LangMismatch        int `json:"lang_mismatch,omitempty"`
	EmbeddingFailures   int `json:"embedding_failures,omitempty"`
}

// Add accumulates other into m.
func (m *Metrics) Add(other Metrics) {
	m.CandidatesGenerated += other.CandidatesGenerated
	m.Attempts += other.Attempts
	m.Accepted += other.Accepted
	m.Rejected += other.Rejected
	m.LangMismatch += other.LangMismatch
	m.EmbeddingFailures += other.EmbeddingFailures
}
