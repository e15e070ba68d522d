package consensus

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/valpere/slovnyk/internal/postprocess"
)

// Rejection reasons added during normalisation.
const (
	ReasonInvalidJSON       = "invalid_json"
	ReasonOracleUnavailable = "oracle_unavailable"
	ReasonProperNoun        = "proper_noun"
	ReasonRarityCutoff      = "rarity_cutoff"
)

const (
	minRarity = 1
	maxRarity = 5
)

// Judgment is one oracle sample's verdict on a candidate word.
type Judgment struct {
	Word             string   `json:"word"`
	Accept           bool     `json:"accept"`
	Confidence       float64  `json:"confidence"`
	Rarity           int      `json:"rarity"`
	POS              string   `json:"pos"`
	DefinitionEn     string   `json:"definition_en"`
	ExampleEn        string   `json:"example_en"`
	WordTarget       string   `json:"word_target"`
	DefinitionTarget string   `json:"definition_target"`
	ExampleTarget    string   `json:"example_target"`
	ProperNoun       bool     `json:"proper_noun"`
	Reasons          []string `json:"reasons"`

	Temperature float64 `json:"-"`
}

// rejecting returns the synthetic judgment used when a sample yields nothing
// usable.
func rejecting(word, reason string) Judgment {
	return Judgment{
		Word:       word,
		Accept:     false,
		Confidence: 0,
		Rarity:     maxRarity,
		Reasons:    []string{reason},
	}
}

// rawJudgment tolerates the loose typing oracles produce: numbers as
// strings, booleans as strings, a single reason instead of a list.
type rawJudgment struct {
	Word             string      `json:"word"`
	Accept           *flexBool   `json:"accept"`
	Confidence       *flexFloat  `json:"confidence"`
	Rarity           *flexFloat  `json:"rarity"`
	POS              string      `json:"pos"`
	DefinitionEn     string      `json:"definition_en"`
	ExampleEn        string      `json:"example_en"`
	WordTarget       string      `json:"word_target"`
	DefinitionTarget string      `json:"definition_target"`
	ExampleTarget    string      `json:"example_target"`
	ProperNoun       *flexBool   `json:"proper_noun"`
	Reasons          flexStrings `json:"reasons"`
}

// ParseJudgment decodes the first JSON object in an oracle completion and
// normalises it. Absent fields take rejecting defaults (accept=false,
// confidence=0, rarity=5). A completion without a decodable object yields a
// rejecting judgment with reason invalid_json.
func ParseJudgment(word, completion string, rarityCut int) Judgment {
	payload, ok := postprocess.ExtractJSON(completion)
	if !ok {
		return rejecting(word, ReasonInvalidJSON)
	}
	var raw rawJudgment
	if err := json.Unmarshal(payload, &raw); err != nil {
		return rejecting(word, ReasonInvalidJSON)
	}

	j := Judgment{
		Word:             word,
		Rarity:           maxRarity,
		POS:              strings.TrimSpace(raw.POS),
		DefinitionEn:     strings.TrimSpace(raw.DefinitionEn),
		ExampleEn:        strings.TrimSpace(raw.ExampleEn),
		WordTarget:       strings.TrimSpace(raw.WordTarget),
		DefinitionTarget: strings.TrimSpace(raw.DefinitionTarget),
		ExampleTarget:    strings.TrimSpace(raw.ExampleTarget),
		Reasons:          append([]string{}, raw.Reasons...),
	}
	if raw.Accept != nil {
		j.Accept = bool(*raw.Accept)
	}
	if raw.ProperNoun != nil {
		j.ProperNoun = bool(*raw.ProperNoun)
	}
	if raw.Confidence != nil {
		j.Confidence = clamp(float64(*raw.Confidence), 0, 1)
	}
	if raw.Rarity != nil {
		j.Rarity = int(clamp(math.Round(float64(*raw.Rarity)), minRarity, maxRarity))
	}

	normalize(&j, rarityCut)
	return j
}

func normalize(j *Judgment, rarityCut int) {
	if j.ProperNoun {
		j.Accept = false
		j.Reasons = append(j.Reasons, ReasonProperNoun)
	}
	if j.Rarity >= rarityCut {
		j.Accept = false
		j.Reasons = append(j.Reasons, ReasonRarityCutoff)
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			v = strings.EqualFold(strings.TrimSpace(s), "yes")
		}
		*b = flexBool(v)
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

type flexStrings []string

func (s *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		if one != "" {
			*s = flexStrings{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
