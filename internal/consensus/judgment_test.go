package consensus

import (
	"slices"
	"testing"
)

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		wantAccept bool
		wantConf   float64
		wantRarity int
		wantReason string
	}{
		{
			name:       "plain",
			completion: `{"accept": true, "confidence": 0.8, "rarity": 2}`,
			wantAccept: true, wantConf: 0.8, wantRarity: 2,
		},
		{
			name:       "wrapped in prose and fences",
			completion: "Sure!\n```json\n{\"accept\": true, \"confidence\": 0.7, \"rarity\": 1}\n```\nHope it helps.",
			wantAccept: true, wantConf: 0.7, wantRarity: 1,
		},
		{
			name:       "numbers as strings",
			completion: `{"accept": "true", "confidence": "0.65", "rarity": "3"}`,
			wantAccept: true, wantConf: 0.65, wantRarity: 3,
		},
		{
			name:       "missing fields default to rejection",
			completion: `{"pos": "noun"}`,
			wantAccept: false, wantConf: 0, wantRarity: 5, wantReason: ReasonRarityCutoff,
		},
		{
			name:       "proper noun forced reject",
			completion: `{"accept": true, "confidence": 0.9, "rarity": 1, "proper_noun": true}`,
			wantAccept: false, wantConf: 0.9, wantRarity: 1, wantReason: ReasonProperNoun,
		},
		{
			name:       "rarity at cutoff forced reject",
			completion: `{"accept": true, "confidence": 0.9, "rarity": 4}`,
			wantAccept: false, wantConf: 0.9, wantRarity: 4, wantReason: ReasonRarityCutoff,
		},
		{
			name:       "out of range values clamped",
			completion: `{"accept": true, "confidence": 1.7, "rarity": 0}`,
			wantAccept: true, wantConf: 1, wantRarity: 1,
		},
		{
			name:       "no json",
			completion: "table is a word",
			wantAccept: false, wantConf: 0, wantRarity: 5, wantReason: ReasonInvalidJSON,
		},
		{
			name:       "wrong types",
			completion: `{"accept": [1], "confidence": 0.5}`,
			wantAccept: false, wantConf: 0, wantRarity: 5, wantReason: ReasonInvalidJSON,
		},
		{
			name:       "reasoning block with braces",
			completion: "<think>{not json}</think>{\"accept\": true, \"confidence\": 0.6, \"rarity\": 2}",
			wantAccept: true, wantConf: 0.6, wantRarity: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := ParseJudgment("table", tt.completion, 4)
			if j.Accept != tt.wantAccept {
				t.Errorf("accept = %v, want %v", j.Accept, tt.wantAccept)
			}
			if j.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", j.Confidence, tt.wantConf)
			}
			if j.Rarity != tt.wantRarity {
				t.Errorf("rarity = %d, want %d", j.Rarity, tt.wantRarity)
			}
			if tt.wantReason != "" && !slices.Contains(j.Reasons, tt.wantReason) {
				t.Errorf("reasons %v missing %q", j.Reasons, tt.wantReason)
			}
			if j.Word != "table" {
				t.Errorf("word = %q", j.Word)
			}
		})
	}
}

func TestParseJudgment_SingleReasonString(t *testing.T) {
	j := ParseJudgment("xyz", `{"accept": false, "confidence": 0.2, "rarity": 5, "reasons": "misspelling"}`, 4)
	if !slices.Equal(j.Reasons, []string{"misspelling", ReasonRarityCutoff}) {
		t.Errorf("unexpected reasons %v", j.Reasons)
	}
}
