package textsim

import (
	"math"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"table", "", 5},
		{"", "tale", 4},
		{"table", "table", 0},
		{"table", "tale", 1},
		{"kitten", "sitting", 3},
		{"책상", "책장", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("table", "table"); got != 1.0 {
		t.Errorf("identical strings: got %v", got)
	}
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("empty strings: got %v", got)
	}
	if got := Similarity("table", "tale"); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Similarity(table, tale) = %v, want 0.8", got)
	}
}

func TestLengthBound(t *testing.T) {
	if got := LengthBound(10, 5); got != 0.5 {
		t.Errorf("LengthBound(10, 5) = %v, want 0.5", got)
	}
	if got := LengthBound(0, 0); got != 1.0 {
		t.Errorf("LengthBound(0, 0) = %v, want 1", got)
	}
}

func TestNormalize(t *testing.T) {
	// "é" as e + combining acute accent must compose to a single rune.
	decomposed := "  cafe\u0301 "
	if got := Normalize(decomposed); got != "caf\u00e9" {
		t.Errorf("Normalize = %q, want %q", got, "caf\u00e9")
	}
}
