package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/slovnyk/internal/config"
)

func TestPrefixes_TwoLetter(t *testing.T) {
	got, err := Prefixes(config.ModeTwoLetter, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 26*26 {
		t.Fatalf("expected 676 prefixes, got %d", len(got))
	}
	if diff := cmp.Diff([]string{"sa", "se", "si", "so", "su", "sh"}, got[:6]); diff != "" {
		t.Errorf("common pairs should come first (-want +got):\n%s", diff)
	}

	seen := make(map[string]bool)
	for _, p := range got {
		if seen[p] {
			t.Errorf("duplicate prefix %q", p)
		}
		seen[p] = true
	}

	// Pairs starting with a vowel are never in the common block.
	firstRest := len(commonFirst) * len(commonSecond)
	if got[firstRest] != "aa" {
		t.Errorf("expected remaining pairs to start at aa, got %q", got[firstRest])
	}
}

func TestPrefixes_OneLetter(t *testing.T) {
	got, err := Prefixes(config.ModeOneLetter, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 26 || got[0] != "a" || got[25] != "z" {
		t.Errorf("unexpected one-letter prefixes %v", got)
	}
}

func TestPrefixes_Custom(t *testing.T) {
	got, err := Prefixes(config.ModeCustom, []string{" TA", "ab", "ta", ""})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"ta", "ab"}, got); diff != "" {
		t.Errorf("custom prefixes mismatch (-want +got):\n%s", diff)
	}

	if _, err := Prefixes(config.ModeCustom, []string{" "}); !errors.Is(err, config.ErrUnsupportedMode) {
		t.Errorf("expected ErrUnsupportedMode for empty custom list, got %v", err)
	}
}

func TestPrefixes_UnsupportedMode(t *testing.T) {
	if _, err := Prefixes("3letter", nil); !errors.Is(err, config.ErrUnsupportedMode) {
		t.Errorf("expected ErrUnsupportedMode, got %v", err)
	}
}
