// Package finalize turns accumulated entries into the published dictionary
// artifact.
package finalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/config"
)

// ErrNoEntries is returned when there is nothing to publish.
var ErrNoEntries = errors.New("no entries collected")

// TimeFormat stamps artifact file names.
const TimeFormat = "20060102_150405"

type Metadata struct {
	Title          string    `json:"title" yaml:"title"`
	SourceLanguage string    `json:"source_language" yaml:"source_language"`
	TargetLanguage string    `json:"target_language" yaml:"target_language"`
	ModelUsed      string    `json:"model_used" yaml:"model_used"`
	Mode           string    `json:"mode" yaml:"mode"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	TotalEntries   int       `json:"total_entries" yaml:"total_entries"`
	RunID          string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// Artifact is the published dictionary document.
type Artifact struct {
	Metadata Metadata                   `json:"metadata" yaml:"metadata"`
	Entries  []internal.DictionaryEntry `json:"entries" yaml:"entries"`
}

type Options struct {
	TargetLang string
	Model      string
	Mode       string
	RunID      string
	CreatedAt  time.Time
}

// Dedup keeps one entry per word, sorted by word. The higher score wins;
// equal scores keep the earlier CollectedAt, then the earlier occurrence.
func Dedup(entries []internal.DictionaryEntry) []internal.DictionaryEntry {
	best := make(map[string]int, len(entries))
	var out []internal.DictionaryEntry
	for _, e := range entries {
		i, seen := best[e.Word]
		if !seen {
			best[e.Word] = len(out)
			out = append(out, e)
			continue
		}
		if better(e, out[i]) {
			out[i] = e
		}
	}
	slices.SortStableFunc(out, func(a, b internal.DictionaryEntry) int {
		return strings.Compare(a.Word, b.Word)
	})
	return out
}

func better(candidate, current internal.DictionaryEntry) bool {
	if candidate.Score != current.Score {
		return candidate.Score > current.Score
	}
	return candidate.CollectedAt.Before(current.CollectedAt)
}

// Finalize builds the artifact from every accepted entry of a run.
func Finalize(entries []internal.DictionaryEntry, opts Options) (*Artifact, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now()
	}
	final := Dedup(entries)
	return &Artifact{
		Metadata: Metadata{
			Title:          fmt.Sprintf("English-%s Dictionary (%s)", config.LanguageName(opts.TargetLang), opts.Mode),
			SourceLanguage: internal.SourceLang,
			TargetLanguage: opts.TargetLang,
			ModelUsed:      opts.Model,
			Mode:           opts.Mode,
			CreatedAt:      opts.CreatedAt,
			TotalEntries:   len(final),
			RunID:          opts.RunID,
		},
		Entries: final,
	}, nil
}

// Filename is dict_<lang>_<mode>_<YYYYmmdd_HHMMSS>.<format>.
func Filename(lang, mode, format string, at time.Time) string {
	return fmt.Sprintf("dict_%s_%s_%s.%s", lang, mode, at.Format(TimeFormat), format)
}

// Write stores a in dir and returns the file path.
func Write(a *Artifact, dir, format string) (string, error) {
	data, err := Encode(a, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, Filename(a.Metadata.TargetLanguage, a.Metadata.Mode, format, a.Metadata.CreatedAt))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

// Encode renders a as indented UTF-8 JSON or YAML.
func Encode(a *Artifact, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a); err != nil {
			return nil, fmt.Errorf("failed to encode artifact: %w", err)
		}
	case config.FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return nil, fmt.Errorf("failed to encode artifact: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return buf.Bytes(), nil
}

// Read loads an artifact written by Write, picking the decoder by extension.
func Read(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &a)
	default:
		err = json.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	return &a, nil
}
