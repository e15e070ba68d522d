// Package translator back-translates dictionary text into English so its
// meaning can be compared with the source example.
package translator

import (
	"context"
	"time"
)

// Config holds the credentials of hosted translation APIs.
type Config struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Request asks for Text to be translated from SourceLang ("" or "auto" to
// detect) into TargetLang.
type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// Result is one service's translation. Error mirrors the returned error so
// a Result can be reported on its own.
type Result struct {
	Service    string            `json:"service"`
	Text       string            `json:"text"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Latency    time.Duration     `json:"latency"`
	Error      string            `json:"error,omitempty"`
}

type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
	IsAvailable(ctx context.Context) error
}
