package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrShutdown is returned when a shutdown was requested before an attempt.
var ErrShutdown = errors.New("oracle: shutdown requested")

// OllamaConfig configures an OllamaClient.
type OllamaConfig struct {
	BaseURL string
	Model   string
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// OllamaClient calls the Ollama /api/generate endpoint.
type OllamaClient struct {
	cfg    OllamaConfig
	client *http.Client
	logger *zap.Logger
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaClient creates a client with defaults for any zero field.
func NewOllamaClient(cfg OllamaConfig, logger *zap.Logger) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.cfg.Model
}

// Generate sends prompt and returns the completion text. Transient failures
// are retried with a fixed delay up to MaxAttempts. A cancelled ctx stops
// further attempts but never aborts a request already on the wire.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts SampleOptions) (string, error) {
	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxAttempts-1), retry.NewConstant(max(c.cfg.RetryDelay, time.Millisecond)))

	var out string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if ctx.Err() != nil {
			return ErrShutdown
		}
		text, err := c.generateOnce(context.WithoutCancel(ctx), prompt, opts)
		if err != nil {
			c.logger.Warn("oracle request failed",
				zap.String("model", c.cfg.Model),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.cfg.MaxAttempts),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		out = text
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrShutdown
		}
		return "", fmt.Errorf("oracle: giving up after %d attempts: %w", attempt, err)
	}
	return out, nil
}

func (c *OllamaClient) generateOnce(ctx context.Context, prompt string, opts SampleOptions) (string, error) {
	reqBody := ollamaRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Format: opts.Format,
		Options: ollamaOptions{
			Temperature:   opts.Temperature,
			TopP:          opts.TopP,
			RepeatPenalty: opts.RepeatPenalty,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/generate", c.cfg.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return ollamaResp.Response, nil
}

// IsAvailable checks that the Ollama server answers on /api/tags.
func (c *OllamaClient) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/tags", c.cfg.BaseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama not available: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}
