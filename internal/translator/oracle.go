package translator

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/slovnyk/internal/config"
	"github.com/valpere/slovnyk/internal/oracle"
	"github.com/valpere/slovnyk/internal/postprocess"
)

// backTranslationTemperature keeps oracle translations close to literal.
const backTranslationTemperature = 0.2

// OracleService translates with the same text-generation service that
// builds the dictionary. Its answers are less reliable than a dedicated
// translation API.
type OracleService struct {
	oracle oracle.Oracle
	model  string
}

func NewOracleService(o oracle.Oracle, model string) *OracleService {
	return &OracleService{oracle: o, model: model}
}

func (s *OracleService) Name() string {
	return "oracle"
}

func (s *OracleService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{Service: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	prompt := fmt.Sprintf(`Translate the following text from %s to %s.
Only respond with the translation, nothing else.

Text: "%s"

Translation:`, languageName(req.SourceLang), languageName(req.TargetLang), req.Text)

	resp, err := s.oracle.Generate(ctx, prompt, oracle.DefaultSampleOptions(backTranslationTemperature))
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}

	result.Text = postprocess.Clean(resp)
	if result.Text == "" {
		result.Error = "empty translation"
		return result, fmt.Errorf("empty translation")
	}
	result.Confidence = 0.7
	if s.model != "" {
		result.Metadata = map[string]string{"model": s.model}
	}
	return result, nil
}

func (s *OracleService) IsAvailable(context.Context) error {
	if s.oracle == nil {
		return fmt.Errorf("no oracle configured")
	}
	return nil
}

func languageName(code string) string {
	if code == "" || code == "auto" {
		return "the detected language"
	}
	return config.LanguageName(code)
}
