package translator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/valpere/slovnyk/internal/oracle"
)

func TestOracleService_Translate(t *testing.T) {
	var gotPrompt string
	var gotTemp float64
	o := oracle.Func(func(_ context.Context, prompt string, opts oracle.SampleOptions) (string, error) {
		gotPrompt, gotTemp = prompt, opts.Temperature
		return "<think>literal please</think>\n\"The book lies on the table.\"", nil
	})
	svc := NewOracleService(o, "mistral")

	res, err := svc.Translate(context.Background(), Request{
		Text:       "Das Buch liegt auf dem Tisch.",
		SourceLang: "de",
		TargetLang: "en",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "The book lies on the table." {
		t.Errorf("unexpected translation %q", res.Text)
	}
	if res.Service != "oracle" || res.Metadata["model"] != "mistral" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(gotPrompt, "from German to English") {
		t.Errorf("prompt should name both languages: %q", gotPrompt)
	}
	if gotTemp != backTranslationTemperature {
		t.Errorf("temperature = %v", gotTemp)
	}
}

func TestOracleService_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewOracleService(oracle.Func(func(context.Context, string, oracle.SampleOptions) (string, error) {
		return "", boom
	}), "")

	res, err := svc.Translate(context.Background(), Request{Text: "x", TargetLang: "en"})
	if !errors.Is(err, boom) {
		t.Errorf("expected oracle error, got %v", err)
	}
	if res == nil || res.Error == "" {
		t.Error("expected error message in result")
	}

	empty := NewOracleService(oracle.Func(func(context.Context, string, oracle.SampleOptions) (string, error) {
		return "  ", nil
	}), "")
	if _, err := empty.Translate(context.Background(), Request{Text: "x", TargetLang: "en"}); err == nil {
		t.Error("expected error for empty translation")
	}

	if err := NewOracleService(nil, "").IsAvailable(context.Background()); err == nil {
		t.Error("expected unavailable without oracle")
	}
}

func TestGoogleService_InvalidLanguage(t *testing.T) {
	svc := NewGoogleService(Config{})

	res, err := svc.Translate(context.Background(), Request{Text: "Hallo", SourceLang: "de", TargetLang: "!!"})
	if err == nil {
		t.Fatal("expected error for invalid target language")
	}
	if res.Service != "google" || res.Error == "" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Latency <= 0 {
		t.Error("expected positive latency")
	}
}
