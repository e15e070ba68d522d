// Package config loads and validates the dictionary builder configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Generation modes.
const (
	ModeTwoLetter = "2letter"
	ModeOneLetter = "1letter"
	ModeCustom    = "custom"
)

// Output formats for the final artifact.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	ErrUnsupportedMode     = errors.New("unsupported generation mode")
	ErrUnsupportedLanguage = errors.New("unsupported target language")
)

// SupportedLanguages lists the target languages the builder has prompts and
// feature schemas for.
var SupportedLanguages = []string{"ko", "de", "ja", "hr", "es", "fr", "zh", "ru"}

// Config holds every recognised option of a dictionary build.
type Config struct {
	Model string `mapstructure:"model" json:"model"`
	Host  string `mapstructure:"host" json:"host"`
	Port  int    `mapstructure:"port" json:"port"`

	TargetLang string   `mapstructure:"target_lang" json:"target_lang"`
	Mode       string   `mapstructure:"mode" json:"mode"`
	Prefixes   []string `mapstructure:"prefixes" json:"prefixes,omitempty"`
	Batch      int      `mapstructure:"batch" json:"batch"`

	MinLen        int       `mapstructure:"min_len" json:"min_len"`
	MaxLen        int       `mapstructure:"max_len" json:"max_len"`
	Temperatures  []float64 `mapstructure:"temperatures" json:"temperatures"`
	ScoreCut      float64   `mapstructure:"score_cut" json:"score_cut"`
	RarityCut     int       `mapstructure:"rarity_cut" json:"rarity_cut"`
	OvergenFactor float64   `mapstructure:"overgen" json:"overgen"`

	CheckpointPath string `mapstructure:"checkpoint" json:"checkpoint"`
	Resume         bool   `mapstructure:"resume" json:"resume"`
	SaveEvery      int    `mapstructure:"save_every" json:"save_every"`

	OutputDir    string `mapstructure:"output_dir" json:"output_dir"`
	OutputFormat string `mapstructure:"format" json:"format"`

	MaxAttempts    int           `mapstructure:"max_attempts" json:"max_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay" json:"retry_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`

	Workers           int `mapstructure:"workers" json:"workers"`
	SampleConcurrency int `mapstructure:"sample_concurrency" json:"sample_concurrency"`

	EmbeddingModel string `mapstructure:"embedding_model" json:"embedding_model,omitempty"`
	VerifyLang     bool   `mapstructure:"verify_lang" json:"verify_lang"`

	DBPath        string `mapstructure:"db" json:"db,omitempty"`
	ValidationLog string `mapstructure:"validation_log" json:"validation_log"`
}

// SetDefaults registers the default value of every option on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model", "gpt-oss:20b")
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 11434)
	v.SetDefault("target_lang", "ko")
	v.SetDefault("mode", ModeTwoLetter)
	v.SetDefault("batch", 20)
	v.SetDefault("min_len", 3)
	v.SetDefault("max_len", 20)
	v.SetDefault("temperatures", []float64{0.2, 0.4, 0.8})
	v.SetDefault("score_cut", 0.6)
	v.SetDefault("rarity_cut", 4)
	v.SetDefault("overgen", 1.8)
	v.SetDefault("checkpoint", "")
	v.SetDefault("resume", false)
	v.SetDefault("save_every", 10)
	v.SetDefault("output_dir", ".")
	v.SetDefault("format", FormatJSON)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("retry_delay", 5*time.Second)
	v.SetDefault("request_timeout", 45*time.Second)
	v.SetDefault("workers", 1)
	v.SetDefault("sample_concurrency", 1)
	v.SetDefault("embedding_model", "")
	v.SetDefault("verify_lang", false)
	v.SetDefault("db", "")
	v.SetDefault("validation_log", "validation_log.jsonl")
}

// New returns a viper instance with defaults and SLOVNYK_* environment
// overrides. When file is non-empty it is read as the config file.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("slovnyk")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config and fills derived values.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.TargetLang = strings.ToLower(strings.TrimSpace(cfg.TargetLang))
	if cfg.CheckpointPath == "" {
		cfg.CheckpointPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("dict_progress_%s.json", cfg.TargetLang))
	}
	if cfg.SaveEvery < 1 {
		cfg.SaveEvery = 1
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot produce a run. It is called
// before any oracle traffic.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeTwoLetter, ModeOneLetter:
	case ModeCustom:
		if len(c.Prefixes) == 0 {
			return fmt.Errorf("%w: %q requires at least one prefix", ErrUnsupportedMode, c.Mode)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, c.Mode)
	}

	if !IsSupportedLanguage(c.TargetLang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, c.TargetLang)
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.Batch < 1 {
		return fmt.Errorf("batch must be at least 1, got %d", c.Batch)
	}
	if c.MinLen < 1 || c.MinLen > c.MaxLen {
		return fmt.Errorf("invalid word length range %d..%d", c.MinLen, c.MaxLen)
	}
	if len(c.Temperatures) == 0 {
		return fmt.Errorf("at least one sampling temperature is required")
	}
	for _, t := range c.Temperatures {
		if t < 0 || t > 2 {
			return fmt.Errorf("temperature %v out of range [0, 2]", t)
		}
	}
	if c.ScoreCut < 0 || c.ScoreCut > 1 {
		return fmt.Errorf("score cutoff %v out of range [0, 1]", c.ScoreCut)
	}
	if c.RarityCut < 1 || c.RarityCut > 6 {
		return fmt.Errorf("rarity cutoff %d out of range [1, 6]", c.RarityCut)
	}
	if c.OvergenFactor < 1.0 {
		return fmt.Errorf("overgen factor must be >= 1.0, got %v", c.OvergenFactor)
	}
	if c.OutputFormat != FormatJSON && c.OutputFormat != FormatYAML {
		return fmt.Errorf("unsupported output format %q", c.OutputFormat)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// BaseURL is the oracle endpoint root derived from host and port.
func (c *Config) BaseURL() string {
	host := c.Host
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return fmt.Sprintf("%s:%d", strings.TrimRight(host, "/"), c.Port)
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

// IsSupportedLanguage reports whether code is a known target language.
func IsSupportedLanguage(code string) bool {
	if _, err := language.Parse(code); err != nil {
		return false
	}
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// LanguageName returns the English name of a language code, e.g. "Korean".
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
