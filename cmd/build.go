/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/slovnyk/internal/checkpoint"
	"github.com/valpere/slovnyk/internal/config"
	"github.com/valpere/slovnyk/internal/consensus"
	"github.com/valpere/slovnyk/internal/embedding"
	"github.com/valpere/slovnyk/internal/finalize"
	"github.com/valpere/slovnyk/internal/generator"
	"github.com/valpere/slovnyk/internal/langcheck"
	"github.com/valpere/slovnyk/internal/oracle"
	"github.com/valpere/slovnyk/internal/pipeline"
	"github.com/valpere/slovnyk/internal/store"
)

var cleanStart bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a dictionary for one target language",
	Long: `Generate candidate English words prefix by prefix, validate each with several
LLM samples and keep the words that reach consensus.

Progress is checkpointed; interrupt with Ctrl+C and continue with --resume.

Modes:
  - 2letter   every two-letter prefix, common ones first (default)
  - 1letter   a..z
  - custom    the prefixes given with --prefixes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := oracle.NewOllamaClient(oracle.OllamaConfig{
			BaseURL:     cfg.BaseURL(),
			Model:       cfg.Model,
			MaxAttempts: cfg.MaxAttempts,
			RetryDelay:  cfg.RetryDelay,
			Timeout:     cfg.RequestTimeout,
		}, logger)
		if err := client.IsAvailable(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		gen := generator.New(client, generator.Config{
			MinLen:        cfg.MinLen,
			MaxLen:        cfg.MaxLen,
			OvergenFactor: cfg.OvergenFactor,
		}, logger)
		validator := consensus.New(client, consensus.Config{
			TargetLang:   cfg.TargetLang,
			Temperatures: cfg.Temperatures,
			RarityCut:    cfg.RarityCut,
			Concurrency:  cfg.SampleConcurrency,
		}, logger)

		filterCfg := pipeline.FilterConfig{
			TargetLang: cfg.TargetLang,
			ScoreCut:   cfg.ScoreCut,
			RarityCut:  cfg.RarityCut,
			Rare:       generator.DefaultRareSet,
		}
		if cfg.VerifyLang {
			filterCfg.Verifier = langcheck.New()
		}
		if cfg.EmbeddingModel != "" {
			filterCfg.Embedder = embedding.NewOllamaEmbedder(cfg.BaseURL(), cfg.EmbeddingModel, cfg.RequestTimeout)
		}
		filter := pipeline.NewFilter(gen, validator, filterCfg, logger)

		cp := checkpoint.New(cfg.CheckpointPath, logger)
		if cleanStart {
			if err := cp.Remove(); err != nil {
				return fmt.Errorf("failed to remove checkpoint: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Removed checkpoint %s\n", cfg.CheckpointPath)
		}

		runner := pipeline.NewRunner(filter, cp, pipeline.Options{
			Model:      cfg.Model,
			TargetLang: cfg.TargetLang,
			Mode:       cfg.Mode,
			Prefixes:   cfg.Prefixes,
			Batch:      cfg.Batch,
			SaveEvery:  cfg.SaveEvery,
			Workers:    cfg.Workers,
			Resume:     cfg.Resume,
			UseVectors: filterCfg.Embedder != nil,
			OutputDir:  cfg.OutputDir,
			Format:     cfg.OutputFormat,
		}, logger)
		runner.SetProgress(os.Stderr)

		fmt.Fprintf(os.Stderr, "Building English-%s dictionary with %s (%s mode)\n",
			config.LanguageName(cfg.TargetLang), cfg.Model, cfg.Mode)

		res, err := runner.Run(ctx)
		if errors.Is(err, pipeline.ErrInterrupted) {
			fmt.Fprintf(os.Stderr, "Interrupted. Resume with: slovnyk build --resume -t %s\n", cfg.TargetLang)
			return nil
		}
		if err != nil {
			return err
		}

		m := res.State.Metrics
		fmt.Printf("Prefixes processed: %d\n", res.Processed)
		fmt.Printf("Candidates: %s, validated: %s, accepted: %s, rejected: %s\n",
			humanize.Comma(int64(m.CandidatesGenerated)), humanize.Comma(int64(m.Attempts)),
			humanize.Comma(int64(m.Accepted)), humanize.Comma(int64(m.Rejected)))
		if res.ArtifactPath == "" {
			return nil
		}
		fmt.Printf("Dictionary written to %s\n", res.ArtifactPath)

		if cfg.DBPath != "" {
			if err := importArtifact(context.Background(), cfg.DBPath, res.ArtifactPath); err != nil {
				logger.Warn("lexicon import failed", zap.String("db", cfg.DBPath), zap.Error(err))
			}
		}
		return nil
	},
}

func importArtifact(ctx context.Context, dbPath, artifactPath string) error {
	a, err := finalize.Read(artifactPath)
	if err != nil {
		return err
	}
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	res, err := db.ImportArtifact(ctx, a, artifactPath)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s into %s (%d written, %d kept)\n", artifactPath, dbPath, res.Written, res.Skipped)
	return nil
}

func init() {
	rootCmd.AddCommand(buildCmd)

	f := buildCmd.Flags()
	f.String("model", "", "Ollama model name")
	f.String("host", "", "Ollama host")
	f.Int("port", 0, "Ollama port")
	f.StringP("target-lang", "t", "", "Target language code (ko, de, ja, hr, es, fr, zh, ru)")
	f.StringP("mode", "m", "", "Prefix mode: 2letter, 1letter or custom")
	f.StringSlice("prefixes", nil, "Prefixes for custom mode (comma-separated)")
	f.IntP("batch", "b", 0, "Accepted entries per prefix")
	f.Int("min-len", 0, "Minimum candidate length")
	f.Int("max-len", 0, "Maximum candidate length")
	f.StringSlice("temperatures", nil, "Sampling temperatures, one consensus sample each (comma-separated)")
	f.Float64("score-cut", 0, "Minimum aggregated score to accept")
	f.Int("rarity-cut", 0, "Reject entries with rarity at or above this value")
	f.Float64("overgen", 0, "Candidate overgeneration factor")
	f.String("checkpoint", "", "Checkpoint file (default dict_progress_<lang>.json in the output dir)")
	f.Bool("resume", false, "Resume from the checkpoint")
	f.Int("save-every", 0, "Save the checkpoint every N prefixes")
	f.StringP("output-dir", "o", "", "Directory for the dictionary and checkpoint")
	f.String("format", "", "Dictionary format: json or yaml")
	f.Int("max-attempts", 0, "Oracle attempts per request")
	f.Duration("retry-delay", 0, "Delay between oracle attempts")
	f.Duration("request-timeout", 0, "Oracle request timeout")
	f.Int("workers", 0, "Prefixes processed concurrently")
	f.Int("sample-concurrency", 0, "Consensus samples in flight per word")
	f.String("embedding-model", "", "Ollama embedding model; attaches vectors to entries when set")
	f.Bool("verify-lang", false, "Reject entries whose target text is in another language")
	f.String("db", "", "Import the finished dictionary into this lexicon database")
	f.BoolVar(&cleanStart, "clean", false, "Delete the checkpoint before starting")
}
