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
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/slovnyk/internal/embedding"
	"github.com/valpere/slovnyk/internal/finalize"
	"github.com/valpere/slovnyk/internal/oracle"
	"github.com/valpere/slovnyk/internal/quality"
	"github.com/valpere/slovnyk/internal/translator"
)

var (
	qualityService string
	credentials    string
	projectID      string
	qualityLimit   int
	qualityJSON    bool
)

var qualityCmd = &cobra.Command{
	Use:   "quality <dictionary>",
	Short: "Score translated examples by back-translation",
	Long: `Back-translate each entry's target-language example into English and compare
it with the English example: final = 0.8 * embedding similarity + 0.2 * lexical similarity.

Back-translation services:
  - google   Google Cloud Translation (requires credentials)
  - oracle   the Ollama model used for building

Without --embedding-model the embedding component falls back to lexical similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := finalize.Read(args[0])
		if err != nil {
			return err
		}

		var svc translator.Service
		switch qualityService {
		case "google":
			svc = translator.NewGoogleService(translator.Config{
				Credentials: credentials,
				ProjectID:   projectID,
				Timeout:     cfg.RequestTimeout,
			})
		case "oracle":
			client := oracle.NewOllamaClient(oracle.OllamaConfig{
				BaseURL:     cfg.BaseURL(),
				Model:       cfg.Model,
				MaxAttempts: cfg.MaxAttempts,
				RetryDelay:  cfg.RetryDelay,
				Timeout:     cfg.RequestTimeout,
			}, logger)
			svc = translator.NewOracleService(client, cfg.Model)
		default:
			return fmt.Errorf("unknown service %q", qualityService)
		}

		var emb embedding.Embedder
		if cfg.EmbeddingModel != "" {
			emb = embedding.NewOllamaEmbedder(cfg.BaseURL(), cfg.EmbeddingModel, cfg.RequestTimeout)
		}

		entries := a.Entries
		if qualityLimit > 0 && len(entries) > qualityLimit {
			entries = entries[:qualityLimit]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		scores, err := quality.NewScorer(svc, emb, logger).ScoreAll(ctx, entries)
		if err != nil && len(scores) == 0 {
			return err
		}

		if qualityJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(scores)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WORD\tSEMANTIC\tLEXICAL\tFINAL\tBACK-TRANSLATION")
		for _, s := range scores {
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%s\n", s.Word, s.Semantic, s.Lexical, s.Final, s.BackTranslation)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("Scored %d/%d entries, mean final score %.4f\n", len(scores), len(entries), quality.Mean(scores))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)

	f := qualityCmd.Flags()
	f.StringVar(&qualityService, "service", "oracle", "Back-translation service: google or oracle")
	f.StringVarP(&credentials, "credentials", "c", "", "Path to Google Cloud credentials")
	f.StringVarP(&projectID, "project", "p", "", "Google Cloud Project ID")
	f.String("model", "", "Ollama model for the oracle service")
	f.String("host", "", "Ollama host")
	f.Int("port", 0, "Ollama port")
	f.String("embedding-model", "", "Ollama embedding model for semantic similarity")
	f.IntVar(&qualityLimit, "limit", 0, "Score at most N entries (0 for all)")
	f.BoolVar(&qualityJSON, "json", false, "Print scores as JSON")
}
