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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/slovnyk/internal/embedding"
	"github.com/valpere/slovnyk/internal/finalize"
)

const defaultEmbeddingModel = "nomic-embed-text"

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <dictionary> <query>",
	Short: "Semantic search over a dictionary's English definitions",
	Long: `Embed the query and rank dictionary entries by cosine similarity of their
definition vectors. Entries built without --embedding-model are embedded on
the fly.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		model := cfg.EmbeddingModel
		if model == "" {
			model = defaultEmbeddingModel
		}

		a, err := finalize.Read(args[0])
		if err != nil {
			return err
		}
		emb := embedding.NewOllamaEmbedder(cfg.BaseURL(), model, cfg.RequestTimeout)

		hits, err := embedding.SearchEntries(context.Background(), emb, args[1], a.Entries, searchLimit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for i, h := range hits {
			fmt.Printf("%2d. %-18s %-18s %.3f  %s\n", i+1, h.Entry.Word, h.Entry.WordTarget, h.Score, h.Entry.DefinitionEn)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("host", "", "Ollama host")
	searchCmd.Flags().Int("port", 0, "Ollama port")
	searchCmd.Flags().String("embedding-model", "", "Ollama embedding model (default "+defaultEmbeddingModel+")")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Number of results")
}
