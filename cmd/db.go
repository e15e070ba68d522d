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
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/slovnyk/internal/store"
)

const defaultDBPath = "slovnyk.db"

var (
	dbLang      string
	dbListLimit int
	dbSuggest   int
	dbThreshold float64
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the lexicon database",
	Long:  `Import finished dictionaries into the SQLite lexicon and query it.`,
}

func openDB(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	path := cfg.DBPath
	if path == "" {
		path = defaultDBPath
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

var dbImportCmd = &cobra.Command{
	Use:   "import <dictionary>...",
	Short: "Import dictionaries, keeping the higher-scored entry per word",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := cfg.DBPath
		if path == "" {
			path = defaultDBPath
		}
		for _, a := range args {
			if err := importArtifact(context.Background(), path, a); err != nil {
				return fmt.Errorf("failed to import %s: %w", a, err)
			}
		}
		return nil
	},
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lexicon entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.List(context.Background(), dbLang, dbListLimit)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No entries in the lexicon.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LANG\tWORD\tPOS\tTRANSLATION\tRARITY\tSCORE\tUPDATED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.3f\t%s\n",
				e.TargetLang, e.Word, e.POS, e.WordTarget, e.Rarity, e.Score, humanize.Time(e.UpdatedAt))
		}
		return w.Flush()
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lexicon statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:  %s\n", humanize.Comma(int64(stats.TotalEntries)))
		fmt.Printf("Imported runs:  %s\n", humanize.Comma(int64(stats.Runs)))
		if len(stats.Languages) == 0 {
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LANG\tENTRIES\tAVG SCORE")
		for _, l := range stats.Languages {
			fmt.Fprintf(w, "%s\t%s\t%.3f\n", l.Lang, humanize.Comma(int64(l.Entries)), l.AvgScore)
		}
		return w.Flush()
	},
}

var dbLookupCmd = &cobra.Command{
	Use:   "lookup <word>",
	Short: "Look up an English word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbLang == "" {
			return fmt.Errorf("--lang is required")
		}
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		e, found, err := db.Lookup(ctx, args[0], dbLang)
		if err != nil {
			return err
		}
		if found {
			printEntry(e)
			return nil
		}

		matches, err := db.FuzzyLookup(ctx, args[0], dbLang, dbThreshold, dbSuggest)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Printf("%q not found.\n", args[0])
			return nil
		}
		fmt.Printf("%q not found. Similar words:\n", args[0])
		for _, m := range matches {
			fmt.Printf("  %-20s %s (%.0f%%)\n", m.Entry.Word, m.Entry.WordTarget, m.Similarity*100)
		}
		return nil
	},
}

func printEntry(e *store.Entry) {
	fmt.Printf("%s (%s) -> %s [%s]\n", e.Word, e.POS, e.WordTarget, e.TargetLang)
	if e.DefinitionEn != "" {
		fmt.Printf("  en: %s\n", e.DefinitionEn)
	}
	if e.DefinitionTarget != "" {
		fmt.Printf("  %s: %s\n", e.TargetLang, e.DefinitionTarget)
	}
	if e.ExampleTarget != "" {
		fmt.Printf("  e.g. %s\n", e.ExampleTarget)
	}
	fmt.Printf("  rarity %d, confidence %.3f, score %.3f, collected %s\n",
		e.Rarity, e.Confidence, e.Score, humanize.Time(e.CollectedAt))
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbImportCmd, dbListCmd, dbStatsCmd, dbLookupCmd)

	dbCmd.PersistentFlags().String("db", "", "Lexicon database path (default "+defaultDBPath+")")
	dbListCmd.Flags().StringVarP(&dbLang, "lang", "l", "", "Only entries of this target language")
	dbListCmd.Flags().IntVar(&dbListLimit, "limit", 50, "Maximum entries to list (0 for all)")
	dbLookupCmd.Flags().StringVarP(&dbLang, "lang", "l", "", "Target language (required)")
	dbLookupCmd.Flags().Float64Var(&dbThreshold, "threshold", 0.75, "Similarity threshold for fuzzy suggestions")
	dbLookupCmd.Flags().IntVar(&dbSuggest, "limit", 5, "Maximum fuzzy suggestions")
}
