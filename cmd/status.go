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
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/slovnyk/internal/checkpoint"
	"github.com/valpere/slovnyk/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress of a dictionary build",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cp := checkpoint.New(cfg.CheckpointPath, logger)
		source := cp.Path()
		state, err := cp.Load()
		if errors.Is(err, checkpoint.ErrNoCheckpoint) {
			state, source, err = cp.LoadLatestArchive()
		}
		if errors.Is(err, checkpoint.ErrNoCheckpoint) {
			fmt.Printf("No checkpoint for %s at %s\n", cfg.TargetLang, cfg.CheckpointPath)
			return nil
		}
		if err != nil {
			return err
		}

		total := 0
		if prefixes, err := pipeline.Prefixes(state.Mode, cfg.Prefixes); err == nil {
			total = len(prefixes)
		}

		fmt.Printf("Checkpoint:  %s\n", source)
		fmt.Printf("Run:         %s\n", state.RunID)
		fmt.Printf("Language:    %s (%s mode, batch %d)\n", state.TargetLanguage, state.Mode, state.Batch)
		fmt.Printf("Model:       %s\n", state.ModelUsed)
		fmt.Printf("Saved:       %s\n", humanize.Time(state.Timestamp))
		if total > 0 {
			fmt.Printf("Prefixes:    %d/%d done, %d failed\n", len(state.CompletedPrefixes), total, len(state.FailedPrefixes))
		} else {
			fmt.Printf("Prefixes:    %d done, %d failed\n", len(state.CompletedPrefixes), len(state.FailedPrefixes))
		}
		fmt.Printf("Entries:     %s\n", humanize.Comma(int64(len(state.Words))))
		m := state.Metrics
		fmt.Printf("Candidates:  %s generated, %s validated, %s accepted, %s rejected\n",
			humanize.Comma(int64(m.CandidatesGenerated)), humanize.Comma(int64(m.Attempts)),
			humanize.Comma(int64(m.Accepted)), humanize.Comma(int64(m.Rejected)))
		if m.Attempts > 0 {
			fmt.Printf("Acceptance:  %.1f%%\n", float64(m.Accepted)*100/float64(m.Attempts))
		}
		fmt.Printf("Runtime:     %s\n", time.Duration(state.RuntimeSec)*time.Second)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("target-lang", "t", "", "Target language code")
	statusCmd.Flags().StringP("output-dir", "o", "", "Directory holding the checkpoint")
	statusCmd.Flags().String("checkpoint", "", "Checkpoint file (default dict_progress_<lang>.json in the output dir)")
	statusCmd.Flags().StringSlice("prefixes", nil, "Prefixes of a custom-mode run")
}
