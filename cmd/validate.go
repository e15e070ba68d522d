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
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/slovnyk/internal/features"
)

var (
	recordSource string
	parserLog    string
	noReadings   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <records-or-dictionary>",
	Short: "Validate target-language feature records",
	Long: `Build per-language feature sets from a record list or a finished dictionary
and check them against the structural rules of their language.

Every violation is appended to the validation log; records missing optional
fields are noted in the parser log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		records, err := features.ReadRecords(args[0], recordSource)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		validationLog, closeValidation, err := features.OpenLog(cfg.ValidationLog)
		if err != nil {
			return err
		}
		defer closeValidation()

		missingLog, closeMissing, err := features.OpenLog(parserLog)
		if err != nil {
			return err
		}
		defer closeMissing()

		var reader features.ReadingSource
		if !noReadings {
			r, err := features.NewReader()
			if err != nil {
				logger.Warn("Japanese reading enrichment disabled", zap.Error(err))
			} else {
				reader = r
			}
		}
		builder := features.NewBuilder(missingLog, reader)

		var valid, invalid, skipped int
		for _, rec := range records {
			fs, err := builder.Build(rec)
			if err != nil {
				if errors.Is(err, features.ErrNoVariant) || errors.Is(err, features.ErrEmptyWord) {
					fmt.Fprintf(os.Stderr, "Skipping %q (%s): %v\n", rec.Word, rec.Lang, err)
					skipped++
					continue
				}
				return err
			}
			res := features.Validate(fs)
			if res.Valid() {
				valid++
				continue
			}
			invalid++
			features.LogResult(validationLog, res)
			for _, v := range res.Violations {
				fmt.Fprintf(os.Stderr, "  %s\n", v)
			}
		}

		fmt.Printf("Records: %d valid, %d invalid, %d skipped\n", valid, invalid, skipped)
		if invalid > 0 {
			fmt.Printf("Violations appended to %s\n", cfg.ValidationLog)
			return fmt.Errorf("%d of %d records failed validation", invalid, len(records))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("validation-log", "", "Validation failure log (JSON lines)")
	validateCmd.Flags().StringVar(&recordSource, "source", "llm", "Source attributed to dictionary entries")
	validateCmd.Flags().StringVar(&parserLog, "parser-log", "parser_log.jsonl", "Missing-field log (JSON lines)")
	validateCmd.Flags().BoolVar(&noReadings, "no-readings", false, "Do not derive Japanese readings")
}
