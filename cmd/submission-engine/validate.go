// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/submission-engine/internal/submission"
	"github.com/pdiddy/submission-engine/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate [submission.csv]",
	Short: "Check a submission CSV against the competition schema",
	Long: `Validate loads a finished submission file and checks that every article
slot column and the answer column are present, that every row has the full
width, and that no answer cell is empty.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	slots, _ := cmd.Flags().GetInt("slots")

	cfg := types.DefaultConfig().Submission
	if slots > 0 {
		cfg.ArticleSlots = slots
	}

	table, err := submission.LoadTable(args[0])
	if err != nil {
		return err
	}
	if err := submission.Validate(table, cfg); err != nil {
		return err
	}

	fmt.Printf("%s: %d rows, schema OK\n", args[0], len(table.Rows))
	return nil
}

func init() {
	validateCmd.Flags().Int("slots", 0, "expected article slot count (0 = default)")

	rootCmd.AddCommand(validateCmd)
}
