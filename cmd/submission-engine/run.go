// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/submission-engine/internal/docstore"
	"github.com/pdiddy/submission-engine/internal/generate"
	"github.com/pdiddy/submission-engine/internal/pipeline"
	"github.com/pdiddy/submission-engine/internal/scienceon"
	"github.com/pdiddy/submission-engine/internal/secrets"
	"github.com/pdiddy/submission-engine/internal/submission"
	"github.com/pdiddy/submission-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Answer every question in a CSV and write the submission file",
	Long: `Run reads the question CSV, retrieves and reranks candidate documents for
each question, generates answers, and writes the submission CSV plus a YAML
run report. Questions that hit API trouble still get fallback answers, so
the submission file is always complete.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	reportPath, _ := cmd.Flags().GetString("report")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := pipelineConfig(cmd)

	if err := secrets.Require(loadedSecrets,
		secrets.ScienceONAuthKey,
		secrets.ScienceONClientID,
		secrets.ScienceONMACAddress,
		secrets.GeminiAPIKey,
	); err != nil {
		return err
	}

	table, err := submission.LoadTable(input)
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(table.Rows) {
		table.Rows = table.Rows[:limit]
	}
	questions, err := submission.Questions(table, cfg.Submission)
	if err != nil {
		return err
	}

	searcher := scienceon.NewClient(scienceon.Credentials{
		AuthKey:    loadedSecrets[secrets.ScienceONAuthKey],
		ClientID:   loadedSecrets[secrets.ScienceONClientID],
		MACAddress: loadedSecrets[secrets.ScienceONMACAddress],
	}, cfg.Retrieval.HTTPConfig)

	backend := &generate.GeminiBackend{
		APIKey: loadedSecrets[secrets.GeminiAPIKey],
		Model:  cfg.Answer.Model,
	}

	store, err := docstore.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(searcher, backend, store, cfg)
	result, err := p.Run(context.Background(), questions, os.Stdout)
	if err != nil {
		return err
	}

	out, err := submission.Build(table, result.Answers, cfg.Submission)
	if err != nil {
		return err
	}
	if err := submission.Validate(out, cfg.Submission); err != nil {
		return err
	}
	if err := submission.WriteTable(output, out); err != nil {
		return err
	}
	if err := submission.WriteRunReport(reportPath, result.Report); err != nil {
		return err
	}

	fmt.Printf("Wrote %s: %d questions answered, %d degraded (report: %s)\n",
		output, result.Summary.Total(), result.Summary.Degraded, reportPath)
	return nil
}

// pipelineConfig builds the run configuration from defaults, the config
// file, and command flags, in increasing precedence.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.DefaultConfig()

	if viper.IsSet("retrieval.target_docs") {
		cfg.Retrieval.TargetDocs = viper.GetInt("retrieval.target_docs")
	}
	if viper.IsSet("rerank.top_k") {
		cfg.Rerank.TopK = viper.GetInt("rerank.top_k")
	}
	if viper.IsSet("answer.model") {
		cfg.Answer.Model = viper.GetString("answer.model")
	}
	if viper.IsSet("store.path") {
		cfg.Store.Path = viper.GetString("store.path")
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Answer.Model = model
	}
	if target, _ := cmd.Flags().GetInt("target-docs"); target > 0 {
		cfg.Retrieval.TargetDocs = target
	}
	if topK, _ := cmd.Flags().GetInt("top-k"); topK > 0 {
		cfg.Rerank.TopK = topK
	}
	if storePath, _ := cmd.Flags().GetString("store"); storePath != "" {
		cfg.Store.Path = storePath
	}
	return cfg
}

func init() {
	runCmd.Flags().String("input", "test.csv", "question CSV (id and Question columns)")
	runCmd.Flags().String("output", "submission.csv", "submission CSV to write")
	runCmd.Flags().String("report", "run_report.yaml", "YAML run report to write")
	runCmd.Flags().String("store", "", "SQLite session store path (default: in-memory)")
	runCmd.Flags().String("model", "", "answer model identifier")
	runCmd.Flags().Int("target-docs", 0, "documents to retrieve per question (0 = default)")
	runCmd.Flags().Int("top-k", 0, "article slots to fill per question (0 = default)")
	runCmd.Flags().Int("limit", 0, "process only the first N questions (0 = all)")

	rootCmd.AddCommand(runCmd)
}
