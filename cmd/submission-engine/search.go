// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/submission-engine/internal/scienceon"
	"github.com/pdiddy/submission-engine/internal/secrets"
	"github.com/pdiddy/submission-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Issue a one-off query against the ScienceON API",
	Long: `Search queries the ScienceON article API with a single keyword and prints
the matching documents. Useful for checking credentials and inspecting what
the retriever would see for a given term.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	rowCount, _ := cmd.Flags().GetInt("row-count")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if err := secrets.Require(loadedSecrets,
		secrets.ScienceONAuthKey,
		secrets.ScienceONClientID,
		secrets.ScienceONMACAddress,
	); err != nil {
		return err
	}

	client := scienceon.NewClient(scienceon.Credentials{
		AuthKey:    loadedSecrets[secrets.ScienceONAuthKey],
		ClientID:   loadedSecrets[secrets.ScienceONClientID],
		MACAddress: loadedSecrets[secrets.ScienceONMACAddress],
	}, types.DefaultConfig().Retrieval.HTTPConfig)

	keyword := strings.Join(args, " ")
	docs, err := client.SearchArticles(context.Background(), keyword, rowCount)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-12s  %-60s  %s\n", "Rank", "CN", "Title", "Abstract")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for i, d := range docs {
		title := d.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		abstract := d.Abstract
		if len(abstract) > 30 {
			abstract = abstract[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-12s  %-60s  %s\n", i+1, d.CN, title, abstract)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(docs))
	return nil
}

func init() {
	searchCmd.Flags().Int("row-count", 10, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
