// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the question bank with full-text search",
	Long: `Search runs an FTS5 full-text query over generated question text and
explanations, ranked by relevance. Filter by validation status with
--status, and use --json for machine-readable output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := store.Search(context.Background(), bank.SearchOptions{
		Query:      strings.Join(args, " "),
		Status:     types.ValidationStatus(status),
		MaxResults: limit,
	})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []bank.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-60s  %-20s  %-10s\n", "ID", "Question", "Topic", "Status")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, r := range results {
		question := strings.Join(strings.Fields(r.QuestionText), " ")
		if len(question) > 60 {
			question = question[:57] + "..."
		}
		topic := r.Topic
		if len(topic) > 20 {
			topic = topic[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-60s  %-20s  %-10s\n",
			r.ID, question, topic, r.ValidationStatus)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func init() {
	searchCmd.Flags().String("status", "", "filter by validation status (pending, approved, rejected, rejected_duplicate)")
	searchCmd.Flags().Int("limit", 0, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}
