// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print question bank statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Printf("source questions:    %d\n", stats.TotalSource)
		fmt.Printf("generated questions: %d\n", stats.TotalGenerated)
		fmt.Printf("pending validation:  %d\n", stats.Pending)
		fmt.Printf("approved:            %d\n", stats.Approved)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the question bank tables",
	Long: `Reset wipes the question bank and recreates an empty schema. All stored
questions, embeddings, and validation decisions are lost. It asks for
confirmation unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Print("This deletes every stored question. Type 'reset' to continue: ")
			var answer string
			fmt.Scanln(&answer)
			if answer != "reset" {
				fmt.Println("aborted")
				return nil
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Reset(context.Background()); err != nil {
			return err
		}
		fmt.Println("question bank reset")
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "output statistics as JSON")
	resetCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
}
