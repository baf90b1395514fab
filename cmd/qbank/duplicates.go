// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/dedupe"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Flag near-duplicate generated questions",
	Long: `Duplicates embeds every generated question, compares all pairs by
cosine similarity, and marks the newer question of each close pair as a
rejected duplicate. Embeddings are cached in the bank, so reruns only
embed questions added since the last pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		client, err := newGeminiClient()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		_, err = dedupe.Flag(ctx, client, store, cfg.Dedupe, os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}
