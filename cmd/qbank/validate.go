// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/tui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Review pending questions interactively",
	Long: `Validate opens a terminal reviewer that walks through pending questions
one at a time alongside their source. Press a to approve, r to reject,
s to skip for this session, and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		summary, err := tui.Run(ctx, store)
		if err != nil {
			return err
		}
		fmt.Printf("session: %d approved, %d rejected, %d skipped\n",
			summary.Approved, summary.Rejected, summary.Skipped)
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve every pending question",
	Long: `Approve marks all pending questions as approved in one pass. Useful
after a spot check when the batch looks uniformly good.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.ApproveAllPending(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("approved %d questions\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(approveCmd)
}
