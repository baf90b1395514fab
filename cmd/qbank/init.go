// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a project workspace",
	Long: `Init creates the project directory layout (materials, processed data,
output, config, templates) along with starter config files: a chapter map,
a topic map, a .env key template, and a .gitignore.

Running init in an existing workspace is safe: files already present are
left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		return workspace.Scaffold(root, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
