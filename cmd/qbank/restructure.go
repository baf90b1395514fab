// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/workspace"
)

var restructureCmd = &cobra.Command{
	Use:   "restructure [dir]",
	Short: "Migrate a topic-map workspace to chapter-based processing",
	Long: `Restructure archives the old topic map as topic_map.csv.bak and resets
the chapter map to a clean header, switching the workspace to chapter-based
processing. It refuses to run when no topic map exists.

If an obsolete setup script is found it offers to remove it; pass --yes to
skip the prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		yes, _ := cmd.Flags().GetBool("yes")

		confirm := func(prompt string) bool {
			if yes {
				return true
			}
			fmt.Fprintf(os.Stdout, "%s [y/N]: ", prompt)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return false
			}
			answer := strings.ToLower(strings.TrimSpace(line))
			return answer == "y" || answer == "yes"
		}
		return workspace.Restructure(root, confirm, os.Stdout)
	},
}

func init() {
	restructureCmd.Flags().Bool("yes", false, "answer yes to all prompts")
	rootCmd.AddCommand(restructureCmd)
}
