// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/pipeline"
)

var pagesCmd = &cobra.Command{
	Use:   "pages <file>",
	Short: "Survey a material file for question pages",
	Long: `Pages asks the model a yes/no question for every page of one material
file and writes a YAML report of the pages that contain practice questions.
The report lands in the output directory next to the exports.`,
	Args: cobra.ExactArgs(1),
	RunE: runPages,
}

func runPages(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	client, err := newGeminiClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := pipeline.SurveyPages(ctx, client, cfg.Pipeline, args[0], os.Stdout)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := reportPath(cfg.Export.OutputDir, args[0])

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	fmt.Printf("\n%d of %d pages contain questions; report written to %s\n",
		len(report.QuestionPages), report.TotalPages, path)
	return nil
}

// reportPath names the YAML report after the surveyed file, dropping any
// directories in the argument so the report always lands in outputDir.
func reportPath(outputDir, file string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(outputDir, base+"_pages.yaml")
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}
