// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/pipeline"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/workspace"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the question generation pipeline",
	Long: `Generate reads every material file page by page, asks Gemini to parse,
classify, and transform the questions it finds, and stores the results in
the question bank. Each file resumes from the page after the highest one
already processed, so interrupted runs pick up where they left off.

Use --subject and --chapter to limit the run to one chapter from
config/chapter_map.csv.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	client, err := newGeminiClient()
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d API key(s)\n", client.KeyCount())

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := chapterOptions(cmd, cfg.Pipeline.ConfigDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := pipeline.Run(ctx, client, store, cfg.Pipeline, opts, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("\nprocessed %d pages (%d skipped, %d failed), %d questions stored\n",
		summary.PagesProcessed, summary.PagesSkipped, summary.PagesFailed, summary.Questions)
	if summary.HasFailures() {
		return fmt.Errorf("%d page(s) failed", summary.PagesFailed)
	}
	return nil
}

// chapterOptions resolves --subject/--chapter against the chapter map.
func chapterOptions(cmd *cobra.Command, configDir string) (pipeline.Options, error) {
	subject, _ := cmd.Flags().GetString("subject")
	chapter, _ := cmd.Flags().GetString("chapter")
	if subject == "" && chapter == "" {
		return pipeline.Options{}, nil
	}

	chapters, err := workspace.LoadChapterMap(filepath.Join(configDir, workspace.ChapterMapName))
	if err != nil {
		return pipeline.Options{}, err
	}
	for i := range chapters {
		if chapters[i].Subject == subject && chapters[i].Chapter == chapter {
			return pipeline.Options{Chapter: &chapters[i]}, nil
		}
	}
	return pipeline.Options{}, fmt.Errorf("no chapter mapping for %s / %s in %s", subject, chapter, workspace.ChapterMapFile)
}

func init() {
	generateCmd.Flags().String("subject", "", "limit the run to this subject from the chapter map")
	generateCmd.Flags().String("chapter", "", "limit the run to this chapter from the chapter map")
	rootCmd.AddCommand(generateCmd)
}
