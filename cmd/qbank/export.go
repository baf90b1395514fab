// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the question bank (csv, latex, yaml, json)",
	Long: `Export writes the bank out in the chosen format. CSV dumps both tables
with options expanded into columns. LaTeX renders approved questions into
batched worksheets and compiles them to PDF with pdflatex. YAML and JSON
write the approved questions only.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "csv", "":
		paths, err := export.WriteCSV(ctx, store, cfg.Export.OutputDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println("Exported to", p)
		}
	case "latex":
		exp := export.NewLaTeXExporter(cfg.Export)
		if _, err := exp.Export(ctx, store, os.Stdout); err != nil {
			return err
		}
	case "yaml":
		path, err := export.WriteYAML(ctx, store, cfg.Export.OutputDir)
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
	case "json":
		path, err := export.WriteJSON(ctx, store, cfg.Export.OutputDir)
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
	default:
		return fmt.Errorf("unsupported format %q: use csv, latex, yaml, or json", format)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "csv", "export format (csv, latex, yaml, json)")
	rootCmd.AddCommand(exportCmd)
}
