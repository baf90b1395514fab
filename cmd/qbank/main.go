// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the qbank CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the qbank CLI.
var rootCmd = &cobra.Command{
	Use:   "qbank",
	Short: "Build an AP question bank from JEE study materials",
	Long: `qbank turns JEE study materials (PDF and DOCX) into an AP-style question
bank. The pipeline reads pages, asks Gemini to parse, classify, and transform
the questions it finds, and stores everything in a local SQLite bank.

Each stage is a subcommand: init scaffolds a workspace, generate runs the
pipeline, duplicates flags near-identical questions, validate reviews them,
and export writes CSV, LaTeX/PDF, YAML, or JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// API keys live in .env, never in the config file.
		if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./qbank.yaml or ~/.config/qbank/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("qbank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "qbank"))
		}
	}

	viper.SetEnvPrefix("QBANK")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.embedding_model", "text-embedding-004")
	viper.SetDefault("gemini.cooldown", 13*time.Second)
	viper.SetDefault("gemini.max_retries", 3)
	viper.SetDefault("gemini.timeout", 2*time.Minute)

	viper.SetDefault("pipeline.materials_dir", "data/raw_jee_materials")
	viper.SetDefault("pipeline.config_dir", "config")
	viper.SetDefault("pipeline.target_exam", "AP Physics 1")
	viper.SetDefault("pipeline.min_page_text", 150)
	viper.SetDefault("pipeline.page_delay", 500*time.Millisecond)

	viper.SetDefault("bank.data_dir", "data")
	viper.SetDefault("bank.max_results", 20)

	viper.SetDefault("dedupe.threshold", 0.95)

	viper.SetDefault("export.output_dir", "output")
	viper.SetDefault("export.batch_size", 50)

	viper.SetDefault("serve.addr", ":5000")
	viper.SetDefault("serve.templates_dir", "templates")
	viper.SetDefault("serve.log_file", "output/process.log")
	viper.SetDefault("serve.lock_file", "output/run.lock")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
