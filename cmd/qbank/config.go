// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/gemini"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// loadConfig assembles the full configuration from viper (config file,
// environment, defaults).
func loadConfig() types.AutomatorConfig {
	return types.AutomatorConfig{
		Gemini: types.GeminiConfig{
			Model:          viper.GetString("gemini.model"),
			EmbeddingModel: viper.GetString("gemini.embedding_model"),
			APIKeys:        gemini.LoadKeys(),
			Cooldown:       viper.GetDuration("gemini.cooldown"),
			MaxRetries:     viper.GetInt("gemini.max_retries"),
			Timeout:        viper.GetDuration("gemini.timeout"),
		},
		Pipeline: types.PipelineConfig{
			MaterialsDir: viper.GetString("pipeline.materials_dir"),
			ConfigDir:    viper.GetString("pipeline.config_dir"),
			TargetExam:   viper.GetString("pipeline.target_exam"),
			MinPageText:  viper.GetInt("pipeline.min_page_text"),
			PageDelay:    viper.GetDuration("pipeline.page_delay"),
		},
		Bank: types.BankConfig{
			DataDir:    viper.GetString("bank.data_dir"),
			MaxResults: viper.GetInt("bank.max_results"),
		},
		Dedupe: types.DedupeConfig{
			Threshold: viper.GetFloat64("dedupe.threshold"),
		},
		Export: types.ExportConfig{
			OutputDir: viper.GetString("export.output_dir"),
			BatchSize: viper.GetInt("export.batch_size"),
		},
		Serve: types.ServeConfig{
			Addr:         viper.GetString("serve.addr"),
			TemplatesDir: viper.GetString("serve.templates_dir"),
			LogFile:      viper.GetString("serve.log_file"),
			LockFile:     viper.GetString("serve.lock_file"),
		},
	}
}

// openStore opens the question bank using the current configuration.
func openStore() (*bank.Store, error) {
	return bank.NewStore(loadConfig().Bank)
}

// newGeminiClient builds a Gemini client from the current configuration.
// It fails when no API keys are set in the environment.
func newGeminiClient() (*gemini.Client, error) {
	return gemini.NewClient(loadConfig().Gemini)
}
