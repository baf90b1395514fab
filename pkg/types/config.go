// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GeminiConfig holds settings for the Gemini API client.
type GeminiConfig struct {
	// Model is the generation model identifier (default "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// EmbeddingModel is the embeddings model identifier
	// (default "text-embedding-004").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// APIKeys are the keys rotated between calls. Loaded from
	// GEMINI_API_KEY_1..4, never from the config file.
	APIKeys []string `json:"-" yaml:"-"`

	// Cooldown is the minimum spacing between consecutive API calls
	// (default 13s, a safety buffer for the 5 RPM free tier).
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`

	// MaxRetries is the number of retry attempts per key for rate-limit
	// errors (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the HTTP request timeout (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// PipelineConfig holds settings for the generation pipeline.
type PipelineConfig struct {
	// MaterialsDir is the directory holding source PDFs and DOCX files
	// (default "data/raw_jee_materials").
	MaterialsDir string `json:"materials_dir" yaml:"materials_dir"`

	// ConfigDir is the directory holding topic_map.csv and chapter_map.csv
	// (default "config").
	ConfigDir string `json:"config_dir" yaml:"config_dir"`

	// TargetExam names the exam style variants are written for
	// (default "AP Physics 1").
	TargetExam string `json:"target_exam" yaml:"target_exam"`

	// MinPageText is the minimum cleaned page text length worth sending to
	// the model (default 150).
	MinPageText int `json:"min_page_text" yaml:"min_page_text"`

	// PageDelay is the pause between pages after an API call (default 500ms).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`
}

// BankConfig holds settings for the question bank store.
type BankConfig struct {
	// DataDir is the directory containing question_bank.db (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DedupeConfig holds settings for duplicate detection.
type DedupeConfig struct {
	// Threshold is the cosine similarity above which two generated
	// questions count as duplicates (default 0.95).
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	// OutputDir is the directory for exported files (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// BatchSize is the number of questions per LaTeX document (default 50).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// ServeConfig holds settings for the review web server.
type ServeConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr"`

	// TemplatesDir is the directory holding the HTML templates
	// (default "templates").
	TemplatesDir string `json:"templates_dir" yaml:"templates_dir"`

	// LogFile receives the background pipeline output (default "process.log").
	LogFile string `json:"log_file" yaml:"log_file"`

	// LockFile marks a background pipeline run in progress
	// (default "output/run.lock").
	LockFile string `json:"lock_file" yaml:"lock_file"`
}

// AutomatorConfig groups all stage configurations.
type AutomatorConfig struct {
	Gemini   GeminiConfig   `json:"gemini" yaml:"gemini"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Bank     BankConfig     `json:"bank" yaml:"bank"`
	Dedupe   DedupeConfig   `json:"dedupe" yaml:"dedupe"`
	Export   ExportConfig   `json:"export" yaml:"export"`
	Serve    ServeConfig    `json:"serve" yaml:"serve"`
}
