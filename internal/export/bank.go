// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
)

// WriteYAML writes the approved questions to approved_questions.yaml under
// outDir and returns the path.
func WriteYAML(ctx context.Context, store *bank.Store, outDir string) (string, error) {
	questions, err := store.Approved(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outDir, "approved_questions.yaml")
	data, err := yaml.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// WriteJSON writes the approved questions to approved_questions.json under
// outDir and returns the path.
func WriteJSON(ctx context.Context, store *bank.Store, outDir string) (string, error) {
	questions, err := store.Approved(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outDir, "approved_questions.json")
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}
