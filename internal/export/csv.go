// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes the question bank out in the formats reviewers and
// downstream tools consume: CSV, LaTeX/PDF, YAML, and JSON.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

const (
	sourceCSVFile    = "source_questions.csv"
	generatedCSVFile = "generated_questions.csv"
)

// WriteCSV dumps both tables to CSV files under outDir and returns the paths
// written. Options are expanded into Option_A..Option_D columns so the files
// open cleanly in a spreadsheet.
func WriteCSV(ctx context.Context, store *bank.Store, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	sources, err := store.SourceQuestions(ctx)
	if err != nil {
		return nil, err
	}
	generated, err := store.GeneratedQuestions(ctx)
	if err != nil {
		return nil, err
	}

	sourcePath := filepath.Join(outDir, sourceCSVFile)
	if err := writeSourceCSV(sourcePath, sources); err != nil {
		return nil, err
	}
	generatedPath := filepath.Join(outDir, generatedCSVFile)
	if err := writeGeneratedCSV(generatedPath, generated); err != nil {
		return nil, err
	}
	return []string{sourcePath, generatedPath}, nil
}

func writeSourceCSV(path string, questions []types.SourceQuestion) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"ID", "Subject", "Topic", "Source_File", "Source_Page",
		"Question_Text", "Option_A", "Option_B", "Option_C", "Option_D", "Status"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, q := range questions {
		row := []string{
			fmt.Sprint(q.ID),
			q.Subject,
			q.Topic,
			q.SourceFile,
			fmt.Sprint(q.SourcePage),
			flatten(q.QuestionText),
		}
		row = append(row, optionColumns(q.Options)...)
		row = append(row, string(q.Status))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeGeneratedCSV(path string, questions []types.GeneratedQuestion) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"ID", "Source_ID", "Target_Exam", "Question_Text",
		"Option_A", "Option_B", "Option_C", "Option_D",
		"Correct_Answer", "Explanation", "Validation_Status"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, q := range questions {
		row := []string{
			fmt.Sprint(q.ID),
			fmt.Sprint(q.SourceID),
			q.TargetExam,
			flatten(q.QuestionText),
		}
		row = append(row, optionColumns(q.Options)...)
		row = append(row, q.CorrectAnswer, flatten(q.Explanation), string(q.ValidationStatus))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// optionColumns pads or truncates to exactly four option cells.
func optionColumns(options []string) []string {
	cols := make([]string, 4)
	for i := 0; i < 4 && i < len(options); i++ {
		cols[i] = flatten(options[i])
	}
	return cols
}

// flatten collapses runs of whitespace to single spaces so multi-line model
// output stays on one CSV row cell.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
