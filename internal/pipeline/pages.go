// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/gemini"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/material"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// PageReport records which pages of a document carry practice questions.
type PageReport struct {
	File          string `json:"file" yaml:"file"`
	TotalPages    int    `json:"total_pages" yaml:"total_pages"`
	QuestionPages []int  `json:"question_pages" yaml:"question_pages"`
	SkippedPages  []int  `json:"skipped_pages,omitempty" yaml:"skipped_pages,omitempty"`
}

// SurveyPages asks the model a yes/no question per page and collects the
// pages that contain practice questions. Pages shorter than the minimum
// text length are recorded as skipped without an API call.
func SurveyPages(ctx context.Context, backend gemini.Backend, cfg types.PipelineConfig, file string, w io.Writer) (PageReport, error) {
	report := PageReport{File: file}

	doc, err := loadDocument(filepath.Join(cfg.MaterialsDir, file))
	if err != nil {
		return report, fmt.Errorf("loading %s: %w", file, err)
	}
	report.TotalPages = len(doc.Pages)

	minText := cfg.MinPageText
	if minText <= 0 {
		minText = defaultMinPageText
	}

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		text := material.CleanText(page.Text)
		if len(text) < minText {
			report.SkippedPages = append(report.SkippedPages, page.Number)
			continue
		}

		prompt, err := renderSurveyPrompt(text)
		if err != nil {
			return report, err
		}
		answer, err := backend.GenerateContent(ctx, prompt)
		if err != nil {
			return report, fmt.Errorf("page %d: %w", page.Number, err)
		}

		if isYes(answer) {
			report.QuestionPages = append(report.QuestionPages, page.Number)
			fmt.Fprintf(w, "page %d: questions found\n", page.Number)
		} else {
			fmt.Fprintf(w, "page %d: no questions\n", page.Number)
		}

		if cfg.PageDelay > 0 {
			if err := wait(ctx, cfg.PageDelay); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

func isYes(answer string) bool {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	return strings.HasPrefix(answer, "YES")
}
