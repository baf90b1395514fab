// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the end-to-end question generation: read material
// pages, ask the model to parse/classify/transform, and persist the results.
// Runs are resumable per source file.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/gemini"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/material"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/workspace"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// Summary holds counts from a generation run.
type Summary struct {
	PagesProcessed int
	PagesSkipped   int
	PagesFailed    int
	Questions      int
}

// HasFailures reports whether any pages failed.
func (s Summary) HasFailures() bool { return s.PagesFailed > 0 }

// pageQuestion is the per-question schema the model is instructed to return.
type pageQuestion struct {
	OriginalQuestion    string   `json:"original_question"`
	OriginalOptions     []string `json:"original_options"`
	ClassifiedTopic     string   `json:"classified_topic"`
	TransformedQuestion string   `json:"transformed_question"`
	TransformedOptions  []string `json:"transformed_options"`
	CorrectAnswer       string   `json:"correct_answer"`
	Explanation         string   `json:"explanation"`
}

// Material access goes through package-level vars so tests can substitute
// synthetic documents without fabricating PDF files.
var (
	listMaterials = material.List
	loadDocument  = material.Load
)

// Options narrows a run to a single chapter: one material file and an
// inclusive page range. The zero value processes everything.
type Options struct {
	Chapter *types.ChapterMapping
}

// Run processes every material file (or the chapter selected in opts),
// resuming each file from the page after the highest one already in the
// bank. Progress is reported line by line to w.
func Run(ctx context.Context, backend gemini.Backend, store *bank.Store, cfg types.PipelineConfig, opts Options, w io.Writer) (Summary, error) {
	topics, err := workspace.LoadTopics(filepath.Join(cfg.ConfigDir, workspace.TopicMapName))
	if err != nil {
		return Summary{}, fmt.Errorf("loading topics: %w", err)
	}
	if len(topics) == 0 {
		return Summary{}, fmt.Errorf("no topics configured in %s: fill in the topic map first", workspace.TopicMapFile)
	}

	files, err := listMaterials(cfg.MaterialsDir)
	if err != nil {
		return Summary{}, err
	}
	if opts.Chapter != nil {
		files = []string{opts.Chapter.PDFFile}
		fmt.Fprintf(w, "Chapter run: %s - %s (pages %d-%d)\n",
			opts.Chapter.Subject, opts.Chapter.Chapter, opts.Chapter.StartPage, opts.Chapter.EndPage)
	}
	if len(files) == 0 {
		return Summary{}, fmt.Errorf("no materials found in %s: add PDF or DOCX files first", cfg.MaterialsDir)
	}

	minText := cfg.MinPageText
	if minText <= 0 {
		minText = defaultMinPageText
	}
	targetExam := cfg.TargetExam
	if targetExam == "" {
		targetExam = "AP Physics 1"
	}

	var summary Summary
	for _, name := range files {
		if err := processFile(ctx, backend, store, cfg, opts, name, topics, targetExam, minText, &summary, w); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.PagesFailed++
		}
	}

	fmt.Fprintf(w, "\npages: %d processed, %d skipped, %d failed; %d questions generated\n",
		summary.PagesProcessed, summary.PagesSkipped, summary.PagesFailed, summary.Questions)
	return summary, nil
}

func processFile(ctx context.Context, backend gemini.Backend, store *bank.Store, cfg types.PipelineConfig, opts Options, name string, topics []string, targetExam string, minText int, summary *Summary, w io.Writer) error {
	doc, err := loadDocument(filepath.Join(cfg.MaterialsDir, name))
	if err != nil {
		return err
	}

	last, err := store.LastProcessedPage(ctx, name)
	if err != nil {
		return err
	}

	first, final := 1, len(doc.Pages)
	if opts.Chapter != nil {
		first, final = opts.Chapter.StartPage, opts.Chapter.EndPage
		if final > len(doc.Pages) {
			final = len(doc.Pages)
		}
	}
	if last >= final {
		fmt.Fprintf(w, "skipped %s (already fully processed)\n", name)
		return nil
	}
	if last+1 > first {
		first = last + 1
	}

	fmt.Fprintf(w, "processing %s (resuming from page %d of %d)\n", name, first, final)

	for _, page := range doc.Pages {
		if page.Number < first || page.Number > final {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		text := material.CleanText(page.Text)
		if len(text) < minText {
			fmt.Fprintf(w, "  page %d/%d: skipped (not enough text)\n", page.Number, final)
			summary.PagesSkipped++
			continue
		}

		prompt, err := renderGenerationPrompt(promptData{
			TargetExam: targetExam,
			Topics:     topics,
			SourceFile: name,
			PageNum:    page.Number,
			PageText:   text,
		})
		if err != nil {
			return err
		}

		raw, err := backend.GenerateContent(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(w, "  page %d/%d: failed: %v\n", page.Number, final, err)
			summary.PagesFailed++
			continue
		}

		questions, err := decodeResponse(raw)
		if err != nil {
			fmt.Fprintf(w, "  page %d/%d: failed: %v\n", page.Number, final, err)
			summary.PagesFailed++
			continue
		}

		stored := 0
		for _, q := range questions {
			if q.OriginalQuestion == "" || q.TransformedQuestion == "" {
				continue
			}
			src := &types.SourceQuestion{
				QuestionText: q.OriginalQuestion,
				Options:      q.OriginalOptions,
				Topic:        q.ClassifiedTopic,
				SourceFile:   name,
				SourcePage:   page.Number,
				RawTextChunk: text,
			}
			if opts.Chapter != nil {
				src.Subject = opts.Chapter.Subject
			}
			gen := &types.GeneratedQuestion{
				TargetExam:    targetExam,
				QuestionText:  q.TransformedQuestion,
				Options:       q.TransformedOptions,
				CorrectAnswer: q.CorrectAnswer,
				Explanation:   q.Explanation,
			}
			if err := store.InsertPair(ctx, src, gen); err != nil {
				return err
			}
			stored++
		}

		if stored > 0 {
			fmt.Fprintf(w, "  page %d/%d: %d questions\n", page.Number, final, stored)
		} else {
			fmt.Fprintf(w, "  page %d/%d: no questions found\n", page.Number, final)
		}
		summary.PagesProcessed++
		summary.Questions += stored

		if cfg.PageDelay > 0 {
			if err := wait(ctx, cfg.PageDelay); err != nil {
				return err
			}
		}
	}

	return nil
}

// defaultMinPageText is the shortest cleaned page text worth sending to the
// model. Anything below it is almost always a cover, index, or figure page.
const defaultMinPageText = 150

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// decodeResponse recovers the JSON list from the raw model output. The model
// is told to return nothing but JSON, yet it routinely wraps the list in
// code fences or prose, so we take the outermost [...] slice.
func decodeResponse(raw string) ([]pageQuestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON list in model response")
	}

	var questions []pageQuestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &questions); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}
	return questions, nil
}
