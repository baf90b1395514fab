// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe finds semantically duplicated generated questions by
// comparing embedding vectors and flags the newer copy of each pair.
package dedupe

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/gemini"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// Summary holds counts from a dedupe pass.
type Summary struct {
	Questions int
	Embedded  int
	Flagged   int64
}

// Flag embeds every pending or approved question that does not yet have a vector,
// compares all pairs, and marks the higher-ID question of each pair whose
// cosine similarity meets the threshold as a rejected duplicate. The lower
// ID survives so reruns are stable.
func Flag(ctx context.Context, embedder gemini.Embedder, store *bank.Store, cfg types.DedupeConfig, w io.Writer) (Summary, error) {
	var summary Summary

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 0.95
	}

	questions, err := store.Reviewable(ctx)
	if err != nil {
		return summary, err
	}
	summary.Questions = len(questions)
	if len(questions) < 2 {
		fmt.Fprintln(w, "not enough questions to compare")
		return summary, nil
	}

	for i := range questions {
		if len(questions[i].Embedding) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		vec, err := embedder.EmbedText(ctx, questions[i].QuestionText)
		if err != nil {
			return summary, fmt.Errorf("embedding question %d: %w", questions[i].ID, err)
		}
		if err := store.SaveEmbedding(ctx, questions[i].ID, vec); err != nil {
			return summary, err
		}
		questions[i].Embedding = vec
		summary.Embedded++
	}
	if summary.Embedded > 0 {
		fmt.Fprintf(w, "embedded %d new questions\n", summary.Embedded)
	}

	duplicates := map[int64]bool{}
	for i := 0; i < len(questions); i++ {
		for j := i + 1; j < len(questions); j++ {
			a, b := questions[i], questions[j]
			if duplicates[b.ID] || len(a.Embedding) == 0 || len(b.Embedding) == 0 {
				continue
			}
			sim, err := cosine(a.Embedding, b.Embedding)
			if err != nil {
				return summary, fmt.Errorf("comparing %d and %d: %w", a.ID, b.ID, err)
			}
			if sim >= threshold {
				duplicates[b.ID] = true
				fmt.Fprintf(w, "question %d duplicates %d (similarity %.3f)\n", b.ID, a.ID, sim)
			}
		}
	}

	ids := make([]int64, 0, len(duplicates))
	for id := range duplicates {
		ids = append(ids, id)
	}
	flagged, err := store.FlagDuplicates(ctx, ids)
	if err != nil {
		return summary, err
	}
	summary.Flagged = flagged
	fmt.Fprintf(w, "flagged %d duplicates as %s\n", flagged, types.StatusRejectedDuplicate)
	return summary, nil
}

// cosine returns the cosine similarity of two vectors of equal length.
func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector lengths differ: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
