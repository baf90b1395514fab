// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// stubEmbedder maps question text to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func testStore(t *testing.T) *bank.Store {
	t.Helper()
	store, err := bank.NewStore(types.BankConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertQuestion(t *testing.T, store *bank.Store, text string) int64 {
	t.Helper()
	src := &types.SourceQuestion{QuestionText: "orig " + text, SourceFile: "a.pdf", SourcePage: 1}
	gen := &types.GeneratedQuestion{QuestionText: text, TargetExam: "AP Physics 1"}
	if err := store.InsertPair(context.Background(), src, gen); err != nil {
		t.Fatal(err)
	}
	return gen.ID
}

func TestFlagMarksHigherIDAsDuplicate(t *testing.T) {
	store := testStore(t)
	first := insertQuestion(t, store, "alpha")
	second := insertQuestion(t, store, "alpha twin")
	third := insertQuestion(t, store, "beta")

	embedder := &stubEmbedder{vectors: map[string][]float32{
		"alpha":      {1, 0, 0},
		"alpha twin": {0.999, 0.01, 0},
		"beta":       {0, 1, 0},
	}}
	var buf bytes.Buffer

	summary, err := Flag(context.Background(), embedder, store, types.DedupeConfig{Threshold: 0.95}, &buf)
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if summary.Embedded != 3 {
		t.Errorf("Embedded = %d, want 3", summary.Embedded)
	}
	if summary.Flagged != 1 {
		t.Errorf("Flagged = %d, want 1", summary.Flagged)
	}

	questions, err := store.GeneratedQuestions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	statuses := map[int64]types.ValidationStatus{}
	for _, q := range questions {
		statuses[q.ID] = q.ValidationStatus
	}
	if statuses[first] != types.StatusPending {
		t.Errorf("first question status = %s, want pending", statuses[first])
	}
	if statuses[second] != types.StatusRejectedDuplicate {
		t.Errorf("second question status = %s, want rejected_duplicate", statuses[second])
	}
	if statuses[third] != types.StatusPending {
		t.Errorf("third question status = %s, want pending", statuses[third])
	}
}

func TestFlagReusesCachedEmbeddings(t *testing.T) {
	store := testStore(t)
	insertQuestion(t, store, "alpha")
	insertQuestion(t, store, "beta")

	embedder := &stubEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
	}}
	if _, err := Flag(context.Background(), embedder, store, types.DedupeConfig{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if embedder.calls != 2 {
		t.Fatalf("first pass made %d embed calls, want 2", embedder.calls)
	}

	// A second pass finds every vector cached.
	if _, err := Flag(context.Background(), embedder, store, types.DedupeConfig{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if embedder.calls != 2 {
		t.Errorf("second pass made %d extra embed calls", embedder.calls-2)
	}
}

func TestFlagTooFewQuestions(t *testing.T) {
	store := testStore(t)
	insertQuestion(t, store, "alone")

	summary, err := Flag(context.Background(), &stubEmbedder{}, store, types.DedupeConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if summary.Flagged != 0 || summary.Embedded != 0 {
		t.Errorf("summary = %+v, want nothing done", summary)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cosine(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("cosine() = %f, want %f", got, tt.want)
			}
		})
	}

	if _, err := cosine([]float32{1}, []float32{1, 2}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
