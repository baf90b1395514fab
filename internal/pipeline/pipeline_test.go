// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/material"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

type fakeBackend struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeBackend) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const sampleResponse = `Here are the questions:
[
  {
    "original_question": "A ball is dropped from 20 m. Find the time to reach the ground.",
    "original_options": ["1 s", "2 s", "3 s", "4 s"],
    "classified_topic": "Kinematics",
    "transformed_question": "A ball is released from rest 20 m above the ground. How long does it take to land?",
    "transformed_options": ["1 s", "2 s", "3 s", "4 s"],
    "correct_answer": "2 s",
    "explanation": "Using h = (1/2)gt^2 with g = 10 m/s^2 gives t = 2 s."
  }
]
Done.`

func longPage(n int) material.Page {
	return material.Page{Number: n, Text: strings.Repeat("Solve the following problem about projectile motion. ", 10)}
}

func testSetup(t *testing.T, pages []material.Page) (types.PipelineConfig, *bank.Store) {
	t.Helper()
	dir := t.TempDir()

	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	topicMap := "JEE_Topic,AP_Physics_1_Topic\nKinematics,Kinematics\nLaws of Motion,Dynamics\n"
	if err := os.WriteFile(filepath.Join(configDir, "topic_map.csv"), []byte(topicMap), 0o644); err != nil {
		t.Fatal(err)
	}

	origList, origLoad := listMaterials, loadDocument
	t.Cleanup(func() { listMaterials, loadDocument = origList, origLoad })
	listMaterials = func(string) ([]string, error) { return []string{"mechanics.pdf"}, nil }
	loadDocument = func(path string) (*material.Document, error) {
		return &material.Document{Name: filepath.Base(path), Pages: pages}, nil
	}

	store, err := bank.NewStore(types.BankConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return types.PipelineConfig{
		MaterialsDir: dir,
		ConfigDir:    configDir,
	}, store
}

func TestRunStoresQuestions(t *testing.T) {
	cfg, store := testSetup(t, []material.Page{longPage(1), longPage(2)})
	backend := &fakeBackend{response: sampleResponse}
	var buf bytes.Buffer

	summary, err := Run(context.Background(), backend, store, cfg, Options{}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PagesProcessed != 2 {
		t.Errorf("PagesProcessed = %d, want 2", summary.PagesProcessed)
	}
	if summary.Questions != 2 {
		t.Errorf("Questions = %d, want 2", summary.Questions)
	}
	if summary.HasFailures() {
		t.Errorf("unexpected failures: %+v", summary)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalGenerated != 2 {
		t.Errorf("TotalGenerated = %d, want 2", stats.TotalGenerated)
	}

	// The prompt must carry the configured topics.
	if len(backend.prompts) == 0 || !strings.Contains(backend.prompts[0], "Kinematics") {
		t.Errorf("prompt missing topics: %q", backend.prompts)
	}
}

func TestRunSkipsShortPages(t *testing.T) {
	pages := []material.Page{
		{Number: 1, Text: "Contents"},
		longPage(2),
	}
	cfg, store := testSetup(t, pages)
	backend := &fakeBackend{response: sampleResponse}
	var buf bytes.Buffer

	summary, err := Run(context.Background(), backend, store, cfg, Options{}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PagesSkipped != 1 {
		t.Errorf("PagesSkipped = %d, want 1", summary.PagesSkipped)
	}
	if summary.PagesProcessed != 1 {
		t.Errorf("PagesProcessed = %d, want 1", summary.PagesProcessed)
	}
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("progress output missing skip line:\n%s", buf.String())
	}
}

func TestRunResumesFromLastPage(t *testing.T) {
	cfg, store := testSetup(t, []material.Page{longPage(1), longPage(2), longPage(3)})
	backend := &fakeBackend{response: sampleResponse}

	// First run covers all three pages.
	if _, err := Run(context.Background(), backend, store, cfg, Options{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	calls := len(backend.prompts)
	if calls != 3 {
		t.Fatalf("first run made %d calls, want 3", calls)
	}

	// Second run resumes past page 3 and makes no further calls.
	summary, err := Run(context.Background(), backend, store, cfg, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if len(backend.prompts) != calls {
		t.Errorf("resumed run made %d extra calls", len(backend.prompts)-calls)
	}
	if summary.PagesProcessed != 0 {
		t.Errorf("PagesProcessed = %d, want 0", summary.PagesProcessed)
	}
}

func TestRunChapterScoped(t *testing.T) {
	cfg, store := testSetup(t, []material.Page{longPage(1), longPage(2), longPage(3), longPage(4)})
	backend := &fakeBackend{response: sampleResponse}
	var buf bytes.Buffer

	chapter := &types.ChapterMapping{
		Subject:   "Physics",
		PDFFile:   "mechanics.pdf",
		Chapter:   "Kinematics",
		StartPage: 2,
		EndPage:   3,
	}
	summary, err := Run(context.Background(), backend, store, cfg, Options{Chapter: chapter}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PagesProcessed != 2 {
		t.Errorf("PagesProcessed = %d, want 2", summary.PagesProcessed)
	}

	srcs, err := store.SourceQuestions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range srcs {
		if s.Subject != "Physics" {
			t.Errorf("Subject = %q, want Physics", s.Subject)
		}
		if s.SourcePage < 2 || s.SourcePage > 3 {
			t.Errorf("SourcePage = %d, outside chapter range", s.SourcePage)
		}
	}
}

func TestRunRequiresTopics(t *testing.T) {
	cfg, store := testSetup(t, []material.Page{longPage(1)})
	if err := os.WriteFile(filepath.Join(cfg.ConfigDir, "topic_map.csv"), []byte("JEE_Topic,AP_Physics_1_Topic\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Run(context.Background(), &fakeBackend{}, store, cfg, Options{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "topic") {
		t.Errorf("expected topic error, got %v", err)
	}
}

func TestRunCountsFailedPages(t *testing.T) {
	cfg, store := testSetup(t, []material.Page{longPage(1)})
	backend := &fakeBackend{response: "the model rambled with no JSON"}

	summary, err := Run(context.Background(), backend, store, cfg, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PagesFailed != 1 {
		t.Errorf("PagesFailed = %d, want 1", summary.PagesFailed)
	}
	if !summary.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"bare list", `[{"original_question":"q","transformed_question":"t"}]`, 1, false},
		{"fenced list", "```json\n[{\"original_question\":\"q\"}]\n```", 1, false},
		{"prose wrapped", "Sure! Here you go: [ ] Thanks.", 0, false},
		{"no list", "I could not find any questions on this page.", 0, true},
		{"malformed", "[{not json}]", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeResponse(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("decodeResponse() returned %d questions, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSurveyPages(t *testing.T) {
	dir := t.TempDir()
	pages := []material.Page{
		{Number: 1, Text: "Index"},
		longPage(2),
		longPage(3),
	}

	origLoad := loadDocument
	t.Cleanup(func() { loadDocument = origLoad })
	loadDocument = func(path string) (*material.Document, error) {
		return &material.Document{Name: filepath.Base(path), Pages: pages}, nil
	}

	answers := map[int]string{2: "YES", 3: "no, this page has theory only"}
	call := 1
	backend := backendFunc(func(context.Context, string) (string, error) {
		call++
		return answers[call], nil
	})

	report, err := SurveyPages(context.Background(), backend, types.PipelineConfig{MaterialsDir: dir}, "mechanics.pdf", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("SurveyPages: %v", err)
	}
	if report.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", report.TotalPages)
	}
	if len(report.QuestionPages) != 1 || report.QuestionPages[0] != 2 {
		t.Errorf("QuestionPages = %v, want [2]", report.QuestionPages)
	}
	if len(report.SkippedPages) != 1 || report.SkippedPages[0] != 1 {
		t.Errorf("SkippedPages = %v, want [1]", report.SkippedPages)
	}
}

type backendFunc func(ctx context.Context, prompt string) (string, error)

func (f backendFunc) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestRunnerLifecycle(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "run.lock")
	logPath := filepath.Join(dir, "process.log")
	r := NewRunner(lock, logPath)

	started := make(chan struct{})
	if err := r.Start(func(ctx context.Context, w io.Writer) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started

	if !r.Running() {
		t.Error("Running() = false during run")
	}
	if _, err := os.Stat(lock); err != nil {
		t.Errorf("lock file missing during run: %v", err)
	}
	if err := r.Start(func(context.Context, io.Writer) error { return nil }); err == nil {
		t.Error("second Start succeeded while running")
	}

	r.Stop()
	if r.Running() {
		t.Error("Running() = true after Stop")
	}
	if _, err := os.Stat(lock); !os.IsNotExist(err) {
		t.Errorf("lock file still present after Stop: %v", err)
	}
	if !strings.Contains(r.Log(), "TERMINATED") {
		t.Errorf("log missing termination marker:\n%s", r.Log())
	}
}

func TestRunnerCompletesJob(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(filepath.Join(dir, "run.lock"), filepath.Join(dir, "process.log"))

	if err := r.Start(func(_ context.Context, w io.Writer) error {
		fmt.Fprintln(w, "working")
		return nil
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.Running() {
		t.Fatal("job never finished")
	}
	if log := r.Log(); !strings.Contains(log, "working") || !strings.Contains(log, "run complete") {
		t.Errorf("unexpected log:\n%s", log)
	}
}

func TestRunnerClearStaleLock(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "run.lock")
	if err := os.WriteFile(lock, []byte("12345\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(lock, filepath.Join(dir, "process.log"))
	if !r.Running() {
		t.Error("stale lock should read as running")
	}
	r.ClearStaleLock()
	if r.Running() {
		t.Error("Running() = true after clearing stale lock")
	}
}
