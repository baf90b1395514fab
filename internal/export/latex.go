// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

const binPdflatex = "pdflatex"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(dir, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.Run()
}

var worksheetTmpl = template.Must(template.New("worksheet").Parse(`\documentclass[11pt]{article}
\usepackage{amsmath}
\usepackage{amssymb}
\usepackage[margin=1in]{geometry}
\usepackage{enumitem}
\title{ {{- .Title -}} }
\author{Batch {{.Batch}}}
\date{}
\begin{document}
\maketitle
\begin{enumerate}
{{range .Questions}}\item {{.Text}}
{{if .Options}}\begin{enumerate}[label=(\Alph*)]
{{range .Options}}\item {{.}}
{{end}}\end{enumerate}
{{end}}{{end}}\end{enumerate}
\newpage
\section*{Answer Key}
\begin{enumerate}
{{range .Questions}}\item \textbf{ {{- .Answer -}} }{{if .Explanation}} --- {{.Explanation}}{{end}}
{{end}}\end{enumerate}
\end{document}
`))

type worksheetQuestion struct {
	Text        string
	Options     []string
	Answer      string
	Explanation string
}

type worksheetData struct {
	Title     string
	Batch     int
	Questions []worksheetQuestion
}

// LaTeXExporter renders approved questions into batched worksheets and
// compiles them with pdflatex.
type LaTeXExporter struct {
	cfg  types.ExportConfig
	exec executor
}

// NewLaTeXExporter builds an exporter writing under cfg.OutputDir.
func NewLaTeXExporter(cfg types.ExportConfig) *LaTeXExporter {
	return &LaTeXExporter{cfg: cfg, exec: &osExecutor{}}
}

// Export writes the approved questions as LaTeX worksheets, batchSize
// questions per file, and compiles each to a PDF. It returns the PDF paths.
// Compilation requires pdflatex on PATH.
func (e *LaTeXExporter) Export(ctx context.Context, store *bank.Store, w io.Writer) ([]string, error) {
	if _, err := e.exec.LookPath(binPdflatex); err != nil {
		return nil, fmt.Errorf("%s not found on PATH: install a TeX distribution first", binPdflatex)
	}

	questions, err := store.Approved(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no approved questions to export")
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	var pdfs []string
	for batch := 0; batch*batchSize < len(questions); batch++ {
		if err := ctx.Err(); err != nil {
			return pdfs, err
		}
		start := batch * batchSize
		end := start + batchSize
		if end > len(questions) {
			end = len(questions)
		}

		name := fmt.Sprintf("question_bank_batch_%d", batch+1)
		texPath := filepath.Join(e.cfg.OutputDir, name+".tex")
		if err := e.writeWorksheet(texPath, batch+1, questions[start:end]); err != nil {
			return pdfs, err
		}
		fmt.Fprintf(w, "wrote %s (%d questions)\n", texPath, end-start)

		if err := e.compile(name); err != nil {
			return pdfs, fmt.Errorf("compiling %s: %w", texPath, err)
		}
		pdf := filepath.Join(e.cfg.OutputDir, name+".pdf")
		fmt.Fprintf(w, "compiled %s\n", pdf)
		pdfs = append(pdfs, pdf)
	}
	return pdfs, nil
}

func (e *LaTeXExporter) writeWorksheet(path string, batch int, questions []types.GeneratedQuestion) error {
	data := worksheetData{Title: "Question Bank", Batch: batch}
	if len(questions) > 0 && questions[0].TargetExam != "" {
		data.Title = questions[0].TargetExam + " Question Bank"
	}
	for _, q := range questions {
		wq := worksheetQuestion{
			Text:        smartEscape(q.QuestionText),
			Answer:      smartEscape(q.CorrectAnswer),
			Explanation: smartEscape(q.Explanation),
		}
		for _, opt := range q.Options {
			wq.Options = append(wq.Options, smartEscape(opt))
		}
		data.Questions = append(data.Questions, wq)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return worksheetTmpl.Execute(f, data)
}

// compile runs pdflatex twice so cross-references settle, then removes the
// .aux and .log byproducts.
func (e *LaTeXExporter) compile(name string) error {
	args := []string{"-interaction=nonstopmode", "-halt-on-error", name + ".tex"}
	for i := 0; i < 2; i++ {
		if err := e.exec.Run(e.cfg.OutputDir, binPdflatex, args...); err != nil {
			return err
		}
	}
	for _, ext := range []string{".aux", ".log"} {
		os.Remove(filepath.Join(e.cfg.OutputDir, name+ext))
	}
	return nil
}

// latexReplacer escapes the characters LaTeX treats specially in plain text.
var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// smartEscape escapes LaTeX special characters in prose while leaving
// $...$ math segments untouched, so model output like "$v = u + at$"
// renders as math instead of mangled text.
func smartEscape(s string) string {
	var b strings.Builder
	inMath := false
	segment := strings.Builder{}
	flush := func() {
		if segment.Len() == 0 {
			return
		}
		if inMath {
			b.WriteString("$" + segment.String() + "$")
		} else {
			b.WriteString(latexReplacer.Replace(segment.String()))
		}
		segment.Reset()
	}

	for _, r := range s {
		if r == '$' {
			flush()
			inMath = !inMath
			continue
		}
		segment.WriteRune(r)
	}
	if inMath {
		// Unbalanced delimiter: treat the tail as prose.
		inMath = false
		tail := segment.String()
		segment.Reset()
		segment.WriteString("$" + tail)
	}
	flush()
	return b.String()
}
