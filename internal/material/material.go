// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package material reads study materials (PDF and DOCX) page by page and
// normalizes the extracted text for the language model.
package material

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fumiama/go-docx"
	pdflib "github.com/ledongthuc/pdf"
)

// Page is one page of extracted material text.
type Page struct {
	Number int
	Text   string
}

// Document is a fully extracted material file.
type Document struct {
	Name  string
	Pages []Page
}

// List returns the material filenames (not paths) in dir with a supported
// extension, sorted for deterministic processing order.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading materials directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".docx":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load extracts the page texts of a single material file. DOCX files have no
// page structure, so the whole document becomes page 1.
func Load(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".docx":
		return loadDOCX(path)
	default:
		return nil, fmt.Errorf("unsupported material type: %s", filepath.Base(path))
	}
}

func loadPDF(path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	doc := &Document{Name: filepath.Base(path)}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			// A page that fails text extraction stays in the document as
			// an empty page so page numbering matches the source.
			if t, err := page.GetPlainText(nil); err == nil {
				text = t
			}
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: text})
	}
	return doc, nil
}

func loadDOCX(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx %s: %w", filepath.Base(path), err)
	}

	parsed, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parsing docx %s: %w", filepath.Base(path), err)
	}

	var sb strings.Builder
	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	return &Document{
		Name:  filepath.Base(path),
		Pages: []Page{{Number: 1, Text: sb.String()}},
	}, nil
}

func paragraphText(para *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				sb.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

var (
	hyphenBreakRe = regexp.MustCompile(`(\w+)-\s*\n\s*(\w+)`)
	blankLinesRe  = regexp.MustCompile(`\n\s*\n`)
	pageNumberRe  = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
)

// CleanText normalizes extracted page text before it reaches the model:
// hyphenated words broken across lines are merged, blank-line runs are
// collapsed, and bare page-number lines are stripped.
func CleanText(text string) string {
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	text = blankLinesRe.ReplaceAllString(text, "\n")
	text = pageNumberRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
