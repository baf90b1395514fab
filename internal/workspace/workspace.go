// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace creates and migrates the on-disk project layout the
// pipeline expects: material and output directories, the chapter and topic
// map templates, and the .env credentials template.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Directories created by Scaffold, relative to the workspace root.
var projectDirs = []string{
	"data/raw_jee_materials",
	"data/processed",
	"output",
	"config",
	"templates",
}

const (
	// TopicMapName maps source topics to target exam formats. Callers
	// resolving it against a configured config directory join this bare
	// name; TopicMapFile is the workspace-root-relative path.
	TopicMapName = "topic_map.csv"
	TopicMapFile = "config/" + TopicMapName

	// ChapterMapName maps material files to chapters and page ranges.
	ChapterMapName = "chapter_map.csv"
	ChapterMapFile = "config/" + ChapterMapName

	// LegacyScript is the shell scaffolder Restructure offers to delete.
	LegacyScript = "setup_pipeline.sh"

	envFile       = ".env"
	gitignoreFile = ".gitignore"
)

const chapterMapTemplate = `Subject,PDF_File,Chapter,Start_Page,End_Page
# Example: Physics,hc_verma_vol1.pdf,Rotational Mechanics,166,195
`

const envTemplate = `# Gemini API keys. The pipeline rotates between all configured keys.
GEMINI_API_KEY_1=
GEMINI_API_KEY_2=
GEMINI_API_KEY_3=
GEMINI_API_KEY_4=
`

const gitignoreTemplate = `.env
data/
output/
process.log
bin/
`

// Scaffold creates the project directory structure and template files under
// root. Existing files are left untouched, so repeated runs are safe.
func Scaffold(root string, w io.Writer) error {
	for _, dir := range projectDirs {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Fprintf(w, "  %s/\n", dir)
	}

	templates := []struct {
		name    string
		content string
	}{
		{ChapterMapFile, chapterMapTemplate},
		{TopicMapFile, ""},
		{envFile, envTemplate},
		{gitignoreFile, gitignoreTemplate},
	}

	for _, t := range templates {
		path := filepath.Join(root, t.name)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(w, "  %s (exists, kept)\n", t.name)
			continue
		}
		if err := os.WriteFile(path, []byte(t.content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", t.name, err)
		}
		fmt.Fprintf(w, "  %s\n", t.name)
	}

	fmt.Fprintln(w, "\nWorkspace initialized. Next steps:")
	fmt.Fprintln(w, "  1. Copy your JEE material PDFs into data/raw_jee_materials/")
	fmt.Fprintln(w, "  2. Fill in config/chapter_map.csv and config/topic_map.csv")
	fmt.Fprintln(w, "  3. Add your Gemini API keys to .env")
	fmt.Fprintln(w, "  4. Run: qbank generate")
	return nil
}

// Restructure migrates a legacy workspace to the current layout. It archives
// config/topic_map.csv to config/topic_map.csv.bak (a rename, so nothing is
// lost), rewrites config/chapter_map.csv with the canonical header, and, when
// confirm returns true, removes the legacy setup_pipeline.sh scaffolder.
//
// A missing topic_map.csv is an error: the caller is expected to abort on the
// first failing step, matching the fail-fast behavior the migration had as a
// shell script.
func Restructure(root string, confirm func(prompt string) bool, w io.Writer) error {
	topicMap := filepath.Join(root, TopicMapFile)
	backup := topicMap + ".bak"
	if err := os.Rename(topicMap, backup); err != nil {
		return fmt.Errorf("archiving %s: %w", TopicMapFile, err)
	}
	fmt.Fprintf(w, "Archived %s -> %s.bak\n", TopicMapFile, TopicMapFile)

	chapterMap := filepath.Join(root, ChapterMapFile)
	if err := os.WriteFile(chapterMap, []byte(chapterMapTemplate), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ChapterMapFile, err)
	}
	fmt.Fprintf(w, "Wrote %s\n", ChapterMapFile)

	legacy := filepath.Join(root, LegacyScript)
	if _, err := os.Stat(legacy); err == nil {
		if confirm(fmt.Sprintf("Delete legacy %s?", LegacyScript)) {
			if err := os.Remove(legacy); err != nil {
				return fmt.Errorf("removing %s: %w", LegacyScript, err)
			}
			fmt.Fprintf(w, "Removed %s\n", LegacyScript)
		} else {
			fmt.Fprintf(w, "Kept %s\n", LegacyScript)
		}
	}

	fmt.Fprintln(w, "Restructure complete.")
	return nil
}
