// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func alwaysYes(string) bool { return true }
func alwaysNo(string) bool  { return false }

func TestScaffoldCreatesLayout(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer

	if err := Scaffold(root, &buf); err != nil {
		t.Fatalf("Scaffold: %v", err)
	}

	for _, dir := range []string{
		"data/raw_jee_materials",
		"data/processed",
		"output",
		"config",
		"templates",
	} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s, got err=%v", dir, err)
		}
	}

	for _, file := range []string{ChapterMapFile, TopicMapFile, ".env", ".gitignore"} {
		if _, err := os.Stat(filepath.Join(root, file)); err != nil {
			t.Errorf("expected file %s: %v", file, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(root, ChapterMapFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Subject,PDF_File,Chapter,Start_Page,End_Page\n") {
		t.Errorf("chapter map missing header: %q", string(data))
	}
}

func TestScaffoldIsIdempotent(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	if err := Scaffold(root, &buf); err != nil {
		t.Fatal(err)
	}

	// A user-edited file must survive a second run.
	custom := "Subject,PDF_File,Chapter,Start_Page,End_Page\nPhysics,vol1.pdf,Kinematics,10,42\n"
	mapPath := filepath.Join(root, ChapterMapFile)
	if err := os.WriteFile(mapPath, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Scaffold(root, &buf); err != nil {
		t.Fatalf("second Scaffold: %v", err)
	}

	data, _ := os.ReadFile(mapPath)
	if string(data) != custom {
		t.Errorf("second run overwrote chapter map: %q", string(data))
	}
}

func TestRestructureArchivesTopicMap(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	if err := Scaffold(root, &buf); err != nil {
		t.Fatal(err)
	}

	if err := Restructure(root, alwaysYes, &buf); err != nil {
		t.Fatalf("Restructure: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, TopicMapFile)); !os.IsNotExist(err) {
		t.Errorf("topic_map.csv should be gone, got err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(root, TopicMapFile+".bak")); err != nil {
		t.Errorf("topic_map.csv.bak should exist: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, ChapterMapFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("chapter map should have exactly header + comment, got %d lines", len(lines))
	}
	if lines[0] != "Subject,PDF_File,Chapter,Start_Page,End_Page" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "#") {
		t.Errorf("second line should be a comment: %q", lines[1])
	}
}

func TestRestructureFailsWithoutTopicMap(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config"), 0o755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Restructure(root, alwaysYes, &buf); err == nil {
		t.Fatal("expected error when topic_map.csv is absent")
	}
}

func TestRestructureLegacyScript(t *testing.T) {
	tests := []struct {
		name     string
		confirm  func(string) bool
		wantKept bool
	}{
		{"confirmed delete", alwaysYes, false},
		{"declined delete", alwaysNo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			var buf bytes.Buffer
			if err := Scaffold(root, &buf); err != nil {
				t.Fatal(err)
			}
			legacy := filepath.Join(root, LegacyScript)
			if err := os.WriteFile(legacy, []byte("#!/bin/bash\n"), 0o755); err != nil {
				t.Fatal(err)
			}

			if err := Restructure(root, tt.confirm, &buf); err != nil {
				t.Fatal(err)
			}

			_, err := os.Stat(legacy)
			if tt.wantKept && err != nil {
				t.Errorf("legacy script should be kept: %v", err)
			}
			if !tt.wantKept && !os.IsNotExist(err) {
				t.Errorf("legacy script should be deleted, got err=%v", err)
			}
		})
	}
}

func TestLoadChapterMap(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{
			name:    "template is empty",
			content: chapterMapTemplate,
			want:    0,
		},
		{
			name: "rows with complete ranges",
			content: "Subject,PDF_File,Chapter,Start_Page,End_Page\n" +
				"Physics,vol1.pdf,Kinematics,10,42\n" +
				"Maths,algebra.pdf,Quadratics,5,30\n",
			want: 2,
		},
		{
			name: "incomplete ranges dropped",
			content: "Subject,PDF_File,Chapter,Start_Page,End_Page\n" +
				"Physics,vol1.pdf,Kinematics,,\n" +
				"Maths,algebra.pdf,Quadratics,5,30\n",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "chapter_map.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			chapters, err := LoadChapterMap(path)
			if err != nil {
				t.Fatalf("LoadChapterMap: %v", err)
			}
			if len(chapters) != tt.want {
				t.Errorf("got %d chapters, want %d", len(chapters), tt.want)
			}
		})
	}
}

func TestLoadTopics(t *testing.T) {
	content := "JEE_Topic,Target_Format\n" +
		"Rotational Mechanics,AP Physics 1\n" +
		"# Disabled Topic,AP Physics 1\n" +
		"Thermodynamics,AP Physics 2\n"
	path := filepath.Join(t.TempDir(), "topic_map.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	topics, err := LoadTopics(path)
	if err != nil {
		t.Fatalf("LoadTopics: %v", err)
	}
	want := []string{"Rotational Mechanics", "Thermodynamics"}
	if len(topics) != len(want) {
		t.Fatalf("got %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topic %d: got %q, want %q", i, topics[i], want[i])
		}
	}
}
