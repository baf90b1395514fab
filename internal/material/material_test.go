// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package material

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "merges hyphenated line breaks",
			in:   "the accel-\neration of the particle",
			want: "the acceleration of the particle",
		},
		{
			name: "collapses blank lines",
			in:   "first paragraph\n\n\nsecond paragraph",
			want: "first paragraph\nsecond paragraph",
		},
		{
			name: "strips bare page numbers",
			in:   "question text\n42\nmore text",
			want: "question text\n\nmore text",
		},
		{
			name: "trims surrounding whitespace",
			in:   "  \n body \n ",
			want: "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.docx", "readme.txt", "image.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"a.PDF", "b.pdf", "notes.docx"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListMissingDirectory(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLoadUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
