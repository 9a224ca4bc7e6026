package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanUserPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		hasError bool
	}{
		{name: "simple path", input: "file.json", expected: "file.json"},
		{name: "relative path", input: "./assets/hero/file.json", expected: "assets/hero/file.json"},
		{name: "absolute path", input: "/tmp/file.json", expected: "/tmp/file.json"},
		{name: "path with traversal", input: "../../../etc/passwd", hasError: true},
		{name: "path with traversal in middle", input: "valid/../../../etc/passwd", hasError: true},
		{name: "collapsed traversal", input: "a/b/../c.json", expected: "a/c.json"},
		{name: "double dots inside a name", input: "model..v001.json", expected: "model..v001.json"},
		{name: "empty path", input: "", expected: "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanUserPath(tt.input)
			if tt.hasError {
				if !errors.Is(err, ErrTraversal) {
					t.Fatalf("CleanUserPath(%q) error = %v, want ErrTraversal", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanUserPath(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("CleanUserPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestReadFileLimited(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")
	if err := os.WriteFile(path, []byte(`{"version":1}`), 0o600); err != nil {
		t.Fatal(err)
	}

	data, clean, err := ReadFileLimited(path, 1024)
	if err != nil {
		t.Fatalf("ReadFileLimited() failed: %v", err)
	}
	if string(data) != `{"version":1}` {
		t.Errorf("unexpected content %q", data)
	}
	if clean != filepath.ToSlash(path) {
		t.Errorf("clean path = %q", clean)
	}

	if _, _, err := ReadFileLimited(path, 4); err == nil || !strings.Contains(err.Error(), "exceeds max size") {
		t.Errorf("expected size error, got %v", err)
	}
	if _, _, err := ReadFileLimited(dir, 0); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Errorf("expected directory error, got %v", err)
	}
	if _, _, err := ReadFileLimited(filepath.Join(dir, "missing.json"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestContained(t *testing.T) {
	base := t.TempDir()
	if !Contained(base, filepath.Join(base, "assets", "hero")) {
		t.Error("expected child path to be contained")
	}
	if !Contained(base, base) {
		t.Error("expected base to contain itself")
	}
	if Contained(base, filepath.Dir(base)) {
		t.Error("expected parent path to be outside")
	}
	if Contained(base, filepath.Join(base, "..", "elsewhere")) {
		t.Error("expected sibling path to be outside")
	}
}
