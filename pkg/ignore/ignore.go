// Package ignore provides gitignore-based file filtering for directory walks using go-git
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the mindbender-specific ignore file read from a walk root and from the mindbender home.
const FileName = ".mindbenderignore"

// Matcher answers ignore questions for paths beneath one root directory.
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher with layered ignore files:
// 1. .gitignore files beneath root and .git/info/exclude
// 2. .mindbenderignore at root
// 3. .mindbenderignore in home, when home is not empty
//
// Later layers win, so a "!pattern" in .mindbenderignore re-includes a gitignored file.
func NewMatcher(root, home string) (*Matcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	patterns := []gitignore.Pattern{gitignore.ParsePattern(".git/", nil)}

	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(abs), nil); err == nil {
		patterns = append(patterns, gitPatterns...)
	}
	if local, err := readIgnoreFile(filepath.Join(abs, FileName)); err == nil {
		patterns = append(patterns, local...)
	}
	if home != "" {
		if user, err := readIgnoreFile(filepath.Join(home, FileName)); err == nil {
			patterns = append(patterns, user...)
		}
	}

	return &Matcher{root: abs, matcher: gitignore.NewMatcher(patterns)}, nil
}

// readIgnoreFile parses a gitignore-syntax file.
func readIgnoreFile(path string) ([]gitignore.Pattern, error) {
	content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- fixed file name under a chosen directory
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, nil
}

// IsIgnored reports whether a file should be skipped. Paths outside the root are never ignored.
func (m *Matcher) IsIgnored(path string) bool {
	return m.match(path, false)
}

// IsIgnoredDir reports whether a directory (and so everything below it) should be skipped.
func (m *Matcher) IsIgnoredDir(path string) bool {
	return m.match(path, true)
}

func (m *Matcher) match(path string, isDir bool) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	parts := splitPath(filepath.ToSlash(rel))
	if len(parts) == 0 {
		return false
	}
	// A file below an ignored directory is ignored too.
	for i := 1; i < len(parts); i++ {
		if m.matcher.Match(parts[:i], true) {
			return true
		}
	}
	return m.matcher.Match(parts, isDir)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
