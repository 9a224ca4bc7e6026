package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned for paths that climb out of their starting point.
var ErrTraversal = errors.New("path traversal detected")

// CleanUserPath cleans a user-provided path and rejects ".." segments.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.ToSlash(filepath.Clean(p))
	for _, seg := range strings.Split(c, "/") {
		if seg == ".." {
			return "", ErrTraversal
		}
	}
	return c, nil
}

// ReadFileLimited reads a sanitized path, refusing directories and files larger than maxSize bytes.
func ReadFileLimited(p string, maxSize int64) ([]byte, string, error) {
	cleanPath, err := CleanUserPath(p)
	if err != nil {
		return nil, "", fmt.Errorf("path sanitization failed: %w", err)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, cleanPath, fmt.Errorf("failed to stat %s: %w", cleanPath, err)
	}
	if info.IsDir() {
		return nil, cleanPath, fmt.Errorf("%s is a directory", cleanPath)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, cleanPath, fmt.Errorf("file %s exceeds max size %d bytes (actual: %d)", cleanPath, maxSize, info.Size())
	}
	data, err := os.ReadFile(cleanPath) // #nosec G304 -- cleanPath sanitized with CleanUserPath
	if err != nil {
		return nil, cleanPath, fmt.Errorf("failed to read file %s: %w", cleanPath, err)
	}
	return data, cleanPath, nil
}

// Contained reports whether target resolves to a location inside baseDir.
func Contained(baseDir, target string) bool {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
