// Package testutil provides shared fixture helpers for analyzer tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/corvida/augur/pkg/source"
)

// WriteFile writes one fixture file under root, creating parent
// directories, and returns its full path.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", rel, err)
	}
	return path
}

// WriteTree writes a fixture tree keyed by relative path into a fresh temp
// directory and returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
	return root
}

// Source is an in-memory ContentSource keyed by path. It lets analyzer
// tests run without touching disk.
type Source map[string]string

var _ source.ContentSource = Source{}

// ReadFile returns the content stored for path.
func (s Source) ReadFile(path string) ([]byte, error) {
	content, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, path)
	}
	return []byte(content), nil
}

// Paths returns the stored paths in sorted order, ready to feed an
// analyzer's file list.
func (s Source) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
