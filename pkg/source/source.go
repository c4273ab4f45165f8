// Package source abstracts where analyzed file content comes from: the
// working tree on disk, or a committed tree in a git repository.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotFound is returned when a path does not exist in the source.
var ErrNotFound = errors.New("file not found in source")

// ContentSource provides file bytes for analysis. Implementations must be
// safe for concurrent reads; analyzers read from many goroutines.
type ContentSource interface {
	ReadFile(path string) ([]byte, error)
}

// Filesystem reads files from the working tree. Relative paths are resolved
// against Root when it is set.
type Filesystem struct {
	Root string
}

// NewFilesystem creates a filesystem source rooted at root.
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{Root: root}
}

// ReadFile reads a file from disk.
func (f *Filesystem) ReadFile(path string) ([]byte, error) {
	if f.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

// Tree reads files from a committed git tree, letting analyses run against
// any revision without touching the working copy.
type Tree struct {
	tree *object.Tree
	rev  string
}

// NewTree opens the repository at repoPath and resolves rev (a branch, tag,
// or commit-ish) to its root tree.
func NewTree(repoPath, rev string) (*Tree, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", repoPath, err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading tree for %s: %w", hash, err)
	}
	return &Tree{tree: tree, rev: rev}, nil
}

// Rev returns the revision this source was resolved from.
func (t *Tree) Rev() string {
	return t.rev
}

// ReadFile reads a blob from the tree. Paths are slash-separated and
// relative to the repository root.
func (t *Tree) ReadFile(path string) ([]byte, error) {
	file, err := t.tree.File(filepath.ToSlash(path))
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return []byte(content), nil
}

// Files lists every path in the tree.
func (t *Tree) Files() ([]string, error) {
	var paths []string
	err := t.tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tree files: %w", err)
	}
	return paths, nil
}
