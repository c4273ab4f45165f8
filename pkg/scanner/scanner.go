// Package scanner discovers the TypeScript and JavaScript files to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corvida/augur/pkg/config"
	"github.com/corvida/augur/pkg/syntax/tsparse"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Scanner finds source files under one or more roots, honoring the
// configured excludes and any .gitignore files of the enclosing repository.
type Scanner struct {
	config   *config.Config
	loaded   map[string]bool
	matchers []repoMatcher
}

// repoMatcher evaluates gitignore patterns against paths relative to the
// repository root they were read from.
type repoMatcher struct {
	root string
	m    gitignore.Matcher
}

// New creates a file scanner. A nil config uses the defaults.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg, loaded: make(map[string]bool)}
}

// findGitRoot walks upward from start looking for a .git directory.
// Returns empty string outside a repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore in the repository enclosing root.
// Each repository is loaded once per scanner.
func (s *Scanner) loadGitignore(root string) {
	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" || s.loaded[gitRoot] {
		return
	}
	s.loaded[gitRoot] = true

	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matchers = append(s.matchers, repoMatcher{root: gitRoot, m: gitignore.NewMatcher(patterns)})
}

// ignored reports whether the loaded gitignore patterns exclude absPath.
func (s *Scanner) ignored(absPath string, isDir bool) bool {
	for _, rm := range s.matchers {
		rel, err := filepath.Rel(rm.root, absPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rm.m.Match(strings.Split(rel, string(filepath.Separator)), isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively collects supported source files under root. Returned
// paths keep the root as given. Symlinks resolving outside the root are
// skipped to prevent traversal out of the scanned tree.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		absPath := filepath.Join(absRoot, relPath)
		if d.IsDir() {
			if s.config.ShouldExclude(relPath+string(filepath.Separator)) || s.ignored(absPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.config.ShouldExclude(relPath) || s.ignored(absPath, false) {
			return nil
		}
		if tsparse.Supported(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// ScanAll scans multiple roots and returns a deduplicated, sorted list.
// A root naming a supported file directly is included as-is.
func (s *Scanner) ScanAll(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	files := make([]string, 0, 1024)

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			ok, err := s.ScanFile(root)
			if err != nil {
				return nil, err
			}
			if ok && !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}

		found, err := s.ScanDir(root)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// isWithinRoot checks if a resolved path is contained within root.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Separator suffix prevents "/root2" matching "/root".
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile reports whether a single file should be analyzed. Gitignore
// patterns apply only to tree scans.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if s.config.ShouldExclude(path) {
		return false, nil
	}
	return tsparse.Supported(path), nil
}

// FilterByLanguage keeps only files of the given language.
func (s *Scanner) FilterByLanguage(files []string, lang tsparse.Language) []string {
	var filtered []string
	for _, f := range files {
		if tsparse.DetectLanguage(f) == lang {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// GroupByLanguage groups files by their detected language. Unsupported
// files are dropped.
func (s *Scanner) GroupByLanguage(files []string) map[tsparse.Language][]string {
	groups := make(map[tsparse.Language][]string)
	for _, f := range files {
		lang := tsparse.DetectLanguage(f)
		if lang != tsparse.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}

// FilterBySize drops files larger than maxSize bytes and files that cannot
// be stat'd, returning the kept list and the number dropped. A zero or
// negative maxSize keeps everything.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}
