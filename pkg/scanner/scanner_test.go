package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corvida/augur/pkg/config"
	"github.com/corvida/augur/pkg/syntax/tsparse"
	"github.com/corvida/augur/pkg/testutil"
)

func relSet(t *testing.T, root string, files []string) map[string]bool {
	t.Helper()
	set := make(map[string]bool, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			t.Fatalf("rel %s: %v", f, err)
		}
		set[filepath.ToSlash(rel)] = true
	}
	return set
}

func TestNew(t *testing.T) {
	s := New(nil)
	if s == nil {
		t.Fatal("New(nil) returned nil")
	}
	if s.config == nil {
		t.Error("nil config should fall back to defaults")
	}

	cfg := config.DefaultConfig()
	if New(cfg).config != cfg {
		t.Error("explicit config should be kept")
	}
}

func TestScanDir(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"app.ts":            "const x = 1;\n",
		"ui/view.tsx":       "export const V = () => null;\n",
		"lib/util.js":       "module.exports = {};\n",
		"lib/legacy.mjs":    "export default 1;\n",
		"scripts/deploy.sh": "#!/bin/sh\n",
		"README.md":         "# readme\n",
		"main.go":           "package main\n",
	})

	files, err := New(nil).ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	found := relSet(t, dir, files)
	want := []string{"app.ts", "ui/view.tsx", "lib/util.js", "lib/legacy.mjs"}
	if len(files) != len(want) {
		t.Errorf("ScanDir() found %d files, want %d: %v", len(files), len(want), files)
	}
	for _, name := range want {
		if !found[name] {
			t.Errorf("missing %s", name)
		}
	}
}

func TestScanDirExcludesDirectories(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"src/app.ts":                "const x = 1;\n",
		"node_modules/react/i.js":   "module.exports = {};\n",
		"dist/bundle.js":            "var a;\n",
		"coverage/lcov-report/x.js": "var b;\n",
	})

	files, err := New(nil).ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("ScanDir() found %d files, want 1: %v", len(files), files)
	}
	if rel := relSet(t, dir, files); !rel["src/app.ts"] {
		t.Errorf("expected src/app.ts, got %v", files)
	}
}

func TestScanDirExcludesPatterns(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"app.ts":         "const x = 1;\n",
		"vendor.min.js":  "var v;\n",
		"button.spec.ts": "it('renders', () => {});\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = []string{"*.min.js", "*.spec.ts"}

	files, err := New(cfg).ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(files) != 1 || !relSet(t, dir, files)["app.ts"] {
		t.Errorf("ScanDir() = %v, want only app.ts", files)
	}
}

func TestScanDirWithGitignore(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"main.ts":         "const x = 1;\n",
		"skipme/skip.ts":  "const y = 2;\n",
		"src/app.ts":      "const z = 3;\n",
		".gitignore":      "skipme/\n",
		".git/objects/.x": "",
	})

	files, err := New(nil).ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	found := relSet(t, dir, files)
	if !found["main.ts"] || !found["src/app.ts"] {
		t.Errorf("expected main.ts and src/app.ts, got %v", files)
	}
	if found["skipme/skip.ts"] {
		t.Error("gitignored skipme/skip.ts should be excluded")
	}
}

func TestScanDirGitignoreDisabled(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"skipme/skip.ts":  "const y = 2;\n",
		".gitignore":      "skipme/\n",
		".git/objects/.x": "",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false

	files, err := New(cfg).ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if !relSet(t, dir, files)["skipme/skip.ts"] {
		t.Errorf("with gitignore disabled skipme/skip.ts should be found, got %v", files)
	}
}

func TestScanDirGitignoreNeedsRepository(t *testing.T) {
	// Without a .git directory the .gitignore file has no effect.
	dir := testutil.WriteTree(t, map[string]string{
		"skipme/skip.ts": "const y = 2;\n",
		".gitignore":     "skipme/\n",
	})

	files, err := New(nil).ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if !relSet(t, dir, files)["skipme/skip.ts"] {
		t.Errorf("outside a repository skipme/skip.ts should be found, got %v", files)
	}
}

func TestScanDirSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(base, "outside")
	root := filepath.Join(base, "root")
	for _, d := range []string{outside, root} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(outside, "secret.ts"), []byte("const s = 1;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "app.ts"), []byte("const a = 1;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.ts"), filepath.Join(root, "link.ts")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, err := New(nil).ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(files) != 1 || !relSet(t, root, files)["app.ts"] {
		t.Errorf("escaping symlink should be skipped, got %v", files)
	}
}

func TestScanDirEmptyDirectory(t *testing.T) {
	files, err := New(nil).ScanDir(t.TempDir())
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("ScanDir() on empty dir returned %v", files)
	}
}

func TestScanDirMissingRoot(t *testing.T) {
	if _, err := New(nil).ScanDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("ScanDir() should fail for a missing root")
	}
}

func TestScanAll(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"a.ts":     "const a = 1;\n",
		"sub/b.ts": "const b = 2;\n",
	})
	single := filepath.Join(dir, "a.ts")

	// Overlapping roots must not produce duplicates.
	files, err := New(nil).ScanAll(dir, dir, single)
	if err != nil {
		t.Fatalf("ScanAll() error: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("ScanAll() = %v, want 2 unique files", files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("ScanAll() output not sorted: %v", files)
		}
	}
}

func TestScanAllMissingRoot(t *testing.T) {
	if _, err := New(nil).ScanAll(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("ScanAll() should fail for a missing root")
	}
}

func TestScanFile(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"app.ts":        "const x = 1;\n",
		"README.md":     "# readme\n",
		"vendor.min.js": "var v;\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = []string{"*.min.js"}
	s := New(cfg)

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "app.ts"), true},
		{filepath.Join(dir, "README.md"), false},
		{filepath.Join(dir, "vendor.min.js"), false},
		{dir, false},
	}
	for _, tt := range tests {
		got, err := s.ScanFile(tt.path)
		if err != nil {
			t.Fatalf("ScanFile(%s) error: %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("ScanFile(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if _, err := s.ScanFile(filepath.Join(dir, "absent.ts")); err == nil {
		t.Error("ScanFile() should fail for a missing file")
	}
}

func TestFilterByLanguage(t *testing.T) {
	files := []string{"a.ts", "b.ts", "c.tsx", "d.js", "e.md"}
	s := New(nil)

	if got := s.FilterByLanguage(files, tsparse.LangTypeScript); len(got) != 2 {
		t.Errorf("FilterByLanguage(typescript) = %v, want 2 files", got)
	}
	if got := s.FilterByLanguage(files, tsparse.LangTSX); len(got) != 1 {
		t.Errorf("FilterByLanguage(tsx) = %v, want 1 file", got)
	}
	if got := s.FilterByLanguage(nil, tsparse.LangTypeScript); got != nil {
		t.Errorf("FilterByLanguage(nil) = %v, want nil", got)
	}
}

func TestGroupByLanguage(t *testing.T) {
	groups := New(nil).GroupByLanguage([]string{"a.ts", "b.tsx", "c.js", "d.mjs", "e.md"})

	if len(groups[tsparse.LangTypeScript]) != 1 {
		t.Errorf("typescript group = %v", groups[tsparse.LangTypeScript])
	}
	if len(groups[tsparse.LangTSX]) != 1 {
		t.Errorf("tsx group = %v", groups[tsparse.LangTSX])
	}
	if len(groups[tsparse.LangJavaScript]) != 2 {
		t.Errorf("javascript group = %v", groups[tsparse.LangJavaScript])
	}
	if _, ok := groups[tsparse.LangUnknown]; ok {
		t.Error("unsupported files should not be grouped")
	}
}

func TestFilterBySize(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"small.ts": "x\n",
		"big.ts":   string(make([]byte, 4096)),
	})
	small := filepath.Join(dir, "small.ts")
	big := filepath.Join(dir, "big.ts")

	kept, skipped := FilterBySize([]string{small, big}, 1024)
	if skipped != 1 || len(kept) != 1 || kept[0] != small {
		t.Errorf("FilterBySize() = %v skipped %d, want only small.ts skipped 1", kept, skipped)
	}

	kept, skipped = FilterBySize([]string{small, big}, 0)
	if skipped != 0 || len(kept) != 2 {
		t.Errorf("FilterBySize(0) should keep everything, got %v skipped %d", kept, skipped)
	}

	kept, skipped = FilterBySize([]string{filepath.Join(dir, "absent.ts")}, 1024)
	if skipped != 1 || len(kept) != 0 {
		t.Errorf("unreadable files should be skipped, got %v skipped %d", kept, skipped)
	}
}
