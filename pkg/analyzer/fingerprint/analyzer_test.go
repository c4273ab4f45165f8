package fingerprint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/corvida/augur/pkg/testutil"
)

func TestAnalyzerGroupsRenamedCopies(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.ts", "export function add(a: number, b: number): number { return a + b; }\n")
	b := testutil.WriteFile(t, dir, "b.ts", "export function sum(x: number, y: number): number { return x + y; }\n")
	c := testutil.WriteFile(t, dir, "c.ts", "export class Empty { ping(): string { return \"pong\"; } }\n")

	an := New()
	defer an.Close()

	analysis, err := an.Analyze(context.Background(), []string{a, b, c})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if analysis.FilesAnalyzed != 3 {
		t.Errorf("FilesAnalyzed = %d, want 3", analysis.FilesAnalyzed)
	}
	if len(analysis.Groups) != 1 {
		t.Fatalf("Groups = %d, want 1", len(analysis.Groups))
	}
	group := analysis.Groups[0]
	if len(group.Paths) != 2 {
		t.Fatalf("group size = %d, want 2", len(group.Paths))
	}
	if group.Paths[0] != a || group.Paths[1] != b {
		t.Errorf("group paths = %v, want [%s %s]", group.Paths, a, b)
	}
	if analysis.Summary.DuplicateGroups != 1 || analysis.Summary.DuplicateFiles != 2 {
		t.Errorf("summary = %+v, want 1 group of 2", analysis.Summary)
	}
}

func TestAnalyzerNoDuplicates(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		testutil.WriteFile(t, dir, "a.ts", "const a = 1;\n"),
		testutil.WriteFile(t, dir, "b.ts", "function b() { return []; }\n"),
	}

	an := New()
	defer an.Close()

	analysis, err := an.Analyze(context.Background(), files)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Groups) != 0 {
		t.Errorf("Groups = %v, want none", analysis.Groups)
	}
}

func TestAnalyzerMinTokens(t *testing.T) {
	dir := t.TempDir()
	tiny := testutil.WriteFile(t, dir, "tiny.ts", "1;\n")
	big := testutil.WriteFile(t, dir, "big.ts", "export function work(input: string): string { return input.trim().toLowerCase(); }\n")

	an := New(WithMinTokens(20))
	defer an.Close()

	analysis, err := an.Analyze(context.Background(), []string{tiny, big})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.FilesAnalyzed != 2 {
		t.Errorf("FilesAnalyzed = %d, want 2", analysis.FilesAnalyzed)
	}
	if len(analysis.Files) != 1 {
		t.Fatalf("Files = %d, want 1 after min-token filter", len(analysis.Files))
	}
	if analysis.Files[0].Path != big {
		t.Errorf("kept %s, want %s", analysis.Files[0].Path, big)
	}
}

func TestAnalyzerCountsFailures(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "good.ts", "const ok = true;\n")
	missing := filepath.Join(dir, "missing.ts")

	an := New()
	defer an.Close()

	analysis, err := an.Analyze(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.FilesAnalyzed != 1 || analysis.FilesFailed != 1 {
		t.Errorf("analyzed/failed = %d/%d, want 1/1", analysis.FilesAnalyzed, analysis.FilesFailed)
	}
}

func TestAnalyzerEmptyInput(t *testing.T) {
	an := New()
	defer an.Close()

	analysis, err := an.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Files) != 0 || len(analysis.Groups) != 0 {
		t.Errorf("empty input produced %+v", analysis)
	}
}

func TestFingerprintSource(t *testing.T) {
	an := New()
	defer an.Close()

	fp1, err := an.FingerprintSource("x.ts", []byte("const a = 1;\n"))
	if err != nil {
		t.Fatalf("FingerprintSource() error = %v", err)
	}
	fp2, err := an.FingerprintSource("y.ts", []byte("const b = 2;\n"))
	if err != nil {
		t.Fatalf("FingerprintSource() error = %v", err)
	}
	if fp1.Fingerprint != fp2.Fingerprint {
		t.Error("renamed single statements should hash identically")
	}
	if fp1.Tokens == 0 {
		t.Error("token count should be positive")
	}
}

func TestFingerprintSourceUnsupported(t *testing.T) {
	an := New()
	defer an.Close()

	if _, err := an.FingerprintSource("readme.md", []byte("# hi\n")); err == nil {
		t.Error("FingerprintSource() should reject unsupported extensions")
	}
}
