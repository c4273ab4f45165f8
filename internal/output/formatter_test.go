package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter(FormatJSON, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if f.Format() != FormatJSON {
		t.Errorf("Format() = %q, want json", f.Format())
	}
	if !f.Colored() {
		t.Error("Colored() = false, want true")
	}
	if f.file != nil {
		t.Error("file should be nil for stdout")
	}
	if f.Writer() == nil {
		t.Error("Writer() should not be nil")
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if f.Colored() {
		t.Error("file output must disable color")
	}

	if err := f.Output(map[string]int{"files": 3}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"files": 3`) {
		t.Errorf("file content = %q, want JSON with files", data)
	}
}

func TestOutputRawJSON(t *testing.T) {
	f := &Formatter{format: FormatJSON, writer: &bytes.Buffer{}}
	buf := f.writer.(*bytes.Buffer)

	payload := struct {
		Count int `json:"count"`
	}{42}
	if err := f.Output(payload); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["count"] != 42 {
		t.Errorf("count = %d, want 42", decoded["count"])
	}
}

func TestOutputRawTOON(t *testing.T) {
	f := &Formatter{format: FormatTOON, writer: &bytes.Buffer{}}
	buf := f.writer.(*bytes.Buffer)

	payload := struct {
		Files int `json:"files" toon:"files"`
	}{3}
	if err := f.Output(payload); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "files") || !strings.Contains(out, "3") {
		t.Errorf("toon output = %q, want files and 3", out)
	}
}

func TestOutputRawMarkdownWrapsJSON(t *testing.T) {
	f := &Formatter{format: FormatMarkdown, writer: &bytes.Buffer{}}
	buf := f.writer.(*bytes.Buffer)

	if err := f.Output(map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "```json") || !strings.Contains(out, `"k": "v"`) {
		t.Errorf("markdown raw output = %q", out)
	}
}

func TestTableRenderText(t *testing.T) {
	table := NewTable("Dependency Hotspots",
		[]string{"Module", "Rank"},
		[][]string{
			{"src/core.ts", "0.41"},
			{"src/util.ts", "0.18"},
		},
		[]string{"Total", "2"},
		nil,
	)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Dependency Hotspots", "src/core.ts", "0.41", "src/util.ts"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, strings.Repeat("=", len("Dependency Hotspots"))) {
		t.Error("title should be underlined")
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Cycles", []string{"Members", "Size"}, [][]string{{"a, b", "2"}}, nil, nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "## Cycles") {
		t.Error("missing markdown title")
	}
	if !strings.Contains(out, "| Members | Size |") {
		t.Errorf("missing header row:\n%s", out)
	}
	if !strings.Contains(out, "| --- | --- |") {
		t.Error("missing separator row")
	}
	if !strings.Contains(out, "| a, b | 2 |") {
		t.Error("missing data row")
	}
}

func TestTableRenderData(t *testing.T) {
	table := NewTable("", []string{"Path", "Rank"}, [][]string{{"a.ts", "0.5"}}, nil, nil)

	rows, ok := table.RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() = %T, want []map[string]string", table.RenderData())
	}
	if rows[0]["Path"] != "a.ts" || rows[0]["Rank"] != "0.5" {
		t.Errorf("RenderData() = %v", rows)
	}

	typed := struct{ N int }{1}
	table.Data = typed
	if table.RenderData() != any(typed) {
		t.Error("RenderData() should pass through explicit data")
	}
}

func TestSectionRenderText(t *testing.T) {
	section := &Section{
		Title:   "Phase 1",
		Content: "2 modules",
		Sections: []Section{
			{Title: "Modules", Content: "a.ts, b.ts"},
		},
	}

	var buf bytes.Buffer
	if err := section.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Phase 1\n=======") {
		t.Errorf("top-level title should use = underline:\n%s", out)
	}
	if !strings.Contains(out, "Modules\n-------") {
		t.Errorf("nested title should use - underline:\n%s", out)
	}
	if !strings.Contains(out, "a.ts, b.ts") {
		t.Error("missing nested content")
	}
}

func TestSectionRenderMarkdown(t *testing.T) {
	section := &Section{
		Title:    "Plan",
		Sections: []Section{{Title: "Phase 1", Content: "a.ts"}},
	}

	var buf bytes.Buffer
	if err := section.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "## Plan") || !strings.Contains(out, "### Phase 1") {
		t.Errorf("markdown nesting wrong:\n%s", out)
	}
}

func TestReportRender(t *testing.T) {
	report := &Report{
		Title: "Analysis",
		Sections: []Renderable{
			&Section{Title: "Summary", Content: "3 issues"},
			NewTable("Issues", []string{"Kind"}, [][]string{{"console"}}, nil, nil),
		},
	}

	var text bytes.Buffer
	if err := report.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	for _, want := range []string{"Analysis", "3 issues", "console"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text missing %q", want)
		}
	}

	var md bytes.Buffer
	if err := report.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(md.String(), "# Analysis") {
		t.Error("markdown missing top-level title")
	}

	data, ok := report.RenderData().(map[string]any)
	if !ok {
		t.Fatalf("RenderData() = %T", report.RenderData())
	}
	if data["title"] != "Analysis" {
		t.Errorf("data title = %v", data["title"])
	}
	if parts, ok := data["sections"].([]any); !ok || len(parts) != 2 {
		t.Errorf("data sections = %v", data["sections"])
	}
}

func TestFormatterRendersRenderable(t *testing.T) {
	table := NewTable("T", []string{"A"}, [][]string{{"x"}}, nil, map[string]string{"a": "x"})

	for _, format := range []Format{FormatText, FormatJSON, FormatMarkdown, FormatTOON} {
		var buf bytes.Buffer
		f := &Formatter{format: format, writer: &buf}
		if err := f.Output(table); err != nil {
			t.Fatalf("Output(%s) error: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Output(%s) wrote nothing", format)
		}
	}
}

func TestRiskColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	for _, level := range []string{"critical", "high", "medium", "low", "unknown", ""} {
		if got := RiskColor(level, "module"); got != "module" {
			t.Errorf("RiskColor(%s) with color disabled = %q, want plain text", level, got)
		}
	}
}
