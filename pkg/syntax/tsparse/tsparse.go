// Package tsparse parses TypeScript and JavaScript sources with tree-sitter
// and converts the concrete syntax trees into the syntax.Node contract.
package tsparse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/corvida/augur/pkg/syntax"
)

// ErrUnsupportedLanguage is returned when a file's extension maps to no grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrFileTooLarge is returned by ParseFileWithLimit for oversized files.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Language identifies a supported grammar.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangUnknown    Language = "unknown"
)

// Result contains one parsed file.
type Result struct {
	Path     string
	Language Language
	Source   []byte
	Root     *syntax.Node
}

// Parser wraps a tree-sitter parser for TypeScript/TSX/JavaScript sources.
// A Parser is not safe for concurrent use; create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// New creates a parser instance.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Close releases parser resources.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return p.Parse(source, DetectLanguage(path), path)
}

// ParseFileWithLimit parses a file unless it exceeds maxSize bytes.
func (p *Parser) ParseFileWithLimit(path string, maxSize int64) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrFileTooLarge)
	}
	return p.ParseFile(path)
}

// Parse parses source bytes with the grammar for lang.
func (p *Parser) Parse(source []byte, lang Language, path string) (*Result, error) {
	grammar, err := grammarFor(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(grammar)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	return &Result{
		Path:     path,
		Language: lang,
		Source:   source,
		Root:     Convert(tree.RootNode(), source),
	}, nil
}

// grammarFor returns the tree-sitter grammar for a language.
func grammarFor(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx":
		// The tsx grammar is a superset that handles plain JSX.
		return LangTSX
	default:
		return LangUnknown
	}
}

// Supported reports whether the path maps to a known grammar.
func Supported(path string) bool {
	return DetectLanguage(path) != LangUnknown
}

// Convert maps a tree-sitter subtree onto the syntax.Node contract.
// Only named nodes are kept. Nodes whose byte spans fall outside the source
// are dropped along with their subtrees rather than failing the file.
// Conversion uses an explicit stack, so tree depth is bounded by memory.
func Convert(root *sitter.Node, source []byte) *syntax.Node {
	if root == nil {
		return nil
	}

	type frame struct {
		node   *sitter.Node
		parent *syntax.Node
	}

	out := newNode(root, source)
	if out == nil {
		return nil
	}

	stack := make([]frame, 0, 64)
	pushChildren := func(n *sitter.Node, parent *syntax.Node) {
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.NamedChild(i), parent: parent})
		}
	}
	pushChildren(root, out)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		converted := newNode(f.node, source)
		if converted == nil {
			continue
		}
		f.parent.Children = append(f.parent.Children, converted)
		pushChildren(f.node, converted)
	}

	return out
}

// newNode converts a single tree-sitter node, or returns nil for malformed spans.
func newNode(n *sitter.Node, source []byte) *syntax.Node {
	if n == nil {
		return nil
	}
	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint32(len(source)) {
		return nil
	}

	out := &syntax.Node{
		Kind:  mapKind(n.Type(), source[start:end]),
		Start: start,
		End:   end,
	}

	switch out.Kind {
	case syntax.KindIdentifier, syntax.KindPropertyIdentifier,
		syntax.KindTypeIdentifier, syntax.KindPredefinedType:
		out.Name = string(source[start:end])
	case syntax.KindString, syntax.KindStringFragment, syntax.KindNumber,
		syntax.KindRegex, syntax.KindTemplateString, syntax.KindComment:
		out.Value = string(source[start:end])
	case syntax.KindFunctionDecl, syntax.KindFunctionExpr, syntax.KindClassDecl,
		syntax.KindInterfaceDecl, syntax.KindTypeAliasDecl, syntax.KindEnumDecl,
		syntax.KindMethodDefinition, syntax.KindVariableDeclarator:
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			ns, ne := nameNode.StartByte(), nameNode.EndByte()
			if ns <= ne && ne <= uint32(len(source)) {
				out.Name = string(source[ns:ne])
			}
		}
	}

	return out
}

// mapKind translates a grammar node type into a contract kind. Unlisted
// grammar types pass through verbatim so traversals see the full structure.
func mapKind(nodeType string, text []byte) syntax.Kind {
	switch nodeType {
	case "predefined_type":
		switch string(text) {
		case "any":
			return syntax.KindAnyType
		case "unknown":
			return syntax.KindUnknownType
		}
		return syntax.KindPredefinedType
	case "function", "function_expression":
		return syntax.KindFunctionExpr
	default:
		return syntax.Kind(nodeType)
	}
}

// Text extracts the source text for a node, bounds-checked.
func Text(n *syntax.Node, source []byte) string {
	if n == nil || n.Start > n.End || n.End > uint32(len(source)) {
		return ""
	}
	return string(source[n.Start:n.End])
}

// Line returns the 1-based line number of a byte offset.
func Line(source []byte, offset uint32) uint32 {
	if offset > uint32(len(source)) {
		offset = uint32(len(source))
	}
	line := uint32(1)
	for _, b := range source[:offset] {
		if b == '\n' {
			line++
		}
	}
	return line
}
