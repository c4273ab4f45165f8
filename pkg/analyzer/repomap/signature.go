package repomap

import (
	"strings"

	"github.com/corvida/augur/pkg/syntax"
	"github.com/corvida/augur/pkg/syntax/tsparse"
)

// fileSymbols is one file's contribution to the map: the declarations it
// defines and the identifiers it references, counted by name.
type fileSymbols struct {
	path string
	defs []Signature
	refs map[string]int
}

// definitionKinds are the node kinds whose Name payload introduces a symbol.
// Identifier children repeating that name are bindings, not references.
var definitionKinds = map[syntax.Kind]bool{
	syntax.KindFunctionDecl:       true,
	syntax.KindFunctionExpr:       true,
	syntax.KindClassDecl:          true,
	syntax.KindInterfaceDecl:      true,
	syntax.KindTypeAliasDecl:      true,
	syntax.KindEnumDecl:           true,
	syntax.KindMethodDefinition:   true,
	syntax.KindVariableDeclarator: true,
}

// extractSymbols walks one parsed file and collects definitions and
// references. Variable declarations only count as definitions when
// exported; everything else is recorded wherever it appears.
func extractSymbols(result *tsparse.Result) fileSymbols {
	out := fileSymbols{
		path: result.Path,
		refs: make(map[string]int),
	}

	type frame struct {
		node     *syntax.Node
		parent   *syntax.Node
		exported bool
	}

	stack := []frame{{node: result.Root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		if !n.Valid() {
			continue
		}

		exported := f.exported || n.Kind == syntax.KindExportStatement

		switch n.Kind {
		case syntax.KindFunctionDecl:
			out.addDef(DefFunction, n, n, result.Source, exported)
		case syntax.KindClassDecl:
			out.addDef(DefClass, n, n, result.Source, exported)
		case syntax.KindInterfaceDecl:
			out.addDef(DefInterface, n, n, result.Source, exported)
		case syntax.KindTypeAliasDecl:
			out.addDef(DefTypeAlias, n, n, result.Source, exported)
		case syntax.KindEnumDecl:
			out.addDef(DefEnum, n, n, result.Source, exported)
		case syntax.KindMethodDefinition:
			out.addDef(DefMethod, n, n, result.Source, exported)
		case syntax.KindLexicalDecl, syntax.KindVariableDecl:
			if exported {
				for _, d := range n.Children {
					if d.Valid() && d.Kind == syntax.KindVariableDeclarator {
						out.addDef(variableType(d), n, d, result.Source, exported)
					}
				}
			}
		case syntax.KindIdentifier, syntax.KindPropertyIdentifier, syntax.KindTypeIdentifier:
			if n.Name != "" && !isBindingName(n, f.parent) {
				out.refs[n.Name]++
			}
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			if n.Children[i] != nil {
				stack = append(stack, frame{node: n.Children[i], parent: n, exported: exported})
			}
		}
	}

	return out
}

// addDef records one definition. The text comes from textNode, the name and
// line from nameNode; they differ only for variable declarators, whose
// display text is the whole declaration statement.
func (s *fileSymbols) addDef(defType string, textNode, nameNode *syntax.Node, source []byte, exported bool) {
	if nameNode.Name == "" {
		return
	}
	s.defs = append(s.defs, Signature{
		Name:       nameNode.Name,
		Line:       tsparse.Line(source, nameNode.Start),
		Type:       defType,
		IsExported: exported,
		Text:       signatureText(textNode, source),
	})
}

// isBindingName reports whether an identifier node is the name of the
// declaration that owns it rather than a reference.
func isBindingName(n, parent *syntax.Node) bool {
	return parent != nil && definitionKinds[parent.Kind] && parent.Name == n.Name
}

// variableType distinguishes function-valued declarators from plain values.
func variableType(declarator *syntax.Node) string {
	for _, c := range declarator.Children {
		if c == nil {
			continue
		}
		if c.Kind == syntax.KindArrowFunction || c.Kind == syntax.KindFunctionExpr {
			return DefFunction
		}
	}
	return DefVariable
}

// signatureText renders a declaration's header as a single trimmed line:
// up to the body for functions and classes, up to the first line break
// otherwise.
func signatureText(n *syntax.Node, source []byte) string {
	end := n.End
	if body := n.Child(syntax.KindStatementBlock); body != nil {
		end = body.Start
	} else if body := n.Child(syntax.KindClassBody); body != nil {
		end = body.Start
	} else if nl := strings.IndexByte(tsparse.Text(n, source), '\n'); nl >= 0 {
		end = n.Start + uint32(nl)
	}

	text := strings.TrimSpace(string(source[n.Start:end]))
	text = strings.TrimSuffix(text, "{")
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	return text
}
