// Package syntax defines the node-shape contract consumed by every analyzer:
// a rooted tree of typed nodes, each carrying a byte-offset span, an optional
// name or value payload, and an ordered list of owned children. Parent context
// is threaded explicitly during traversal and never stored on the node.
package syntax

// Kind discriminates node shapes. The constants below name the kinds the
// engine inspects; adapters pass any other grammar type through verbatim, so
// unrecognized kinds flow through traversals untouched.
type Kind string

const (
	KindProgram            Kind = "program"
	KindIdentifier         Kind = "identifier"
	KindPropertyIdentifier Kind = "property_identifier"
	KindTypeIdentifier     Kind = "type_identifier"
	KindCallExpression     Kind = "call_expression"
	KindMemberExpression   Kind = "member_expression"
	KindArguments          Kind = "arguments"
	KindCatchClause        Kind = "catch_clause"
	KindStatementBlock     Kind = "statement_block"
	KindReturnStatement    Kind = "return_statement"
	KindDebuggerStatement  Kind = "debugger_statement"
	KindString             Kind = "string"
	KindStringFragment     Kind = "string_fragment"
	KindTemplateString     Kind = "template_string"
	KindTemplateSub        Kind = "template_substitution"
	KindNumber             Kind = "number"
	KindRegex              Kind = "regex"
	KindAsExpression       Kind = "as_expression"
	KindNonNullExpression  Kind = "non_null_expression"
	KindAnyType            Kind = "any_type"
	KindUnknownType        Kind = "unknown_type"
	KindPredefinedType     Kind = "predefined_type"
	KindTypeAnnotation     Kind = "type_annotation"
	KindTypeArguments      Kind = "type_arguments"
	KindArrayType          Kind = "array_type"
	KindFormalParameters   Kind = "formal_parameters"
	KindRequiredParameter  Kind = "required_parameter"
	KindOptionalParameter  Kind = "optional_parameter"
	KindFunctionDecl       Kind = "function_declaration"
	KindFunctionExpr       Kind = "function_expression"
	KindArrowFunction      Kind = "arrow_function"
	KindMethodDefinition   Kind = "method_definition"
	KindClassDecl          Kind = "class_declaration"
	KindClassBody          Kind = "class_body"
	KindInterfaceDecl      Kind = "interface_declaration"
	KindTypeAliasDecl      Kind = "type_alias_declaration"
	KindEnumDecl           Kind = "enum_declaration"
	KindVariableDecl       Kind = "variable_declaration"
	KindLexicalDecl        Kind = "lexical_declaration"
	KindVariableDeclarator Kind = "variable_declarator"
	KindExportStatement    Kind = "export_statement"
	KindImportStatement    Kind = "import_statement"
	KindComment            Kind = "comment"

	// KindMaxDepth is the sentinel emitted by the normalizer when a subtree
	// exceeds the configured depth ceiling.
	KindMaxDepth Kind = "$MAX_DEPTH"
)

// Node is a single node of a parsed syntax tree. The span [Start, End) is in
// bytes of the original source. Name carries identifier payloads, Value
// carries literal text; both are empty for purely structural nodes. A node
// exclusively owns its children.
type Node struct {
	Kind     Kind
	Start    uint32
	End      uint32
	Name     string
	Value    string
	Children []*Node
}

// Valid reports whether the node's span is well-formed. Consumers skip
// invalid nodes locally instead of propagating an error.
func (n *Node) Valid() bool {
	return n != nil && n.Start <= n.End
}

// Child returns the first child of the given kind, or nil.
func (n *Node) Child(kind Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c != nil && c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildAt returns the i-th child, or nil when out of range.
func (n *Node) ChildAt(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// FirstChild returns the first non-comment child, or nil. Callee and operand
// positions are conventionally first in expression nodes.
func (n *Node) FirstChild() *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c != nil && c.Kind != KindComment {
			return c
		}
	}
	return nil
}

// Statements returns the node's children with comments filtered out.
func (n *Node) Statements() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c != nil && c.Kind != KindComment {
			out = append(out, c)
		}
	}
	return out
}

// Visitor inspects one node during traversal. Returning false prunes the
// node's subtree.
type Visitor func(n *Node) bool

// Walk traverses the tree in pre-order using an explicit work stack, so
// traversal depth is bounded by memory rather than call-stack size.
func Walk(root *Node, visit Visitor) {
	if root == nil {
		return
	}

	stack := make([]*Node, 0, 64)
	stack = append(stack, root)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}

		if !visit(n) {
			continue
		}

		// Push in reverse so children are visited left to right.
		for i := len(n.Children) - 1; i >= 0; i-- {
			if n.Children[i] != nil {
				stack = append(stack, n.Children[i])
			}
		}
	}
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	total := 0
	Walk(root, func(*Node) bool {
		total++
		return true
	})
	return total
}

// FindAll returns every node of the given kind in pre-order.
func FindAll(root *Node, kind Kind) []*Node {
	var found []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == kind {
			found = append(found, n)
		}
		return true
	})
	return found
}

// Depth returns the maximum depth of the tree, counting the root as 1.
func Depth(root *Node) int {
	if root == nil {
		return 0
	}

	type frame struct {
		node  *Node
		depth int
	}

	max := 0
	stack := []frame{{root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > max {
			max = f.depth
		}
		for _, c := range f.node.Children {
			if c != nil {
				stack = append(stack, frame{c, f.depth + 1})
			}
		}
	}
	return max
}
