package fingerprint

import "github.com/corvida/augur/pkg/syntax"

// Placeholders substituted for source-specific values during normalization.
// Two fragments that differ only in names or literal content normalize to
// identical trees.
const (
	PlaceholderID  = "$ID"
	PlaceholderStr = "$STR"
	PlaceholderNum = "$NUM"
	PlaceholderRgx = "$RGX"
	PlaceholderTpl = "$TPL"
)

// DefaultMaxDepth bounds normalized tree depth. Subtrees at the cap collapse
// into a single $MAX_DEPTH sentinel node.
const DefaultMaxDepth = 50

// Normalize returns a new tree with identifiers and literal values replaced
// by placeholders and depth capped at DefaultMaxDepth. The input tree is not
// modified. Normalization is idempotent.
func Normalize(root *syntax.Node) *syntax.Node {
	return NormalizeDepth(root, DefaultMaxDepth)
}

// NormalizeDepth is Normalize with an explicit depth cap.
func NormalizeDepth(root *syntax.Node, maxDepth int) *syntax.Node {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return normalize(root, 0, maxDepth)
}

// Recursion here is bounded by maxDepth, not by input shape.
func normalize(n *syntax.Node, depth, maxDepth int) *syntax.Node {
	if n == nil || !n.Valid() {
		return nil
	}
	if depth >= maxDepth {
		return &syntax.Node{Kind: syntax.KindMaxDepth, Start: n.Start, End: n.End}
	}

	out := &syntax.Node{Kind: n.Kind, Start: n.Start, End: n.End}
	if n.Name != "" {
		out.Name = PlaceholderID
	}
	switch n.Kind {
	case syntax.KindString, syntax.KindStringFragment:
		out.Value = PlaceholderStr
	case syntax.KindNumber:
		out.Value = PlaceholderNum
	case syntax.KindRegex:
		out.Value = PlaceholderRgx
	case syntax.KindTemplateString:
		// Substitution children survive; only the raw text is masked.
		out.Value = PlaceholderTpl
	}

	for _, c := range n.Children {
		if c == nil || c.Kind == syntax.KindComment {
			continue
		}
		if nc := normalize(c, depth+1, maxDepth); nc != nil {
			out.Children = append(out.Children, nc)
		}
	}
	return out
}
