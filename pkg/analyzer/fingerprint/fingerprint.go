// Package fingerprint turns syntax trees into stable structural hashes so
// renamed or re-literaled copies of the same code compare equal.
package fingerprint

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/corvida/augur/pkg/syntax"
	"github.com/zeebo/blake3"
)

// DefaultShingleSize is the token window used for similarity estimation.
const DefaultShingleSize = 5

// Tokenize flattens a tree into a token stream. Each node contributes its
// placeholder, value, or kind label; children are wrapped in braces so the
// stream preserves nesting. Call it on a normalized tree to get a
// rename-invariant stream.
func Tokenize(root *syntax.Node) []string {
	if root == nil {
		return nil
	}

	type frame struct {
		node  *syntax.Node
		close bool
	}

	var tokens []string
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.close {
			tokens = append(tokens, "}")
			continue
		}
		n := f.node
		if n == nil || !n.Valid() {
			continue
		}

		tokens = append(tokens, tokenOf(n))
		if len(n.Children) == 0 {
			continue
		}
		tokens = append(tokens, "{")
		stack = append(stack, frame{close: true})
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.Children[i]})
		}
	}
	return tokens
}

func tokenOf(n *syntax.Node) string {
	if n.Value != "" {
		return n.Value
	}
	if n.Name != "" {
		return n.Name
	}
	return string(n.Kind)
}

// Fingerprint computes a structural hash of the normalized tree. Trees that
// differ only in identifier names or literal values hash identically.
func Fingerprint(root *syntax.Node) uint64 {
	return xxhashJoin(Tokenize(Normalize(root)))
}

func xxhashJoin(tokens []string) uint64 {
	return xxhash.Sum64String(strings.Join(tokens, " "))
}

// Similarity estimates structural similarity of two trees as the Jaccard
// index of their shingled normalized token streams. It returns a value in
// [0, 1]; 1 means structurally identical under normalization.
func Similarity(a, b *syntax.Node) float64 {
	sa := shingleSet(Tokenize(Normalize(a)), DefaultShingleSize)
	sb := shingleSet(Tokenize(Normalize(b)), DefaultShingleSize)

	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}

	intersection := 0
	for h := range sa {
		if _, ok := sb[h]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	return float64(intersection) / float64(union)
}

// Equal reports whether two trees are structurally identical after
// normalization. It compares trees directly rather than through hashes.
func Equal(a, b *syntax.Node) bool {
	return equalTrees(Normalize(a), Normalize(b))
}

func equalTrees(a, b *syntax.Node) bool {
	type pair struct{ a, b *syntax.Node }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.a == nil || p.b == nil {
			if p.a != p.b {
				return false
			}
			continue
		}
		if p.a.Kind != p.b.Kind || p.a.Name != p.b.Name || p.a.Value != p.b.Value {
			return false
		}
		if len(p.a.Children) != len(p.b.Children) {
			return false
		}
		for i := range p.a.Children {
			stack = append(stack, pair{p.a.Children[i], p.b.Children[i]})
		}
	}
	return true
}

// shingleSet hashes every k-token window with blake3. Sequences shorter
// than k hash as a single shingle.
func shingleSet(tokens []string, k int) map[uint64]struct{} {
	if len(tokens) == 0 {
		return nil
	}

	set := make(map[uint64]struct{})
	h := blake3.New()

	if len(tokens) < k {
		for _, t := range tokens {
			h.Write([]byte(t))
		}
		sum := h.Sum(nil)
		set[binary.LittleEndian.Uint64(sum[:8])] = struct{}{}
		return set
	}

	for i := 0; i <= len(tokens)-k; i++ {
		h.Reset()
		for j := i; j < i+k; j++ {
			h.Write([]byte(tokens[j]))
		}
		sum := h.Sum(nil)
		set[binary.LittleEndian.Uint64(sum[:8])] = struct{}{}
	}
	return set
}
