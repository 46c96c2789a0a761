// Package locator implements the cursor locator (C6): given a parsed
// forest and a cursor position, it finds the innermost-to-outermost stack
// of nodes containing that position, plus a "lateral context" classifying
// what kind of name the cursor is about to type.
package locator

import (
	"sort"
	"strings"

	"github.com/vippsas/piqued/internal/forest"
	"github.com/vippsas/piqued/internal/splitter"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

// Context classifies what the cursor is likely naming.
type Context int

const (
	ContextNone Context = iota
	ContextColumnExpression
	ContextTableExpression
	ContextKeyword
)

// Result is the outcome of locating a cursor position in a document.
type Result struct {
	// Stack holds the forest nodes containing the cursor, innermost first.
	// Empty when the cursor falls outside every top-level node (e.g. an
	// empty document, or past the end of all statements).
	Stack []forest.Node

	Context Context

	// Prefix is the literal text typed since the last whitespace boundary,
	// used to filter completion candidates.
	Prefix string

	// TokenIndex is the index of the token the cursor resolved to.
	TokenIndex int
}

var columnContextWords = map[string]bool{
	"select": true, "values": true, "where": true, "group": true,
	"having": true, "order": true, "limit": true, "offset": true,
	"set": true, "on": true,
}

var tableContextWords = map[string]bool{
	"from": true, "join": true, "update": true, "into": true,
}

var keywordContextWords = map[string]bool{
	"insert": true, "inner": true, "outer": true, "left": true, "delete": true,
}

// Locate resolves pos against tokens (the full token stream including
// trivia, in source order) and nodes (the top-level forest produced by
// forest.Parse over the same tokens).
func Locate(tokens []sqldocument.Unparsed, nodes []forest.Node, pos splitter.Position) Result {
	idx := tokenIndexAt(tokens, pos)
	result := Result{TokenIndex: idx, Context: deriveContext(tokens, idx)}
	result.Prefix = prefixAt(tokens, pos, idx)

	if idx < 0 {
		return result
	}

	var stack []forest.Node
	cur := findTopLevel(nodes, idx)
	for cur != nil {
		stack = append(stack, cur)
		cur = findChildContaining(cur, idx)
	}
	// stack was built outermost-first; reverse for innermost-first.
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	result.Stack = stack
	return result
}

// tokenIndexAt returns the index of the largest token whose start position
// is <= pos, via a prefix-sum-style binary search over token positions, or
// -1 if pos precedes every token.
func tokenIndexAt(tokens []sqldocument.Unparsed, pos splitter.Position) int {
	i := sort.Search(len(tokens), func(i int) bool {
		return comparePos(tokenPos(tokens[i]), pos) > 0
	})
	return i - 1
}

func tokenPos(tok sqldocument.Unparsed) splitter.Position {
	return splitter.Position{Line: tok.Start.Line - 1, Character: tok.Start.Col - 1}
}

// comparePos returns <0, 0, >0 as a compares before, equal to, after b.
func comparePos(a, b splitter.Position) int {
	if a.Line != b.Line {
		return a.Line - b.Line
	}
	return a.Character - b.Character
}

func findTopLevel(nodes []forest.Node, idx int) forest.Node {
	for _, n := range nodes {
		start, end := n.Span()
		if idx >= start && idx < end {
			return n
		}
	}
	return nil
}

func findChildContaining(n forest.Node, idx int) forest.Node {
	for _, c := range n.Children() {
		if c == nil {
			continue
		}
		start, end := c.Span()
		if idx >= start && idx < end {
			return c
		}
	}
	return nil
}

// deriveContext scans tokens left of idx for the nearest clause-opening
// keyword and classifies the lateral context it establishes.
func deriveContext(tokens []sqldocument.Unparsed, idx int) Context {
	if idx < 0 {
		return ContextNone
	}
	for i := idx; i >= 0; i-- {
		tok := tokens[i]
		if tok.Type != sqldocument.ReservedWordToken {
			continue
		}
		word := strings.ToLower(tok.RawValue)
		switch {
		case columnContextWords[word]:
			return ContextColumnExpression
		case tableContextWords[word]:
			return ContextTableExpression
		case keywordContextWords[word]:
			return ContextKeyword
		}
	}
	return ContextNone
}

// prefixAt extracts the identifier-ish text typed since the last
// whitespace boundary, up to pos, for use as a completion filter.
func prefixAt(tokens []sqldocument.Unparsed, pos splitter.Position, idx int) string {
	if idx < 0 || idx >= len(tokens) {
		return ""
	}
	tok := tokens[idx]
	switch tok.Type {
	case sqldocument.UnquotedIdentifierToken, sqldocument.QuotedIdentifierToken, sqldocument.ReservedWordToken:
	default:
		return ""
	}
	if tok.Start.Line-1 != pos.Line {
		return ""
	}
	offset := pos.Character - (tok.Start.Col - 1)
	if offset <= 0 {
		return ""
	}
	if offset > len(tok.RawValue) {
		offset = len(tok.RawValue)
	}
	return tok.RawValue[:offset]
}
