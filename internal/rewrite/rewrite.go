// Package rewrite implements the prepare rewriter (C4): it produces the
// "probe text" sent to the server's prepare facility and the "template
// text" consumed by code generation, from one statement's raw tokens.
package rewrite

import (
	"strings"

	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

// Result is the outcome of rewriting one statement.
type Result struct {
	ProbeText    string
	TemplateText string

	// PreparedName is the name captured from a `PREPARE name AS ...` form,
	// if present.
	PreparedName    string
	HasPreparedName bool

	// ArgTypeNames are the declared argument type names from
	// `PREPARE name (type1, type2) AS ...`, in order. Empty when the
	// PREPARE form declared no argument list (the server then infers
	// $1, $2, ... itself).
	ArgTypeNames []string
}

// Rewrite reconstructs the probe and template text for a statement's
// tokens. templates maps a registered `@xtemplate` name to its example
// text (see the directive package); names absent from the map are left as
// `:name` in the probe text, which the server will reject - surfaced to
// the caller as a diagnostic rather than silently dropped.
func Rewrite(tokens []sqldocument.Unparsed, templates map[string]string) Result {
	body, result := elidePrepare(tokens)

	var probe, tmpl strings.Builder
	for i, tok := range body {
		if i == len(body)-1 && tok.Type == sqldocument.SemicolonToken {
			continue // drop a single trailing top-level semicolon
		}
		if tok.Type == sqldocument.PlaceholderToken {
			name := strings.TrimPrefix(tok.RawValue, ":")
			if example, ok := templates[name]; ok {
				probe.WriteByte(' ')
				probe.WriteString(example)
			} else {
				probe.WriteString(tok.RawValue)
			}
			tmpl.WriteString(":__tmpl_" + name)
			continue
		}
		probe.WriteString(tok.RawValue)
		tmpl.WriteString(tok.RawValue)
	}

	result.ProbeText = probe.String()
	result.TemplateText = tmpl.String()
	return result
}

// elidePrepare strips a leading `PREPARE name [(type, ...)] AS` prefix (if
// present) from tokens, returning the remaining body tokens and whatever
// metadata the prefix declared. If no top-level AS is found after PREPARE,
// the input is returned unmodified: better to probe the whole (possibly
// malformed) statement than to silently drop text we didn't understand.
func elidePrepare(tokens []sqldocument.Unparsed) ([]sqldocument.Unparsed, Result) {
	i := skipTrivia(tokens, 0)
	if i >= len(tokens) || !isReservedWord(tokens[i], "prepare") {
		return tokens, Result{}
	}

	var result Result
	j := skipTrivia(tokens, i+1)
	if j >= len(tokens) || !isIdentLike(tokens[j]) {
		return tokens, Result{}
	}
	result.PreparedName = tokens[j].RawValue
	result.HasPreparedName = true

	k := skipTrivia(tokens, j+1)
	if k < len(tokens) && tokens[k].Type == sqldocument.LeftParenToken {
		depth := 1
		k++
		var current strings.Builder
	paren:
		for k < len(tokens) {
			tok := tokens[k]
			switch tok.Type {
			case sqldocument.LeftParenToken:
				depth++
			case sqldocument.RightParenToken:
				depth--
				if depth == 0 {
					k++
					break paren
				}
			case sqldocument.CommaToken:
				if depth == 1 {
					if s := strings.TrimSpace(current.String()); s != "" {
						result.ArgTypeNames = append(result.ArgTypeNames, s)
					}
					current.Reset()
					k++
					continue paren
				}
			case sqldocument.WhitespaceToken:
				k++
				continue paren
			}
			current.WriteString(tok.RawValue)
			k++
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			result.ArgTypeNames = append(result.ArgTypeNames, s)
		}
	}

	m := skipTrivia(tokens, k)
	if m >= len(tokens) || !isReservedWord(tokens[m], "as") {
		return tokens, Result{}
	}

	rest := skipTrivia(tokens, m+1)
	return tokens[rest:], result
}

func skipTrivia(tokens []sqldocument.Unparsed, from int) int {
	i := from
	for i < len(tokens) {
		switch tokens[i].Type {
		case sqldocument.WhitespaceToken, sqldocument.MultilineCommentToken, sqldocument.SinglelineCommentToken:
			i++
			continue
		}
		break
	}
	return i
}

func isReservedWord(tok sqldocument.Unparsed, word string) bool {
	return tok.Type == sqldocument.ReservedWordToken && strings.EqualFold(tok.RawValue, word)
}

func isIdentLike(tok sqldocument.Unparsed) bool {
	return tok.Type == sqldocument.UnquotedIdentifierToken || tok.Type == sqldocument.QuotedIdentifierToken
}
