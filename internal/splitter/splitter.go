// Package splitter partitions a tokenized document into top-level
// statements, computing each one's byte range, line/character range, and
// leading-comment preamble.
package splitter

import (
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

// Position is a zero-based line/character pair, matching LSP convention.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) position range.
type Range struct {
	Start, End Position
}

// Statement is a contiguous, non-overlapping region of the document
// corresponding to one top-level statement (delimited by a top-level `;`).
type Statement struct {
	Index       int
	ByteStart   int
	ByteEnd     int
	Range       Range
	Tokens      []sqldocument.Unparsed
	Preamble    []sqldocument.Unparsed
}

// Split partitions an already-scanned token slice into statements on
// top-level `;`, stopping at the first EOF token.
// Semicolons nested inside strings or identifiers are never seen here:
// they were already absorbed by the tokenizer (C1) as part of a single
// literal or identifier token.
func Split(tokens []sqldocument.Unparsed) []Statement {
	var statements []Statement
	var current []sqldocument.Unparsed

	flush := func() {
		if len(current) == 0 {
			return
		}
		if allTrivial(current) {
			current = nil
			return
		}
		stmt := buildStatement(len(statements), current)
		statements = append(statements, stmt)
		current = nil
	}

	for _, tok := range tokens {
		if tok.Type == sqldocument.EOFToken {
			break
		}
		if tok.Type == sqldocument.SemicolonToken {
			current = append(current, tok)
			flush()
			continue
		}
		current = append(current, tok)
	}
	flush()

	return statements
}

func allTrivial(tokens []sqldocument.Unparsed) bool {
	for _, tok := range tokens {
		switch tok.Type {
		case sqldocument.WhitespaceToken, sqldocument.SemicolonToken,
			sqldocument.MultilineCommentToken, sqldocument.SinglelineCommentToken:
		default:
			return false
		}
	}
	return true
}

func buildStatement(idx int, tokens []sqldocument.Unparsed) Statement {
	preambleEnd := 0
	for preambleEnd < len(tokens) {
		switch tokens[preambleEnd].Type {
		case sqldocument.WhitespaceToken, sqldocument.MultilineCommentToken, sqldocument.SinglelineCommentToken:
			preambleEnd++
			continue
		}
		break
	}

	byteStart := tokens[0].Start.Offset
	byteEnd := tokens[len(tokens)-1].Stop.Offset

	return Statement{
		Index:     idx,
		ByteStart: byteStart,
		ByteEnd:   byteEnd,
		Range: Range{
			Start: Position{Line: tokens[0].Start.Line - 1, Character: tokens[0].Start.Col - 1},
			End:   Position{Line: tokens[len(tokens)-1].Stop.Line - 1, Character: tokens[len(tokens)-1].Stop.Col - 1},
		},
		Tokens:   tokens,
		Preamble: append([]sqldocument.Unparsed{}, tokens[:preambleEnd]...),
	}
}
