package splitter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/splitter"
	"github.com/vippsas/piqued/sqlparser/pgsql"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

func tokenize(sql string) []sqldocument.Unparsed {
	s := pgsql.NewScanner("test.sql", sql)
	var tokens []sqldocument.Unparsed
	for {
		tt := s.NextToken()
		tokens = append(tokens, sqldocument.CreateUnparsed(s))
		if tt == sqldocument.EOFToken {
			break
		}
	}
	return tokens
}

func TestSplit_EmptyFileYieldsZeroStatements(t *testing.T) {
	stmts := splitter.Split(tokenize(""))
	assert.Empty(t, stmts)
}

func TestSplit_TwoStatementsOnTopLevelSemicolon(t *testing.T) {
	stmts := splitter.Split(tokenize("SELECT 1; SELECT 2;"))
	require.Len(t, stmts, 2)
	assert.Equal(t, 0, stmts[0].Index)
	assert.Equal(t, 1, stmts[1].Index)
}

func TestSplit_PreambleCapturesLeadingComment(t *testing.T) {
	stmts := splitter.Split(tokenize("-- @name find_person\nSELECT * FROM person;"))
	require.Len(t, stmts, 1)
	require.NotEmpty(t, stmts[0].Preamble)
	assert.Equal(t, sqldocument.SinglelineCommentToken, stmts[0].Preamble[0].Type)
}

// A semicolon embedded in a string literal must not split the statement;
// C1 already absorbed it into the literal token before C2 ever sees it.
func TestSplit_SemicolonInsideStringIsNotABoundary(t *testing.T) {
	stmts := splitter.Split(tokenize(`SELECT ';' FROM t;`))
	require.Len(t, stmts, 1)
}
