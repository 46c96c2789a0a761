package locator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/forest"
	"github.com/vippsas/piqued/internal/locator"
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

// spec.md §8 scenario 1.
func TestLocate_BasicSelectCursor(t *testing.T) {
	sql := "\n        SELECT * FROM \"user\";\n    "
	tokens := tokenize(sql)
	nodes := forest.Parse(tokens)

	result := locator.Locate(tokens, nodes, splitter.Position{Line: 1, Character: 9})
	assert.Equal(t, locator.ContextColumnExpression, result.Context)

	require.NotEmpty(t, result.Stack)
	sq, ok := result.Stack[len(result.Stack)-1].(*forest.SelectQuery)
	require.True(t, ok, "expected outermost stack node to be a SelectQuery")
	assert.NotNil(t, sq.From)
}

// spec.md §8 scenario 2: INNER JOIN with missing ON condition.
func TestLocate_JoinWithMissingON(t *testing.T) {
	sql := "SELECT * FROM person\n    INNER JOIN practice\n    ON\n;"
	tokens := tokenize(sql)
	nodes := forest.Parse(tokens)

	// Cursor just after "ON", line 2 (0-based), right after the keyword.
	result := locator.Locate(tokens, nodes, splitter.Position{Line: 2, Character: 6})
	assert.Equal(t, locator.ContextColumnExpression, result.Context)
}
