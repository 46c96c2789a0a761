package forest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/forest"
	"github.com/vippsas/piqued/sqlparser/pgsql"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

func tokenize(t *testing.T, sql string) []sqldocument.Unparsed {
	t.Helper()
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

func TestParse_EmptyInput(t *testing.T) {
	nodes := forest.Parse(tokenize(t, ""))
	assert.Empty(t, nodes)
}

func TestParse_BasicSelectWildcard(t *testing.T) {
	nodes := forest.Parse(tokenize(t, `SELECT * FROM "user";`))
	require.Len(t, nodes, 1)

	query, ok := nodes[0].(*forest.SelectQuery)
	require.True(t, ok, "expected a SelectQuery, got %T", nodes[0])

	cols, ok := query.Columns.(*forest.ExpressionList)
	require.True(t, ok)
	require.Len(t, cols.Items, 1)
	colExpr, ok := cols.Items[0].(*forest.ColumnExpression)
	require.True(t, ok)
	expr, ok := colExpr.Expr.(*forest.Expression)
	require.True(t, ok)
	assert.Equal(t, forest.ExprWildcard, expr.Kind)

	require.NotNil(t, query.From)
	from, ok := query.From.(*forest.FromExpressionList)
	require.True(t, ok)
	require.Len(t, from.Items, 1)
	fromExpr, ok := from.Items[0].(*forest.FromExpression)
	require.True(t, ok)
	table, ok := fromExpr.Table.(*forest.TableLike)
	require.True(t, ok)
	assert.Equal(t, `"user"`, table.Name)
}

func TestParse_UnterminatedSelectHasNoFrom(t *testing.T) {
	nodes := forest.Parse(tokenize(t, `SELECT a, b`))
	require.Len(t, nodes, 1)
	query, ok := nodes[0].(*forest.SelectQuery)
	require.True(t, ok)
	assert.Nil(t, query.From)
	cols := query.Columns.(*forest.ExpressionList)
	assert.Len(t, cols.Items, 2)
}

func TestParse_TrailingCommaInSelectList(t *testing.T) {
	nodes := forest.Parse(tokenize(t, `SELECT a, FROM t`))
	require.Len(t, nodes, 1)
	query, ok := nodes[0].(*forest.SelectQuery)
	require.True(t, ok)
	cols := query.Columns.(*forest.ExpressionList)
	require.Len(t, cols.Items, 1)
	require.NotNil(t, query.From)
}

func TestParse_JoinWithMissingOn(t *testing.T) {
	nodes := forest.Parse(tokenize(t, "SELECT * FROM a INNER JOIN practice\n    ON\n;"))
	require.Len(t, nodes, 1)
	query, ok := nodes[0].(*forest.SelectQuery)
	require.True(t, ok)
	require.Len(t, query.Joins, 1)
	join, ok := query.Joins[0].(*forest.JoinStmt)
	require.True(t, ok)
	assert.Equal(t, forest.JoinInner, join.Kind)
	assert.Nil(t, join.Condition)
	list, ok := join.From.(*forest.FromExpressionList)
	require.True(t, ok)
	require.Len(t, list.Items, 1)
	fe := list.Items[0].(*forest.FromExpression)
	table := fe.Table.(*forest.TableLike)
	assert.Equal(t, "practice", table.Name)
}

func TestParse_MonotoneSpans(t *testing.T) {
	sql := `SELECT a, b AS c FROM foo f WHERE f.a = 1`
	tokens := tokenize(t, sql)
	nodes := forest.Parse(tokens)

	var leafCount func(n forest.Node) int
	leafCount = func(n forest.Node) int {
		children := n.Children()
		if len(children) == 0 {
			if _, ok := n.(*forest.Token); ok {
				return 1
			}
			return 1
		}
		total := 0
		for _, c := range children {
			total += leafCount(c)
		}
		return total
	}

	// Every node's span must be internally consistent and nested within its
	// parent's.
	var checkSpans func(n forest.Node)
	checkSpans = func(n forest.Node) {
		start, end := n.Span()
		assert.LessOrEqual(t, start, end)
		for _, c := range n.Children() {
			cs, ce := c.Span()
			assert.LessOrEqual(t, start, cs)
			assert.LessOrEqual(t, ce, end)
			checkSpans(c)
		}
	}
	for _, n := range nodes {
		checkSpans(n)
	}
}
