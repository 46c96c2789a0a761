package directive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/directive"
	"github.com/vippsas/piqued/sqlparser/pgsql"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

func preambleTokens(t *testing.T, sql string) []sqldocument.Unparsed {
	t.Helper()
	s := pgsql.NewScanner("test.sql", sql)
	var tokens []sqldocument.Unparsed
	for {
		tt := s.NextToken()
		if tt == sqldocument.EOFToken {
			break
		}
		tokens = append(tokens, sqldocument.CreateUnparsed(s))
	}
	return tokens
}

func TestParse_NameParamsTemplate(t *testing.T) {
	sql := "-- @name test\n-- @params userId orgId\n-- @xtemplate uids (uuid_generate_v4())\n"
	d := directive.Parse(preambleTokens(t, sql), 3)

	assert.Equal(t, "test", d.Name)
	require.True(t, d.HasParams)
	assert.Equal(t, []string{"userId", "orgId"}, d.Params)
	require.Len(t, d.Templates, 1)
	assert.Equal(t, "uids", d.Templates[0].Name)
	assert.Equal(t, "(uuid_generate_v4())", d.Templates[0].Example)
}

func TestParse_FallbackName(t *testing.T) {
	d := directive.Parse(preambleTokens(t, "-- just a comment\n"), 5)
	assert.Equal(t, "query_5", d.Name)
	assert.False(t, d.HasName)
}
