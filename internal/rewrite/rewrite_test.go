package rewrite_test

import (
	"fmt"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vippsas/piqued/internal/rewrite"
	"github.com/vippsas/piqued/sqlparser/pgsql"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

func tokenize(t *testing.T, sql string) []sqldocument.Unparsed {
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

func TestRewrite_PreparedWithTemplate(t *testing.T) {
	sql := "PREPARE test AS\n  SELECT uid FROM person WHERE uid IN :uids OR $1;"
	tokens := tokenize(t, sql)

	result := rewrite.Rewrite(tokens, map[string]string{"uids": "(uuid_generate_v4())"})

	assert.True(t, result.HasPreparedName)
	assert.Equal(t, "test", result.PreparedName)
	assert.Empty(t, result.ArgTypeNames)
	assert.Contains(t, result.ProbeText, "IN  (uuid_generate_v4()) OR $1")
	assert.Contains(t, result.TemplateText, "IN :__tmpl_uids OR $1")
}

func TestRewrite_UnregisteredPlaceholderLeftAlone(t *testing.T) {
	tokens := tokenize(t, "SELECT * FROM person WHERE uid = :missing")
	result := rewrite.Rewrite(tokens, nil)
	assert.Contains(t, result.ProbeText, ":missing")
	assert.Contains(t, result.TemplateText, ":__tmpl_missing")
}

func TestRewrite_DeclaredArgTypes(t *testing.T) {
	tokens := tokenize(t, "PREPARE findUser (text, int4) AS SELECT 1")
	result := rewrite.Rewrite(tokens, nil)
	assert.Equal(t, []string{"text", "int4"}, result.ArgTypeNames)
}

// A template example can be any literal text the directive author wrote,
// including a concrete generated value rather than a function call - this
// exercises the substitution path with a fixture value instead of an
// expression.
func TestRewrite_GeneratedUUIDTemplateExample(t *testing.T) {
	id, err := uuid.NewV4()
	assert.NoError(t, err)
	example := fmt.Sprintf("'%s'", id.String())

	tokens := tokenize(t, "SELECT * FROM person WHERE uid = :uid")
	result := rewrite.Rewrite(tokens, map[string]string{"uid": example})

	assert.Contains(t, result.ProbeText, example)
	assert.Contains(t, result.TemplateText, ":__tmpl_uid")
}
