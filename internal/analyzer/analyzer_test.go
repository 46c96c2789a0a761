package analyzer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/analyzer"
	"github.com/vippsas/piqued/internal/schema"
	"github.com/vippsas/piqued/internal/splitter"
)

func cacheWithPersonTable() *schema.Cache {
	return &schema.Cache{
		Tables: map[string][]schema.Column{
			"person":   {{Name: "uid", TypeName: "uuid"}, {Name: "name", TypeName: "text"}},
			"practice": {{Name: "id", TypeName: "int4"}},
		},
		CustomTypesByOID:  map[uint32]schema.CustomType{},
		CustomTypesByName: map[string]schema.CustomType{},
	}
}

// Mirrors spec.md §8 scenario 6: completion after `SELECT |` with two
// FROM entries, one aliased, scopes columns as alias.column because more
// than one table is in scope.
func TestComplete_ColumnsScopedByAliasWhenMultipleTables(t *testing.T) {
	ws := analyzer.NewWorkspace(nil, cacheWithPersonTable(), "public")
	ws.PatchFile("q.sql", "SELECT  FROM person, practice p")

	items := ws.Complete("q.sql", splitter.Position{Line: 0, Character: 7})

	labels := map[string]bool{}
	for _, it := range items {
		labels[it.Label] = true
	}
	assert.True(t, labels["person"], "expected alias completion for person")
	assert.True(t, labels["p"], "expected alias completion for practice's alias p")
	assert.True(t, labels["person.uid"])
	assert.True(t, labels["p.id"])
}

func TestComplete_TableContextListsAllTables(t *testing.T) {
	ws := analyzer.NewWorkspace(nil, cacheWithPersonTable(), "public")
	ws.PatchFile("q.sql", "SELECT * FROM ")

	items := ws.Complete("q.sql", splitter.Position{Line: 0, Character: 14})

	var names []string
	for _, it := range items {
		names = append(names, it.Label)
	}
	assert.Contains(t, names, "person")
	assert.Contains(t, names, "practice")
}

// Mirrors spec.md §8 scenario 1: hovering inside `SELECT * FROM "user"`
// resolves to the table when the cursor is over a recognizable table
// node; here it resolves to a query-level hover since the cursor sits
// in the SELECT list, not over the table name.
func TestHover_FallsBackToQueryNameOutsideTableNode(t *testing.T) {
	ws := analyzer.NewWorkspace(nil, cacheWithPersonTable(), "public")
	ws.PatchFile("q.sql", "-- @name find_person\nSELECT * FROM person;")

	hover, ok := ws.Hover(context.Background(), "q.sql", splitter.Position{Line: 1, Character: 8})
	require.True(t, ok)
	assert.Contains(t, hover.Contents, "find_person")
}

func TestHover_UnknownDocumentReturnsFalse(t *testing.T) {
	ws := analyzer.NewWorkspace(nil, cacheWithPersonTable(), "public")
	_, ok := ws.Hover(context.Background(), "missing.sql", splitter.Position{})
	assert.False(t, ok)
}

// Mirrors spec.md §8 scenario 3 wired through the full naming
// resolution: a bare `PREPARE test AS ...` with no `-- @name` directive
// falls back to the captured PREPARE name, not the positional
// `query_<index>` default.
func TestHover_FallsBackToPreparedNameWhenNoNameDirective(t *testing.T) {
	ws := analyzer.NewWorkspace(nil, cacheWithPersonTable(), "public")
	ws.PatchFile("q.sql", "PREPARE test AS\n  SELECT uid FROM person WHERE uid IN :uids OR $1;")

	hover, ok := ws.Hover(context.Background(), "q.sql", splitter.Position{Line: 0, Character: 2})
	require.True(t, ok)
	assert.Equal(t, "query test", hover.Contents)
}
