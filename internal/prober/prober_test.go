package prober_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/prober"
	"github.com/vippsas/piqued/internal/schema"
)

type stubClient struct {
	sd  *pgconn.StatementDescription
	err error
}

func (s stubClient) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("prober never calls Query")
}

func (s stubClient) PrepareTyped(ctx context.Context, sql string, argOIDs []uint32) (*pgconn.StatementDescription, error) {
	return s.sd, s.err
}

func emptyCache() *schema.Cache {
	return &schema.Cache{
		Tables:            map[string][]schema.Column{},
		CustomTypesByOID:  map[uint32]schema.CustomType{},
		CustomTypesByName: map[string]schema.CustomType{},
	}
}

// Mirrors spec.md §8 scenario 4: probing a query against a table with a
// single text column yields that column's name and type.
func TestProbe_ReturnsColumnNamesAndTypes(t *testing.T) {
	client := stubClient{sd: &pgconn.StatementDescription{
		ParamOIDs: nil,
		Fields: []pgconn.FieldDescription{
			{Name: "first_name", DataTypeOID: 25}, // text
		},
	}}

	result, probeErr := prober.Probe(context.Background(), client, emptyCache(), `SELECT first_name FROM "user"`, nil)
	require.Nil(t, probeErr)
	assert.Equal(t, []string{"first_name"}, result.ColumnNames)
	assert.Equal(t, []string{"text"}, result.ColumnTypes)
	assert.Empty(t, result.ArgTypeNames)
}

// Mirrors spec.md §8 scenario 5: a syntax error from the server is
// classified as ParseErrorAt with the near-token extracted from the
// message.
func TestProbe_ClassifiesSyntaxError(t *testing.T) {
	client := stubClient{err: &pgconn.PgError{Message: `syntax error at or near "FROM"`}}

	_, probeErr := prober.Probe(context.Background(), client, emptyCache(), "SELECT FROM company", nil)
	require.NotNil(t, probeErr)
	assert.Equal(t, prober.ErrParseErrorAt, probeErr.Kind)
	assert.Equal(t, `Error parsing query at "FROM"`, probeErr.Error())
}

func TestProbe_ClassifiesConnectionError(t *testing.T) {
	client := stubClient{err: errors.New("dial tcp: connection refused")}

	_, probeErr := prober.Probe(context.Background(), client, emptyCache(), "SELECT 1", nil)
	require.NotNil(t, probeErr)
	assert.Equal(t, prober.ErrConnectionError, probeErr.Kind)
}
