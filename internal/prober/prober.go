// Package prober implements the type prober (C8): it submits a rewritten
// statement to the server's prepare facility and reads back parameter and
// column types.
package prober

import (
	"context"
	"time"

	"github.com/vippsas/piqued/internal/dbadapter"
	"github.com/vippsas/piqued/internal/schema"
)

// DefaultTimeout is the per-probe deadline (§5): long enough for a normal
// query plan, short enough that a pathological statement doesn't stall the
// editor.
const DefaultTimeout = 5 * time.Second

// QueryTypingResult is the server-authoritative type description of one
// statement, in the order the server returned it.
type QueryTypingResult struct {
	ArgTypeNames   []string
	ColumnNames    []string
	ColumnTypes    []string
}

// Probe resolves argTypeNames via cache, sends probeText to db's prepare
// facility with the resolved OIDs, and reads back the typing result.
func Probe(ctx context.Context, db dbadapter.DbClient, cache *schema.Cache, probeText string, argTypeNames []string) (QueryTypingResult, *ProbeError) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	argOIDs := make([]uint32, len(argTypeNames))
	for i, name := range argTypeNames {
		argOIDs[i] = cache.ResolveTypeName(name).OID
	}

	sd, err := db.PrepareTyped(ctx, probeText, argOIDs)
	if err != nil {
		return QueryTypingResult{}, classifyError(err)
	}

	result := QueryTypingResult{
		ArgTypeNames: make([]string, len(sd.ParamOIDs)),
		ColumnNames:  make([]string, len(sd.Fields)),
		ColumnTypes:  make([]string, len(sd.Fields)),
	}
	for i, oid := range sd.ParamOIDs {
		result.ArgTypeNames[i] = typeNameForOID(cache, oid)
	}
	for i, f := range sd.Fields {
		result.ColumnNames[i] = string(f.Name)
		result.ColumnTypes[i] = typeNameForOID(cache, f.DataTypeOID)
	}
	return result, nil
}

func typeNameForOID(cache *schema.Cache, oid uint32) string {
	if ct, ok := cache.CustomTypesByOID[oid]; ok {
		return ct.Name
	}
	if name, ok := builtinOIDNames[oid]; ok {
		return name
	}
	return ""
}

// builtinOIDNames covers the well-known scalar OIDs the schema cache
// doesn't itself load (those live in pg_type under pg_catalog, which the
// cache doesn't materialize row-by-row for every builtin - see
// schema.IsWellKnownTypeName for the name-based half of this mapping).
var builtinOIDNames = map[uint32]string{
	16: "bool", 17: "bytea", 18: "char", 19: "name", 20: "int8", 21: "int2",
	23: "int4", 25: "text", 114: "json", 700: "float4", 701: "float8",
	1042: "bpchar", 1043: "varchar", 1082: "date", 1083: "time",
	1114: "timestamp", 1184: "timestamptz", 1186: "interval", 1700: "numeric",
	2950: "uuid", 3802: "jsonb",
}
