// Package schema implements the schema cache (C7): tables, composite
// types, and enums pulled from the catalog once per workspace connection.
package schema

import (
	"context"
	"fmt"

	"github.com/vippsas/piqued/internal/dbadapter"
)

// Column describes one column of a cached table.
type Column struct {
	Name     string
	TypeName string
	TypeOID  uint32
	Nullable bool
}

// CustomTypeKind distinguishes the two catalog type shapes the cache
// tracks.
type CustomTypeKind int

const (
	CustomComposite CustomTypeKind = iota
	CustomEnum
)

// CustomType is the tagged union CustomType = Composite | Enum.
type CustomType struct {
	Kind   CustomTypeKind
	OID    uint32
	Name   string
	Fields []Column // Composite only
	Values []string // Enum only, ordered
}

// Cache holds the three maps built on connect. Invariant: the two
// custom-type maps agree pointwise on identity (every custom type appears
// in both, under its OID and under its name).
type Cache struct {
	Tables            map[string][]Column
	CustomTypesByOID  map[uint32]CustomType
	CustomTypesByName map[string]CustomType
}

// wellKnownTypes lists a handful of common built-in type names, as reported
// by IsWellKnownTypeName. ResolveTypeName does not consult it.
var wellKnownTypes = map[string]bool{
	"int4": true, "int8": true, "text": true, "bool": true, "float4": true,
	"float8": true, "numeric": true, "date": true, "time": true,
	"timestamp": true, "timestamptz": true, "interval": true, "uuid": true,
	"json": true, "jsonb": true, "bytea": true, "varchar": true, "char": true,
}

// Load builds a fresh Cache by querying information_schema.columns and
// pg_type/pg_enum/pg_attribute/pg_namespace, filtered to schemaName plus
// pg_catalog.
func Load(ctx context.Context, db dbadapter.DbClient, schemaName string) (*Cache, error) {
	c := &Cache{
		Tables:            map[string][]Column{},
		CustomTypesByOID:  map[uint32]CustomType{},
		CustomTypesByName: map[string]CustomType{},
	}

	if err := c.loadTables(ctx, db, schemaName); err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}
	if err := c.loadEnums(ctx, db, schemaName); err != nil {
		return nil, fmt.Errorf("loading enums: %w", err)
	}
	if err := c.loadComposites(ctx, db, schemaName); err != nil {
		return nil, fmt.Errorf("loading composite types: %w", err)
	}
	return c, nil
}

const tablesQuery = `
select table_name, column_name, udt_name, is_nullable = 'YES'
from information_schema.columns
where table_schema = $1
order by table_name, ordinal_position`

func (c *Cache) loadTables(ctx context.Context, db dbadapter.DbClient, schemaName string) error {
	rows, err := db.Query(ctx, tablesQuery, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var table, column, typeName string
		var nullable bool
		if err := rows.Scan(&table, &column, &typeName, &nullable); err != nil {
			return err
		}
		c.Tables[table] = append(c.Tables[table], Column{Name: column, TypeName: typeName, Nullable: nullable})
	}
	return rows.Err()
}

const enumsQuery = `
select t.oid, t.typname, e.enumlabel
from pg_type t
join pg_enum e on e.enumtypid = t.oid
join pg_namespace n on n.oid = t.typnamespace
where n.nspname in ($1, 'pg_catalog')
order by t.typname, e.enumsortorder`

func (c *Cache) loadEnums(ctx context.Context, db dbadapter.DbClient, schemaName string) error {
	rows, err := db.Query(ctx, enumsQuery, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	byOID := map[uint32]*CustomType{}
	var order []uint32
	for rows.Next() {
		var oid uint32
		var typeName, label string
		if err := rows.Scan(&oid, &typeName, &label); err != nil {
			return err
		}
		ct, ok := byOID[oid]
		if !ok {
			ct = &CustomType{Kind: CustomEnum, OID: oid, Name: typeName}
			byOID[oid] = ct
			order = append(order, oid)
		}
		ct.Values = append(ct.Values, label)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, oid := range order {
		ct := *byOID[oid]
		c.CustomTypesByOID[ct.OID] = ct
		c.CustomTypesByName[ct.Name] = ct
	}
	return nil
}

const compositesQuery = `
select t.oid, t.typname, a.attname, a.atttypid::regtype::text, not a.attnotnull
from pg_type t
join pg_class c on c.oid = t.typrelid
join pg_attribute a on a.attrelid = c.oid and a.attnum > 0 and not a.attisdropped
join pg_namespace n on n.oid = t.typnamespace
where t.typtype = 'c' and n.nspname in ($1, 'pg_catalog')
order by t.typname, a.attnum`

func (c *Cache) loadComposites(ctx context.Context, db dbadapter.DbClient, schemaName string) error {
	rows, err := db.Query(ctx, compositesQuery, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	byOID := map[uint32]*CustomType{}
	var order []uint32
	for rows.Next() {
		var oid uint32
		var typeName, fieldName, fieldType string
		var nullable bool
		if err := rows.Scan(&oid, &typeName, &fieldName, &fieldType, &nullable); err != nil {
			return err
		}
		ct, ok := byOID[oid]
		if !ok {
			ct = &CustomType{Kind: CustomComposite, OID: oid, Name: typeName}
			byOID[oid] = ct
			order = append(order, oid)
		}
		ct.Fields = append(ct.Fields, Column{Name: fieldName, TypeName: fieldType, Nullable: nullable})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, oid := range order {
		ct := *byOID[oid]
		c.CustomTypesByOID[ct.OID] = ct
		c.CustomTypesByName[ct.Name] = ct
	}
	return nil
}

// ResolveTypeName maps a type name (as it appears in a PREPARE argument
// list, e.g. from the rewrite package) to a CustomType. Custom types are
// consulted first; any other name, well-known built-ins included, falls
// back to a synthetic entry with OID 0 built from the literal name, which
// the server will often still accept. Well-known names are not mapped to
// their built-in OIDs here.
func (c *Cache) ResolveTypeName(name string) CustomType {
	if ct, ok := c.CustomTypesByName[name]; ok {
		return ct
	}
	// Falls through for both well-known built-ins and anything else: a
	// synthetic pg_catalog type built from the literal name, which the
	// server will usually still accept as an argument type.
	return CustomType{Kind: CustomComposite, Name: name}
}

// IsWellKnownTypeName reports whether name is one of the common built-in
// type names listed in wellKnownTypes.
func IsWellKnownTypeName(name string) bool {
	return wellKnownTypes[name]
}
