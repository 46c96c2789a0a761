package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vippsas/piqued/internal/schema"
)

func TestResolveTypeName_PrefersCustomTypeByName(t *testing.T) {
	cache := &schema.Cache{
		CustomTypesByName: map[string]schema.CustomType{
			"mood": {Kind: schema.CustomEnum, OID: 12345, Name: "mood", Values: []string{"sad", "ok", "happy"}},
		},
	}

	ct := cache.ResolveTypeName("mood")
	assert.Equal(t, uint32(12345), ct.OID)
	assert.Equal(t, schema.CustomEnum, ct.Kind)
}

// Open Question (DESIGN.md #4): an unrecognized type name falls back to a
// synthetic, zero-OID catalog entry rather than an error.
func TestResolveTypeName_FallsBackToSyntheticType(t *testing.T) {
	cache := &schema.Cache{CustomTypesByName: map[string]schema.CustomType{}}

	ct := cache.ResolveTypeName("not_a_real_type")
	assert.Equal(t, "not_a_real_type", ct.Name)
	assert.Equal(t, uint32(0), ct.OID)
}

func TestIsWellKnownTypeName(t *testing.T) {
	assert.True(t, schema.IsWellKnownTypeName("uuid"))
	assert.True(t, schema.IsWellKnownTypeName("text"))
	assert.False(t, schema.IsWellKnownTypeName("mood"))
}
