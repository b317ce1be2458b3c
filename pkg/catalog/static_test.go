package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Lookup_CanonicalAndBare(t *testing.T) {
	cat := NewDefaultStatic()
	ctx := context.Background()

	canonical, err := cat.Lookup(ctx, "pkg.httpRequest")
	require.NoError(t, err)
	require.NotNil(t, canonical)
	assert.Equal(t, 4, canonical.DefaultTypeVersion)

	bare, err := cat.Lookup(ctx, "httpRequest")
	require.NoError(t, err)
	require.NotNil(t, bare)
	assert.Equal(t, canonical.CanonicalType, bare.CanonicalType)

	// Case-insensitive.
	upper, err := cat.Lookup(ctx, "PKG.HTTPREQUEST")
	require.NoError(t, err)
	assert.NotNil(t, upper)
}

func TestStatic_Lookup_UnknownIsNilNotError(t *testing.T) {
	cat := NewDefaultStatic()

	entry, err := cat.Lookup(context.Background(), "pkg.doesNotExist")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStatic_Search(t *testing.T) {
	cat := NewDefaultStatic()
	ctx := context.Background()

	results, err := cat.Search(ctx, "trigger")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, entry := range results {
		assert.True(t, entry.IsTrigger(), "%s should be a trigger", entry.CanonicalType)
	}

	empty, err := cat.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
