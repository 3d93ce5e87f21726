package synonym

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveToCanonical(t *testing.T) {
	r := NewResolver("")

	t.Run("alias resolves", func(t *testing.T) {
		assert.Equal(t, "plátano", r.ResolveToCanonical("banana"))
		assert.Equal(t, "frijoles", r.ResolveToCanonical("porotos"))
	})

	t.Run("case and diacritic insensitive", func(t *testing.T) {
		assert.Equal(t, "plátano", r.ResolveToCanonical("PLATANO"))
		assert.Equal(t, "atún", r.ResolveToCanonical("atun"))
	})

	t.Run("canonical name maps to itself", func(t *testing.T) {
		assert.Equal(t, "pollo", r.ResolveToCanonical("pollo"))
	})

	t.Run("first matching row wins", func(t *testing.T) {
		// "pan blanco" is an alias of "pan", listed before "pan integral".
		assert.Equal(t, "pan", r.ResolveToCanonical("pan blanco"))
	})

	t.Run("unknown term passes through", func(t *testing.T) {
		assert.Equal(t, "chilaquiles verdes", r.ResolveToCanonical("chilaquiles verdes"))
	})

	t.Run("empty term passes through", func(t *testing.T) {
		assert.Equal(t, "", r.ResolveToCanonical(""))
	})
}

func TestNewResolverOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.json")
	err := os.WriteFile(path, []byte(`[{"canonical": "tamal", "aliases": ["tamales", "hallaca"]}]`), 0o644)
	require.NoError(t, err)

	r := NewResolver(path)
	assert.Equal(t, "tamal", r.ResolveToCanonical("hallaca"))
	// Embedded table is replaced, not merged.
	assert.Equal(t, "banana", r.ResolveToCanonical("banana"))
}

func TestNewResolverDegradedTable(t *testing.T) {
	t.Run("unreadable path falls back to embedded table", func(t *testing.T) {
		r := NewResolver(filepath.Join(t.TempDir(), "missing.json"))
		assert.Equal(t, "plátano", r.ResolveToCanonical("banana"))
	})

	t.Run("corrupt table degrades to pass-through", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "synonyms.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		r := NewResolver(path)
		assert.Equal(t, "banana", r.ResolveToCanonical("banana"))
	})
}
