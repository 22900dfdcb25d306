package foundation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store/memstore"
)

const yamlPack = `
name: medical-base
version: "1.0"
rules:
  - s: "(contraindicated/P ibuprofen/C diabetes/C)"
    attrs:
      layer: foundation
      mandatory: "true"
  - s: "(recommended/P exercise/C diabetes/C)"
    attrs:
      layer: foundation
      confidence: "0.8"
facts:
  - s: "(is_a/P metformin/C antidiabetic/C)"
    attrs:
      layer: foundation
`

const jsonPack = `{
  "name": "medical-base",
  "rules": [
    {"s": "(contraindicated/P aspirin/C ulcer/C)", "attrs": {"layer": "foundation", "mandatory": "true"}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLPack(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	result, err := LoadFile(ctx, s, writeFile(t, "pack.yaml", yamlPack), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)
	assert.Empty(t, result.Errors)

	ok, err := s.Exists(ctx, edge.MustParse("(contraindicated/P ibuprofen/C diabetes/C)"))
	require.NoError(t, err)
	assert.True(t, ok)

	attrs, ok, err := s.Attributes(ctx, edge.MustParse("(recommended/P exercise/C diabetes/C)"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.8", attrs["confidence"])
}

func TestLoadJSONPack(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	result, err := LoadFile(ctx, s, writeFile(t, "pack.json", jsonPack), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
}

func TestReloadCountsUpdates(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	path := writeFile(t, "pack.yaml", yamlPack)

	_, err := LoadFile(ctx, s, path, nil)
	require.NoError(t, err)

	second, err := LoadFile(ctx, s, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Updated)
}

func TestBulkAddCapturesPerEntryErrors(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	entries := []Entry{
		{S: "(ok/P a/C b/C)"},
		{S: "(broken/P a/C"},
		{},
	}
	result, err := BulkAdd(ctx, s, entries, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Len(t, result.Errors, 2)
}

func TestBulkAddSkipsWithoutUpsert(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	entries := []Entry{{S: "(ok/P a/C b/C)"}}
	_, err := BulkAdd(ctx, s, entries, true)
	require.NoError(t, err)

	result, err := BulkAdd(ctx, s, entries, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Updated)
}

func TestLoadMalformedPack(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	_, err := LoadFile(ctx, s, writeFile(t, "bad.yaml", ":\tnot yaml"), nil)
	assert.Error(t, err)
}
