package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() Document {
	return Document{Devices: []Device{
		{Name: "dev1", Class: "BPM", Accelerator: "LHC", Properties: []Property{
			{Name: "Setting", Fields: []string{"gain", "offset"}},
			{Name: "Acquisition", Fields: []string{"value", "timestamp"}},
		}},
		{Name: "dev2", Class: "BLM", Accelerator: "SPS", Properties: []Property{
			{Name: "prop2", Fields: []string{"field2"}},
		}},
		{Name: "dev20", Class: "BLM", Accelerator: "SPS"},
		{Name: "magnet", Class: "PC", Accelerator: "LHC", Properties: []Property{
			{Name: "Current"},
		}},
	}}
}

func TestDeviceNodeSortsChildren(t *testing.T) {
	n := testDocument().Devices[0].Node()
	require.Len(t, n.Children, 2)
	assert.Equal(t, "Acquisition", n.Children[0].Name)
	assert.Equal(t, []string{"timestamp", "value"}, Batch(n.Children[0].Children).Names())
	assert.Equal(t, []string{"gain", "offset"}, Batch(n.Children[1].Children).Names())
}

func TestCatalogSearch(t *testing.T) {
	cat, err := NewCatalog(testDocument(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())

	tests := []struct {
		query string
		want  []string
	}{
		{"dev", []string{"dev1", "dev2", "dev20"}},
		{"dev2", []string{"dev2", "dev20"}},
		{"mag", []string{"magnet"}},
		{"DEV", nil},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			pages, first, err := cat.Search(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Nil(t, pages)
			require.NotNil(t, first)
			if tt.want == nil {
				assert.Empty(t, first)
				return
			}
			assert.Equal(t, tt.want, first.Names())
		})
	}
}

func TestCatalogSearchPaginates(t *testing.T) {
	cat, err := NewCatalog(testDocument(), Options{PageSize: 2})
	require.NoError(t, err)

	ctx := context.Background()
	pages, first, err := cat.Search(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev1", "dev2"}, first.Names())
	require.NotNil(t, pages)

	next, err := pages.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev20", "magnet"}, next.Names())

	_, err = pages.Next(ctx)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestCatalogSearchWithFilter(t *testing.T) {
	cat, err := NewCatalog(testDocument(), Options{Filter: `device.accelerator == "LHC"`})
	require.NoError(t, err)

	_, first, err := cat.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev1", "magnet"}, first.Names())
}

func TestCatalogFilterOverProperties(t *testing.T) {
	cat, err := NewCatalog(testDocument(), Options{Filter: `device.properties.exists(p, "field2" in p.fields)`})
	require.NoError(t, err)

	_, first, err := cat.Search(context.Background(), "dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev2"}, first.Names())
}

func TestNewCatalogRejectsBadFilter(t *testing.T) {
	_, err := NewCatalog(testDocument(), Options{Filter: "device.class =="})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestCatalogSearchCancelled(t *testing.T) {
	cat, err := NewCatalog(testDocument(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = cat.Search(ctx, "dev")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"catalog.yaml": `devices:
  - name: dev2
    class: BLM
    properties:
      - name: prop2
        fields: [field2]
`,
		"catalog.json": `{"devices":[{"name":"dev2","properties":[{"name":"prop2","fields":["field2"]}]}]}`,
		"catalog.toml": `[[devices]]
name = "dev2"

[[devices.properties]]
name = "prop2"
fields = ["field2"]
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			cat, err := LoadCatalog(path, Options{})
			require.NoError(t, err)

			_, first, err := cat.Search(context.Background(), "dev2")
			require.NoError(t, err)
			require.Len(t, first, 1)
			assert.Equal(t, "prop2", first[0].Children[0].Name)
			assert.Equal(t, "field2", first[0].Children[0].Children[0].Name)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}
