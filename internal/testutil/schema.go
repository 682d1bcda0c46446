// Package testutil provides shared fixtures for tests: a small but complete
// schema, declaration builders and log capture helpers.
package testutil

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/neodes/internal/registry"
	"github.com/vk/neodes/internal/schema"
)

//go:embed testdata
var testdata embed.FS

// SchemaVersion is the version of the fixture schema.
const SchemaVersion = "T25V01"

// SchemaFile is the fixture schema path inside the embedded testdata.
const SchemaFile = "testdata/norm-" + SchemaVersion + ".yaml"

// Schema loads the fixture schema merged with every built-in extension set.
func Schema(t testing.TB) *schema.Model {
	t.Helper()
	reg := registry.New(registry.WithFS(testdata))
	m, err := reg.Load(context.Background(), SchemaFile, registry.DefaultExtensions...)
	require.NoError(t, err)
	return m
}

// SchemaBytes returns the raw fixture schema.
func SchemaBytes(t testing.TB) []byte {
	t.Helper()
	data, err := testdata.ReadFile(SchemaFile)
	require.NoError(t, err)
	return data
}

// WriteSchema copies the fixture schema into dir under its canonical
// norm-<version>.yaml name and returns the path.
func WriteSchema(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "norm-"+SchemaVersion+".yaml")
	require.NoError(t, os.WriteFile(path, SchemaBytes(t), 0o644))
	return path
}
