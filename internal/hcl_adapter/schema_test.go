package hcl_adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/neodes/internal/schema"
)

const testSchema = `
version = "T01"

segment "S10.G00.00" {
  name = "Envoi"
  field "S10.G00.00.001" {
    name   = "NomLogiciel"
    type   = "X"
    length = 20
  }
  field "S10.G00.00.006" {
    name = "VersionNorme"
  }
}

segment "S21.G00.30" {
  name = "Individu"
  field "S21.G00.30.005" {
    name    = "Sexe"
    type    = "N"
    length  = 2
    options = { "01" = "Masculin", "02" = "Feminin" }
  }
  field "S21.G00.30.020" {
    name    = "Rang"
    options = { "1" = 1 }
  }
}

envelope {
  block "S10.G00.00" {
    min_occurs = 1
    max_occurs = 1
    block "S10.G00.01" {}
  }
}

nature "01" {
  label = "Mensuelle"
  usage = { "S21.G00.30.005" = "O", "S21.G00.30.020" = "I" }
  block "S21.G00.30" {}
}

global_usage = { "S10.G00.00.001" = "O" }
`

func TestSchemaDecoder(t *testing.T) {
	m, err := NewSchemaDecoder().Decode(context.Background(), []byte(testSchema), "test.hcl")
	require.NoError(t, err)

	assert.Equal(t, "T01", m.Version)
	require.Len(t, m.Blocks, 2)

	envoi, err := m.Block("S10.G00.00")
	require.NoError(t, err)
	assert.Equal(t, "Envoi", envoi.Name)
	assert.Equal(t, "S10.G00.00.001", envoi.FirstField())

	f, ok := envoi.Field("S10.G00.00.001")
	require.True(t, ok)
	assert.Equal(t, schema.TypeText, f.Type)
	assert.Equal(t, 20, f.MaxLength)
	assert.False(t, f.IsEnumerated())

	sexe, err := m.Field("S21.G00.30.005")
	require.NoError(t, err)
	assert.Equal(t, schema.TypeDecimal, sexe.Type)
	assert.Equal(t, map[string]string{"01": "Masculin", "02": "Feminin"}, sexe.Options)

	rang, err := m.Field("S21.G00.30.020")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "1"}, rang.Options)

	env := m.Envelope["S10.G00.00"]
	require.NotNil(t, env)
	assert.Equal(t, 1, env.MinOccurs)
	assert.Equal(t, 1, env.MaxOccurs)
	assert.True(t, env.Children.Has("S10.G00.01"))
	assert.Equal(t, schema.Unbounded, env.Children["S10.G00.01"].MaxOccurs)

	n := m.Nature("01")
	require.NotNil(t, n)
	assert.Equal(t, "Mensuelle", n.Label)
	assert.Equal(t, schema.UsageMandatory, n.Rule("S21.G00.30.005"))
	assert.Equal(t, schema.UsageForbidden, n.Rule("S21.G00.30.020"))
	assert.True(t, n.Map.Has("S21.G00.30"))
	assert.False(t, n.Map.Has("S20.G00.05"))

	assert.Equal(t, schema.UsageMandatory, m.GlobalRule("S10.G00.00.001"))
	assert.True(t, m.IsOfficialBlock("S21.G00.30"))
}

func TestSchemaDecoderErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "syntax", src: `version = `},
		{name: "missing version", src: `segment "A" { name = "a" }`},
		{name: "options not a map", src: `
version = "x"
segment "A" {
  name = "a"
  field "A.1" {
    name    = "f"
    options = ["a"]
  }
}`},
		{name: "bad usage", src: `
version = "x"
global_usage = { "A.1" = "Z" }`},
		{name: "duplicate segment", src: `
version = "x"
segment "A" { name = "a" }
segment "A" { name = "b" }`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSchemaDecoder().Decode(context.Background(), []byte(tc.src), "bad.hcl")
			require.Error(t, err)
		})
	}
}
