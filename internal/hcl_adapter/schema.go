// This file decodes schema resources written in HCL:
//
//	version = "P25V01"
//
//	segment "S21.G00.30" {
//	  name = "Individu"
//	  field "S21.G00.30.005" {
//	    name    = "Sexe"
//	    type    = "X"
//	    length  = 2
//	    options = { "01" = "Masculin", "02" = "Feminin" }
//	  }
//	}
//
//	envelope {
//	  block "S10.G00.00" { min_occurs = 1  max_occurs = 1 }
//	  block "S20.G00.05" {}
//	}
//
//	nature "01" {
//	  label = "DSN Mensuelle"
//	  usage = { "S21.G00.30.001" = "O" }
//	  block "S21.G00.06" {
//	    block "S21.G00.11" { ... }
//	  }
//	}
//
// The blocks of a nature are the children of the declaration root
// (S20.G00.05) once that nature is active.
//
//	global_usage = { "S10.G00.00.001" = "O" }

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/neodes/internal/ctxlog"
	"github.com/vk/neodes/internal/schema"
)

type schemaFile struct {
	Version     string         `hcl:"version"`
	Segments    []*segment     `hcl:"segment,block"`
	Envelope    *envelope      `hcl:"envelope,block"`
	Natures     []*nature      `hcl:"nature,block"`
	GlobalUsage hcl.Expression `hcl:"global_usage,optional"`
}

type segment struct {
	Code   string   `hcl:"code,label"`
	Name   string   `hcl:"name"`
	Fields []*field `hcl:"field,block"`
}

type field struct {
	Code    string         `hcl:"code,label"`
	Name    string         `hcl:"name"`
	Type    string         `hcl:"type,optional"`
	Length  int            `hcl:"length,optional"`
	Options hcl.Expression `hcl:"options,optional"`
}

type envelope struct {
	Blocks []*mapping `hcl:"block,block"`
}

type nature struct {
	Code   string         `hcl:"code,label"`
	Label  string         `hcl:"label,optional"`
	Usage  hcl.Expression `hcl:"usage,optional"`
	Blocks []*mapping     `hcl:"block,block"`
}

type mapping struct {
	Code      string     `hcl:"code,label"`
	MinOccurs *int       `hcl:"min_occurs,optional"`
	MaxOccurs *int       `hcl:"max_occurs,optional"`
	Children  []*mapping `hcl:"block,block"`
}

// SchemaDecoder reads schema resources written in HCL.
type SchemaDecoder struct{}

// NewSchemaDecoder creates a new HCL schema decoder.
func NewSchemaDecoder() *SchemaDecoder {
	return &SchemaDecoder{}
}

// Decode parses data as an HCL schema resource named source.
func (d *SchemaDecoder) Decode(ctx context.Context, data []byte, source string) (*schema.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL schema decoder started.", "source", source)

	file, diags := hclparse.NewParser().ParseHCL(data, source)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL schema %s: %w", source, diags)
	}

	var root schemaFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL schema %s: %w", source, diags)
	}

	m := &schema.Model{
		Version:  root.Version,
		Blocks:   make(map[string]*schema.BlockDefinition, len(root.Segments)),
		Natures:  make(map[string]*schema.Nature, len(root.Natures)),
		Envelope: schema.Mappings{},
	}

	for _, seg := range root.Segments {
		if _, dup := m.Blocks[seg.Code]; dup {
			return nil, fmt.Errorf("%s: segment '%s' declared twice", source, seg.Code)
		}
		fields := make(map[string]*schema.FieldDefinition, len(seg.Fields))
		for _, f := range seg.Fields {
			options, err := evalStringMap(ctx, f.Options, "options")
			if err != nil {
				return nil, fmt.Errorf("%s: field '%s': %w", source, f.Code, err)
			}
			fields[f.Code] = &schema.FieldDefinition{
				Name:      f.Name,
				Type:      schema.ParseType(f.Type),
				MaxLength: f.Length,
				Options:   options,
			}
		}
		m.Blocks[seg.Code] = schema.NewBlockDefinition(seg.Name, fields)
	}

	if root.Envelope != nil {
		m.Envelope = translateMappings(root.Envelope.Blocks)
	}

	var err error
	if m.GlobalUsage, err = translateUsage(ctx, root.GlobalUsage, "global_usage"); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	for _, n := range root.Natures {
		usage, err := translateUsage(ctx, n.Usage, "usage")
		if err != nil {
			return nil, fmt.Errorf("%s: nature '%s': %w", source, n.Code, err)
		}
		m.Natures[n.Code] = &schema.Nature{
			Code:  n.Code,
			Label: n.Label,
			Map:   translateMappings(n.Blocks),
			Usage: usage,
		}
	}

	logger.Debug("HCL schema decoded.", "source", source, "blocks", len(m.Blocks), "natures", len(m.Natures))
	return m, nil
}

func translateMappings(blocks []*mapping) schema.Mappings {
	out := make(schema.Mappings, len(blocks))
	for _, b := range blocks {
		bm := &schema.BlockMapping{
			Code:      b.Code,
			MaxOccurs: schema.Unbounded,
			Children:  translateMappings(b.Children),
		}
		if b.MinOccurs != nil {
			bm.MinOccurs = *b.MinOccurs
		}
		if b.MaxOccurs != nil {
			bm.MaxOccurs = *b.MaxOccurs
		}
		out[b.Code] = bm
	}
	return out
}

func translateUsage(ctx context.Context, expr hcl.Expression, attrName string) (map[string]schema.Usage, error) {
	raw, err := evalStringMap(ctx, expr, attrName)
	if err != nil {
		return nil, err
	}
	out := make(map[string]schema.Usage, len(raw))
	for _, field := range sortedKeys(raw) {
		u, ok := schema.ParseUsage(raw[field])
		if !ok {
			return nil, fmt.Errorf("'%s': invalid usage rule %q for field %s", attrName, raw[field], field)
		}
		out[field] = u
	}
	return out, nil
}
