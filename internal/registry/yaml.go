package registry

import (
	"context"
	"fmt"

	"github.com/vk/neodes/internal/schema"
	"gopkg.in/yaml.v3"
)

type yamlSchema struct {
	Version     string                  `yaml:"version"`
	Segments    map[string]yamlBlock    `yaml:"segments"`
	Natures     map[string]yamlNature   `yaml:"natures"`
	Envelope    map[string]*yamlMapping `yaml:"dsnEnvelope"`
	GlobalUsage map[string]string       `yaml:"globalRubriquesUsage"`
}

type yamlBlock struct {
	Name   string               `yaml:"name"`
	Fields map[string]yamlField `yaml:"fields"`
}

type yamlField struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Length  int               `yaml:"length"`
	Options map[string]string `yaml:"options"`
}

type yamlNature struct {
	Code  string                  `yaml:"natureCode"`
	Label string                  `yaml:"label"`
	Map   map[string]*yamlMapping `yaml:"map"`
	Usage map[string]string       `yaml:"rubriquesUsage"`
}

type yamlMapping struct {
	MinOccurs *int                    `yaml:"minOccurs"`
	MaxOccurs *int                    `yaml:"maxOccurs"`
	Children  map[string]*yamlMapping `yaml:"children"`
}

// YAMLDecoder reads schema resources written in YAML.
type YAMLDecoder struct{}

// Decode implements Decoder.
func (YAMLDecoder) Decode(_ context.Context, data []byte, source string) (*schema.Model, error) {
	var raw yamlSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML %s: %w", source, err)
	}
	return raw.toModel()
}

func (y *yamlSchema) toModel() (*schema.Model, error) {
	m := &schema.Model{
		Version:     y.Version,
		Blocks:      make(map[string]*schema.BlockDefinition, len(y.Segments)),
		Natures:     make(map[string]*schema.Nature, len(y.Natures)),
		Envelope:    toMappings(y.Envelope),
		GlobalUsage: map[string]schema.Usage{},
	}

	for code, b := range y.Segments {
		fields := make(map[string]*schema.FieldDefinition, len(b.Fields))
		for fieldCode, f := range b.Fields {
			fields[fieldCode] = &schema.FieldDefinition{
				Name:      f.Name,
				Type:      schema.ParseType(f.Type),
				MaxLength: f.Length,
				Options:   f.Options,
			}
		}
		m.Blocks[code] = schema.NewBlockDefinition(b.Name, fields)
	}

	var err error
	if m.GlobalUsage, err = toUsage(y.GlobalUsage); err != nil {
		return nil, fmt.Errorf("globalRubriquesUsage: %w", err)
	}

	for code, n := range y.Natures {
		usage, err := toUsage(n.Usage)
		if err != nil {
			return nil, fmt.Errorf("nature %s: %w", code, err)
		}
		m.Natures[code] = &schema.Nature{
			Code:  code,
			Label: n.Label,
			Map:   toMappings(n.Map),
			Usage: usage,
		}
	}
	return m, nil
}

func toMappings(raw map[string]*yamlMapping) schema.Mappings {
	out := make(schema.Mappings, len(raw))
	for code, bm := range raw {
		mapping := &schema.BlockMapping{Code: code, MaxOccurs: schema.Unbounded}
		if bm != nil {
			if bm.MinOccurs != nil {
				mapping.MinOccurs = *bm.MinOccurs
			}
			if bm.MaxOccurs != nil {
				mapping.MaxOccurs = *bm.MaxOccurs
			}
			mapping.Children = toMappings(bm.Children)
		} else {
			mapping.Children = schema.Mappings{}
		}
		out[code] = mapping
	}
	return out
}

func toUsage(raw map[string]string) (map[string]schema.Usage, error) {
	out := make(map[string]schema.Usage, len(raw))
	for field, code := range raw {
		u, ok := schema.ParseUsage(code)
		if !ok {
			return nil, fmt.Errorf("invalid usage rule %q for field %s", code, field)
		}
		out[field] = u
	}
	return out, nil
}
