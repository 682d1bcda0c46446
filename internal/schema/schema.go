// Package schema describes the declaration format: which blocks exist, which
// fields they carry, how blocks nest for each declaration nature and which
// fields are mandatory or forbidden.
//
// A Model is built once by the registry and never mutated afterwards, so it
// may be shared freely between concurrent parses.
package schema

import (
	"sort"
	"strings"
	"sync"

	"github.com/vk/neodes/internal/fault"
)

// Type is the primitive type of a field value.
type Type int

const (
	TypeText Type = iota
	TypeDecimal
	TypeDate
)

// ParseType maps a resource type tag to a Type. Unknown tags are text.
func ParseType(tag string) Type {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "n", "decimal", "numeric":
		return TypeDecimal
	case "d", "date":
		return TypeDate
	default:
		return TypeText
	}
}

func (t Type) String() string {
	switch t {
	case TypeDecimal:
		return "decimal"
	case TypeDate:
		return "date"
	default:
		return "text"
	}
}

// FieldDefinition describes a single field.
type FieldDefinition struct {
	Name      string
	Type      Type
	MaxLength int // 0 is unbounded
	// Options maps codes to labels. A non-empty table makes the field a
	// coded enumeration whatever its Type.
	Options map[string]string
}

// IsEnumerated reports whether the field only accepts codes from Options.
func (f *FieldDefinition) IsEnumerated() bool {
	return len(f.Options) > 0
}

// BlockDefinition describes a block and its fields. Fields are kept in
// ascending code order; the first one marks the start of a new instance.
type BlockDefinition struct {
	Name   string
	fields map[string]*FieldDefinition
	order  []string
}

// NewBlockDefinition creates a block definition owning a copy of fields.
func NewBlockDefinition(name string, fields map[string]*FieldDefinition) *BlockDefinition {
	b := &BlockDefinition{Name: name, fields: make(map[string]*FieldDefinition, len(fields))}
	for code, def := range fields {
		b.fields[code] = def
	}
	b.reorder()
	return b
}

func (b *BlockDefinition) reorder() {
	b.order = b.order[:0]
	for code := range b.fields {
		b.order = append(b.order, code)
	}
	sort.Strings(b.order)
}

// Extend returns a new definition holding the union of b's fields and extra.
// A field present in both takes extra's definition; b's name is kept.
func (b *BlockDefinition) Extend(extra map[string]*FieldDefinition) *BlockDefinition {
	merged := make(map[string]*FieldDefinition, len(b.fields)+len(extra))
	for code, def := range b.fields {
		merged[code] = def
	}
	for code, def := range extra {
		merged[code] = def
	}
	return NewBlockDefinition(b.Name, merged)
}

// Field returns the definition of the field with the given code.
func (b *BlockDefinition) Field(code string) (*FieldDefinition, bool) {
	def, ok := b.fields[code]
	return def, ok
}

// HasField reports whether the block declares the field.
func (b *BlockDefinition) HasField(code string) bool {
	_, ok := b.fields[code]
	return ok
}

// FieldByName finds a field by its readable name, ignoring case.
func (b *BlockDefinition) FieldByName(name string) (string, *FieldDefinition, bool) {
	for _, code := range b.order {
		if def := b.fields[code]; strings.EqualFold(def.Name, name) {
			return code, def, true
		}
	}
	return "", nil, false
}

// FirstField is the lowest declared field code, or "" for an empty block.
func (b *BlockDefinition) FirstField() string {
	if len(b.order) == 0 {
		return ""
	}
	return b.order[0]
}

// FieldCodes returns the declared field codes in order.
func (b *BlockDefinition) FieldCodes() []string {
	return append([]string(nil), b.order...)
}

// Len is the number of declared fields.
func (b *BlockDefinition) Len() int { return len(b.order) }

// Unbounded is the MaxOccurs of a mapping without an upper limit.
const Unbounded = -1

// BlockMapping places one block in a structural tree.
type BlockMapping struct {
	Code      string
	MinOccurs int
	MaxOccurs int
	Children  Mappings
}

// Mappings is one level of a structural tree, keyed by block code.
type Mappings map[string]*BlockMapping

// Has reports whether code is declared at this level.
func (m Mappings) Has(code string) bool {
	_, ok := m[code]
	return ok
}

// ChildrenOf returns the level below code, or nil when code is absent.
func (m Mappings) ChildrenOf(code string) (Mappings, bool) {
	bm, ok := m[code]
	if !ok {
		return nil, false
	}
	if bm == nil || bm.Children == nil {
		return Mappings{}, true
	}
	return bm.Children, true
}

func (m Mappings) collect(into map[string]struct{}) {
	for code, bm := range m {
		into[code] = struct{}{}
		if bm != nil {
			bm.Children.collect(into)
		}
	}
}

// Usage is the presence rule of a field.
type Usage int

const (
	UsageConditional Usage = iota
	UsageMandatory
	UsageForbidden
)

// ParseUsage maps the O/I/C resource codes to a Usage.
func ParseUsage(code string) (Usage, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "O":
		return UsageMandatory, true
	case "I":
		return UsageForbidden, true
	case "C":
		return UsageConditional, true
	}
	return UsageConditional, false
}

func (u Usage) String() string {
	switch u {
	case UsageMandatory:
		return "O"
	case UsageForbidden:
		return "I"
	default:
		return "C"
	}
}

// Nature is the configuration of one declaration nature.
type Nature struct {
	Code  string
	Label string
	Map   Mappings
	Usage map[string]Usage
}

// Rule returns the usage of field under this nature. A nil nature has no rules.
func (n *Nature) Rule(field string) Usage {
	if n == nil {
		return UsageConditional
	}
	return n.Usage[field]
}

// Model is a complete, immutable schema version.
type Model struct {
	Version     string
	Blocks      map[string]*BlockDefinition
	Natures     map[string]*Nature
	Envelope    Mappings
	GlobalUsage map[string]Usage

	officialOnce sync.Once
	official     map[string]struct{}
}

// Block returns the definition of the block with the given code.
func (m *Model) Block(code string) (*BlockDefinition, error) {
	if def, ok := m.Blocks[code]; ok {
		return def, nil
	}
	return nil, fault.DefinitionNotFound("block", code)
}

// HasBlock reports whether the model defines the block.
func (m *Model) HasBlock(code string) bool {
	_, ok := m.Blocks[code]
	return ok
}

// Field returns the definition of the field with the given code, whichever
// block declares it.
func (m *Model) Field(code string) (*FieldDefinition, error) {
	if i := strings.LastIndexByte(code, '.'); i > 0 {
		if block, ok := m.Blocks[code[:i]]; ok {
			if def, ok := block.Field(code); ok {
				return def, nil
			}
		}
	}
	blocks := make([]string, 0, len(m.Blocks))
	for blockCode := range m.Blocks {
		blocks = append(blocks, blockCode)
	}
	sort.Strings(blocks)
	for _, blockCode := range blocks {
		if def, ok := m.Blocks[blockCode].Field(code); ok {
			return def, nil
		}
	}
	return nil, fault.DefinitionNotFound("field", code)
}

// Nature returns the configuration of a nature, or nil when unknown.
func (m *Model) Nature(code string) *Nature {
	return m.Natures[code]
}

// GlobalRule returns the usage of field regardless of nature.
func (m *Model) GlobalRule(field string) Usage {
	return m.GlobalUsage[field]
}

// IsOfficialBlock reports whether code appears in the envelope or in any
// nature's structural tree. Blocks outside every tree are vendor extensions.
func (m *Model) IsOfficialBlock(code string) bool {
	m.officialOnce.Do(func() {
		m.official = make(map[string]struct{})
		m.Envelope.collect(m.official)
		for _, n := range m.Natures {
			n.Map.collect(m.official)
		}
	})
	_, ok := m.official[code]
	return ok
}
