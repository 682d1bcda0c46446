// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Block, one instance of a block in a declaration tree,
// together with field lookups and path queries over its subtree.

package model

import (
	"strings"

	"github.com/vk/neodes/internal/schema"
	"github.com/vk/neodes/internal/value"
)

// Block is one instance of a block in a declaration.
type Block struct {
	Code string
	// Def is nil for blocks the schema does not describe.
	Def *schema.BlockDefinition

	values     map[string]*value.Value
	fieldOrder []string
	children   map[string][]*Block
	childOrder []string
}

// NewBlock creates an empty block instance.
func NewBlock(code string, def *schema.BlockDefinition) *Block {
	return &Block{
		Code:     code,
		Def:      def,
		values:   make(map[string]*value.Value),
		children: make(map[string][]*Block),
	}
}

// Name is the readable name of the block, or its code when undefined.
func (b *Block) Name() string {
	if b.Def != nil && b.Def.Name != "" {
		return b.Def.Name
	}
	return b.Code
}

// Set stores v under field. A field set twice keeps its first position.
func (b *Block) Set(field string, v *value.Value) {
	if _, ok := b.values[field]; !ok {
		b.fieldOrder = append(b.fieldOrder, field)
	}
	b.values[field] = v
}

// Get returns the value stored under field. A present field may hold nil
// when its raw value was empty.
func (b *Block) Get(field string) (*value.Value, bool) {
	v, ok := b.values[field]
	return v, ok
}

// Value looks a field up by code, then by readable name ignoring case.
func (b *Block) Value(codeOrName string) *value.Value {
	if v, ok := b.values[codeOrName]; ok {
		return v
	}
	if b.Def == nil {
		return nil
	}
	if code, _, ok := b.Def.FieldByName(codeOrName); ok {
		return b.values[code]
	}
	return nil
}

// Fields returns the stored field codes in insertion order.
func (b *Block) Fields() []string {
	return append([]string(nil), b.fieldOrder...)
}

// AddChild appends c under its block code.
func (b *Block) AddChild(c *Block) {
	if _, ok := b.children[c.Code]; !ok {
		b.childOrder = append(b.childOrder, c.Code)
	}
	b.children[c.Code] = append(b.children[c.Code], c)
}

// Children returns the children with the given block code in order.
func (b *Block) Children(code string) []*Block {
	return b.children[code]
}

// ChildCodes returns the distinct child block codes in first-encounter order.
func (b *Block) ChildCodes() []string {
	out := make([]string, 0, len(b.childOrder))
	for _, code := range b.childOrder {
		if len(b.children[code]) > 0 {
			out = append(out, code)
		}
	}
	return out
}

// ChildrenByName returns the children whose code or readable name matches
// name, ignoring case.
func (b *Block) ChildrenByName(name string) []*Block {
	var found []*Block
	for _, code := range b.childOrder {
		list := b.children[code]
		if len(list) == 0 {
			continue
		}
		first := list[0]
		if strings.EqualFold(first.Name(), name) || strings.EqualFold(first.Code, name) {
			found = append(found, list...)
		}
	}
	return found
}

// DetachChildren drops every child reference so completed subtrees can be
// reclaimed.
func (b *Block) DetachChildren() {
	b.children = make(map[string][]*Block)
	b.childOrder = nil
}

// Walk calls fn for b and every descendant, depth first.
func (b *Block) Walk(fn func(*Block)) {
	fn(b)
	for _, code := range b.childOrder {
		for _, c := range b.children[code] {
			c.Walk(fn)
		}
	}
}

// Query searches b and its descendants for a dotted path of field or block
// names, such as "Entreprise.Siren". Each segment matches the first way it
// can at any depth below the previous one.
func (b *Block) Query(path string) QueryResult {
	if strings.TrimSpace(path) == "" {
		return QueryResult{Blocks: []*Block{b}}
	}
	var res QueryResult
	head, rest, _ := strings.Cut(path, ".")
	b.collect(head, rest, &res)
	return res
}

func (b *Block) collect(token, rest string, res *QueryResult) {
	if v := b.Value(token); v != nil && rest == "" {
		res.Values = append(res.Values, v)
	}
	for _, match := range b.ChildrenByName(token) {
		if rest == "" {
			res.Blocks = append(res.Blocks, match)
			continue
		}
		sub := match.Query(rest)
		res.Values = append(res.Values, sub.Values...)
		res.Blocks = append(res.Blocks, sub.Blocks...)
	}
	for _, code := range b.childOrder {
		for _, c := range b.children[code] {
			c.collect(token, rest, res)
		}
	}
}

// QueryResult holds what a query matched.
type QueryResult struct {
	Values []*value.Value
	Blocks []*Block
}

// Empty reports whether nothing matched.
func (r QueryResult) Empty() bool {
	return len(r.Values) == 0 && len(r.Blocks) == 0
}

// First returns the first matched value as a string.
func (r QueryResult) First() (string, bool) {
	if len(r.Values) == 0 {
		return "", false
	}
	return r.Values[0].String(), true
}
