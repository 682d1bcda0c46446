// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Document returned by a parse and the Envelope view
// over a complete file.

package model

import "strings"

// Document is the result of reading one declaration stream.
type Document struct {
	Roots []*Block
	// TotalFields counts every non-blank line read, footer included.
	TotalFields int
	Version     string
	// SkippedLines counts lines ignored after a recoverable problem.
	SkippedLines int
}

// AddRoot appends a top-level block.
func (d *Document) AddRoot(b *Block) {
	d.Roots = append(d.Roots, b)
}

// Query runs the query on every root and concatenates the results.
func (d *Document) Query(path string) QueryResult {
	var res QueryResult
	if strings.TrimSpace(path) == "" {
		return res
	}
	for _, root := range d.Roots {
		sub := root.Query(path)
		res.Values = append(res.Values, sub.Values...)
		res.Blocks = append(res.Blocks, sub.Blocks...)
	}
	return res
}

// Envelope is the header / declarations / footer view of a complete file.
type Envelope struct {
	Document     *Document
	Header       *Block
	Declarations []*Block
	Footer       *Block
}
