// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the tree produced by reading a declaration: block
// instances with their typed field values, the document owning the root
// blocks and the envelope view over a complete file.
//
// A Block is mutated only while it is the innermost open block of a parse.
// Once closed it is never written again, so completed trees may be read
// from any goroutine.
package model
