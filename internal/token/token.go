// Package token splits raw declaration lines into a field code and a value.
package token

import (
	"regexp"
	"strings"

	"github.com/vk/neodes/internal/fault"
)

// linePattern is anchored and evaluated by RE2, so matching is linear in the
// line length whatever the input. The value runs up to the last quote.
var linePattern = regexp.MustCompile(`(?s)^\s*([^\s,]+)\s*,\s*'(.*)'.*$`)

const excerptMax = 64

// Token is one field occurrence.
type Token struct {
	Field string
	Value string
}

// Block is the code of the block owning the field.
func (t Token) Block() string {
	return BlockCode(t.Field)
}

// Tokenize parses a line of the form `S21.G00.30.001,'value'`.
func Tokenize(line string) (Token, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Token{}, fault.Format("invalid line format: '%s'", Excerpt(line))
	}
	return Token{Field: m[1], Value: m[2]}, nil
}

// BlockCode strips the last dot-separated segment of a field code. A code
// without any dot has no block and yields "".
func BlockCode(field string) string {
	i := strings.LastIndexByte(field, '.')
	if i < 0 {
		return ""
	}
	return field[:i]
}

// Excerpt shortens line for error messages.
func Excerpt(line string) string {
	r := []rune(line)
	if len(r) <= excerptMax {
		return line
	}
	return string(r[:excerptMax-3]) + "..."
}
