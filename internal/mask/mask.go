// Package mask hides personal data carried by declaration fields before it
// reaches error messages or logs.
package mask

import "strings"

// Policy decides which fields are sensitive and how their values are hidden.
type Policy interface {
	IsSensitive(field string) bool
	Mask(value string) string
}

// Default is the policy used when no other is configured. It covers the
// identity fields of individuals and the bank details of the company.
var Default Policy = NewPolicy(
	[]string{
		"S21.G00.30.001", // NIR
		"S21.G00.30.002", // family name
		"S21.G00.30.004", // first names
		"S21.G00.30.006", // birth date
		"S21.G00.30.008", // address
		"S21.G00.30.012", // postal code
		"S21.G00.30.013", // locality
		"S21.G00.51.011", // amount
		"S21.G00.51.013", // amount
		"S20.G00.07.007", // contact phone
		"S21.G00.20.005", // IBAN
	},
	[]string{"S20.G00.07.", "S21.G00.30."},
)

type policy struct {
	fields   map[string]struct{}
	prefixes []string
}

// NewPolicy builds a policy from an exact set of field codes plus a list of
// code prefixes. Every field matching one of the prefixes is sensitive.
func NewPolicy(fields, prefixes []string) Policy {
	p := &policy{
		fields:   make(map[string]struct{}, len(fields)),
		prefixes: append([]string(nil), prefixes...),
	}
	for _, f := range fields {
		p.fields[f] = struct{}{}
	}
	return p
}

func (p *policy) IsSensitive(field string) bool {
	if field == "" {
		return false
	}
	if _, ok := p.fields[field]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(field, prefix) {
			return true
		}
	}
	return false
}

func (p *policy) Mask(value string) string {
	return Mask(value)
}

// Mask keeps the first and last two characters of value and replaces the
// middle. Values of four characters or fewer are replaced entirely.
func Mask(value string) string {
	if value == "" {
		return value
	}
	r := []rune(value)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:2]) + "****" + string(r[len(r)-2:])
}

// Apply returns value masked by p when field is sensitive, value unchanged
// otherwise. A nil policy falls back to Default.
func Apply(p Policy, field, value string) string {
	if p == nil {
		p = Default
	}
	if p.IsSensitive(field) {
		return p.Mask(value)
	}
	return value
}
