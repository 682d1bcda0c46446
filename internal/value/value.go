// Package value converts raw field strings into typed values according to
// their field definition.
package value

import (
	"math/big"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vk/neodes/internal/fault"
	"github.com/vk/neodes/internal/schema"
)

// DateLayout is the only accepted date shape, DDMMYYYY.
const DateLayout = "02012006"

// dateShape rejects what time.Parse lets through for DateLayout, a signed
// year such as "0101+202".
var dateShape = regexp.MustCompile(`^[0-9]{8}$`)

// Kind tells which representation a Value holds.
type Kind int

const (
	KindText Kind = iota
	KindDecimal
	KindDate
	KindCoded
)

// Value is a typed field value. Fields without a value are stored as nil.
type Value struct {
	kind  Kind
	text  string
	dec   decimal.Decimal
	date  time.Time
	label string
}

func Text(s string) *Value { return &Value{kind: KindText, text: s} }
func Decimal(d decimal.Decimal) *Value { return &Value{kind: KindDecimal, dec: d, text: d.String()} }
func Date(t time.Time) *Value { return &Value{kind: KindDate, date: t, text: t.Format(DateLayout)} }
func Coded(code, label string) *Value { return &Value{kind: KindCoded, text: code, label: label} }
func (v *Value) Kind() Kind { return v.kind }
func (v *Value) String() string { return v.text }
func (v *Value) Label() string { return v.label }
func (v *Value) Decimal() decimal.Decimal { return v.dec }
func (v *Value) Time() time.Time { return v.date }

// Code is the code of a coded value, or the text of any other value.
func (v *Value) Code() string { return v.text }

// BigInt interprets the value as an integer. Decimals must be integral and
// text must be a plain base-10 integer.
func (v *Value) BigInt() (*big.Int, bool) {
	switch v.kind {
	case KindDecimal:
		if !v.dec.IsInteger() {
			return nil, false
		}
		return v.dec.BigInt(), true
	case KindText, KindCoded:
		n, ok := new(big.Int).SetString(v.text, 10)
		return n, ok
	}
	return nil, false
}

// Map converts raw according to def. An empty raw value yields nil. line and
// field only serve error reporting.
func Map(raw string, def *schema.FieldDefinition, line int, field string) (*Value, error) {
	if raw == "" {
		return nil, nil
	}

	if def.IsEnumerated() {
		label, ok := def.Options[raw]
		if !ok {
			return nil, fault.InvalidEnum(line, field, raw)
		}
		return Coded(raw, label), nil
	}

	switch def.Type {
	case schema.TypeDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fault.Business("invalid numeric format").AtLine(line).WithField(field, raw)
		}
		return Decimal(d), nil
	case schema.TypeDate:
		if !dateShape.MatchString(raw) {
			return nil, fault.Business("invalid date format (expected DDMMYYYY)").AtLine(line).WithField(field, raw)
		}
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, fault.Business("invalid date format (expected DDMMYYYY)").AtLine(line).WithField(field, raw)
		}
		return Date(t), nil
	default:
		return Text(raw), nil
	}
}
