// Package fault defines the error taxonomy raised while reading a declaration.
//
// Every fault is an *Error carrying a Kind and, when known, the line number,
// the field code and the offending value. Callers test for a kind with
// errors.Is against the sentinels below:
//
//	if errors.Is(err, fault.ErrHierarchy) { ... }
//
// Values of sensitive fields are masked when the message is rendered.
package fault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/neodes/internal/mask"
)

// Kind classifies a fault.
type Kind int

const (
	// KindFormat is a malformed line or an unknown block code.
	KindFormat Kind = iota + 1
	// KindHierarchy is a block that cannot be placed, or a depth or count limit.
	KindHierarchy
	// KindSequence is a missing envelope part or an inconsistent footer count.
	KindSequence
	// KindStructure is a forbidden field or a missing mandatory one.
	KindStructure
	// KindBusiness is a value that violates its field definition.
	KindBusiness
	// KindInvalidEnum is a coded value absent from the field's code table.
	KindInvalidEnum
	// KindDefinitionNotFound is a lookup of a block or field the schema lacks.
	KindDefinitionNotFound
)

var (
	ErrFormat             = errors.New("invalid format")
	ErrHierarchy          = errors.New("hierarchy violation")
	ErrSequence           = errors.New("sequence violation")
	ErrStructure          = errors.New("structure violation")
	ErrBusiness           = errors.New("business rule violation")
	ErrInvalidEnum        = errors.New("invalid enumerated value")
	ErrDefinitionNotFound = errors.New("definition not found")
)

var kindNames = map[Kind]string{
	KindFormat:             "format",
	KindHierarchy:          "hierarchy",
	KindSequence:           "sequence",
	KindStructure:          "structure",
	KindBusiness:           "business",
	KindInvalidEnum:        "invalid_enum",
	KindDefinitionNotFound: "definition_not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindFormat:
		return ErrFormat
	case KindHierarchy:
		return ErrHierarchy
	case KindSequence:
		return ErrSequence
	case KindStructure:
		return ErrStructure
	case KindBusiness:
		return ErrBusiness
	case KindInvalidEnum:
		return ErrInvalidEnum
	case KindDefinitionNotFound:
		return ErrDefinitionNotFound
	}
	return nil
}

// Error is a fault raised while reading a declaration.
type Error struct {
	Kind  Kind
	Msg   string
	Line  int    // 1-based; 0 when unknown
	Field string // field code; empty when unknown
	Value string // raw value; rendered masked
	// HasValue distinguishes an empty offending value from no value at all.
	HasValue bool

	policy mask.Policy
}

// New creates a fault of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// AtLine sets the line number unless one is already known.
func (e *Error) AtLine(line int) *Error {
	if e.Line == 0 {
		e.Line = line
	}
	return e
}

// WithField records the field code and the offending value.
func (e *Error) WithField(field, value string) *Error {
	e.Field = field
	e.Value = value
	e.HasValue = true
	return e
}

// WithPolicy sets the masking policy used to render the value.
func (e *Error) WithPolicy(p mask.Policy) *Error {
	e.policy = p
	return e
}

// MaskedValue is the offending value as it appears in the message.
func (e *Error) MaskedValue() string {
	return mask.Apply(e.policy, e.Field, e.Value)
}

func (e *Error) Error() string {
	var parts []string
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}
	if e.Field != "" {
		parts = append(parts, "field "+e.Field)
	}
	if e.HasValue {
		parts = append(parts, fmt.Sprintf("value '%s'", e.MaskedValue()))
	}
	if len(parts) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s [%s]", e.Msg, strings.Join(parts, ", "))
}

// Is reports whether target is the sentinel of e's kind. An invalid
// enumerated value is also a business fault.
func (e *Error) Is(target error) bool {
	if target == e.Kind.sentinel() {
		return true
	}
	return e.Kind == KindInvalidEnum && target == ErrBusiness
}

// KindOf returns the kind of the first fault in err's chain.
func KindOf(err error) (Kind, bool) {
	var f *Error
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

func Format(format string, args ...any) *Error { return New(KindFormat, format, args...) }
func Hierarchy(format string, args ...any) *Error { return New(KindHierarchy, format, args...) }
func Sequence(format string, args ...any) *Error { return New(KindSequence, format, args...) }
func Structure(format string, args ...any) *Error { return New(KindStructure, format, args...) }
func Business(format string, args ...any) *Error { return New(KindBusiness, format, args...) }

// InvalidEnum reports code as absent from field's code table.
func InvalidEnum(line int, field, code string) *Error {
	return New(KindInvalidEnum, "invalid enum code").AtLine(line).WithField(field, code)
}

// DefinitionNotFound reports a missing block or field definition.
func DefinitionNotFound(what, code string) *Error {
	return New(KindDefinitionNotFound, "no definition for %s %s", what, code)
}
