package reconciler

import (
	"math/big"
	"strings"

	"github.com/vk/neodes/internal/fault"
	"github.com/vk/neodes/internal/model"
)

// Footer fields, with the names older schemas give them.
const (
	FieldCountField       = "S90.G00.90.001"
	FieldCountName        = "NombreRubriques"
	DeclarationCountField = "S90.G00.90.002"
	DeclarationCountName  = "NombreDSN"
)

const (
	headerPrefix      = "S10"
	declarationPrefix = "S20"
	footerPrefix      = "S90"
)

// assemble splits the roots of doc into header, declarations and footer and
// checks the footer counts.
func (r *Reconciler) assemble(doc *model.Document) (*model.Envelope, error) {
	env := &model.Envelope{Document: doc}
	for _, root := range doc.Roots {
		switch {
		case strings.HasPrefix(root.Code, headerPrefix):
			if env.Header == nil {
				env.Header = root
			}
		case strings.HasPrefix(root.Code, declarationPrefix):
			env.Declarations = append(env.Declarations, root)
		case strings.HasPrefix(root.Code, footerPrefix):
			env.Footer = root
		}
	}

	if env.Header == nil {
		return nil, fault.Sequence("missing header block (%s)", headerPrefix)
	}
	if env.Footer == nil {
		return nil, fault.Sequence("missing footer block (%s)", footerPrefix)
	}

	if err := checkCount(env.Footer, DeclarationCountField, DeclarationCountName, "declarations", len(env.Declarations)); err != nil {
		return nil, err
	}
	if err := checkCount(env.Footer, FieldCountField, FieldCountName, "fields", doc.TotalFields); err != nil {
		return nil, err
	}
	return env, nil
}

// checkCount compares a count declared in the footer with the actual one.
// An absent count is not checked.
func checkCount(footer *model.Block, code, name, what string, actual int) error {
	v := footer.Value(code)
	if v == nil {
		v = footer.Value(name)
	}
	if v == nil {
		return nil
	}
	declared, ok := v.BigInt()
	if !ok {
		return fault.Sequence("coherence error: footer %s count '%s' is not an integer", what, v.String())
	}
	if declared.Cmp(big.NewInt(int64(actual))) != 0 {
		return fault.Sequence("coherence error: footer declared %s %s but actual count is %d", declared.String(), what, actual)
	}
	return nil
}
