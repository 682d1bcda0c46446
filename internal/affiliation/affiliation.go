// Package affiliation links the insurance affiliations of a declaration to
// the people they cover.
//
// Affiliations sit under a contract (or directly under the individual) and
// point to an adhesion declared at establishment level. Each affiliation
// yields the covered employee and the dependents listed beneath it.
package affiliation

import (
	"github.com/vk/neodes/internal/fault"
	"github.com/vk/neodes/internal/model"
)

// Block codes and field names the walk relies on.
const (
	CompanyBlock       = "S21.G00.06"
	EstablishmentBlock = "S21.G00.11"
	AdhesionBlock      = "S21.G00.15"
	IndividualBlock    = "S21.G00.30"
	ContractBlock      = "S21.G00.40"
	AffiliationBlock   = "S21.G00.70"
	DependentBlock     = "S21.G00.73"

	adhesionIDName = "IdentifiantTechniqueAdhesion"
)

// Affiliate is a person covered by an affiliation. It is either an Employee
// or a Dependent.
type Affiliate interface {
	Name() string
	ID() string
	affiliate()
}

// Employee is the individual an affiliation belongs to.
type Employee struct {
	FamilyName string
	NIR        string
}

func (e Employee) Name() string { return e.FamilyName }
func (e Employee) ID() string { return e.NIR }
func (Employee) affiliate() {}

// Dependent is a beneficiary attached to an affiliation.
type Dependent struct {
	FamilyName string
	NIR        string
}

func (d Dependent) Name() string { return d.FamilyName }
func (d Dependent) ID() string { return d.NIR }
func (Dependent) affiliate() {}

// Affiliation is one coverage of an employee under an adhesion.
type Affiliation struct {
	Principal  Affiliate
	Option     string
	Population string
	// Adhesion is the technical id of the targeted adhesion; empty when the
	// affiliation names none.
	Adhesion   string
	Dependents []Dependent
}

// Covered returns the principal followed by the dependents.
func (a Affiliation) Covered() []Affiliate {
	out := make([]Affiliate, 0, len(a.Dependents)+1)
	out = append(out, a.Principal)
	for _, d := range a.Dependents {
		out = append(out, d)
	}
	return out
}

// Reconcile lists the affiliations of doc in document order. An affiliation
// targeting an adhesion no establishment declares is a business fault.
func Reconcile(doc *model.Document) ([]Affiliation, error) {
	adhesions := make(map[string]struct{})
	for _, b := range collect(doc, AdhesionBlock) {
		if id := text(b, adhesionIDName); id != "" {
			adhesions[id] = struct{}{}
		}
	}

	var out []Affiliation
	for _, company := range collect(doc, CompanyBlock) {
		for _, est := range company.Children(EstablishmentBlock) {
			for _, ind := range est.Children(IndividualBlock) {
				for _, contract := range ind.Children(ContractBlock) {
					found, err := affiliations(ind, contract, adhesions)
					if err != nil {
						return nil, err
					}
					out = append(out, found...)
				}
				found, err := affiliations(ind, ind, adhesions)
				if err != nil {
					return nil, err
				}
				out = append(out, found...)
			}
		}
	}
	return out, nil
}

// affiliations reads the affiliation blocks under parent on behalf of ind.
func affiliations(ind, parent *model.Block, adhesions map[string]struct{}) ([]Affiliation, error) {
	employee := Employee{FamilyName: text(ind, "NomFamille"), NIR: text(ind, "Identifiant")}

	var out []Affiliation
	for _, aff := range parent.Children(AffiliationBlock) {
		target := text(aff, adhesionIDName)
		if target != "" {
			if _, ok := adhesions[target]; !ok {
				return nil, fault.Business("coherence error: target adhesion not found in block %s", AdhesionBlock).
					WithField(fieldCode(aff, adhesionIDName), target)
			}
		}

		var dependents []Dependent
		for _, d := range aff.Children(DependentBlock) {
			dependents = append(dependents, Dependent{FamilyName: text(d, "NomFamille"), NIR: text(d, "Nir")})
		}

		out = append(out, Affiliation{
			Principal:  employee,
			Option:     text(aff, "Option"),
			Population: text(aff, "Population"),
			Adhesion:   target,
			Dependents: dependents,
		})
	}
	return out, nil
}

func collect(doc *model.Document, code string) []*model.Block {
	var found []*model.Block
	for _, root := range doc.Roots {
		root.Walk(func(b *model.Block) {
			if b.Code == code {
				found = append(found, b)
			}
		})
	}
	return found
}

func text(b *model.Block, name string) string {
	if v := b.Value(name); v != nil {
		return v.String()
	}
	return ""
}

// fieldCode resolves a readable field name to its code for fault reporting.
func fieldCode(b *model.Block, name string) string {
	if b.Def != nil {
		if code, _, ok := b.Def.FieldByName(name); ok {
			return code
		}
	}
	return name
}
