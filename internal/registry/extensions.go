package registry

import (
	"sort"
	"strings"

	"github.com/vk/neodes/internal/schema"
)

// ExtensionBlock is a group of vendor fields attached to one block code.
type ExtensionBlock struct {
	Name   string
	Fields map[string]*schema.FieldDefinition
}

// ExtensionSet is a named collection of vendor fields, keyed by block code.
type ExtensionSet struct {
	Name   string
	Blocks map[string]ExtensionBlock
}

func text(name string, length int) *schema.FieldDefinition {
	return &schema.FieldDefinition{Name: name, Type: schema.TypeText, MaxLength: length}
}

var builtinExtensions = map[string]ExtensionSet{
	"common": {
		Name: "common",
		Blocks: map[string]ExtensionBlock{
			"S10.G00.95": {Name: "Concentrateur", Fields: map[string]*schema.FieldDefinition{
				"S10.G00.95.001": text("nomUtilisateur", 80),
				"S10.G00.95.002": text("prenomUtilisateur", 80),
				"S10.G00.95.003": text("siret", 14),
				"S10.G00.95.006": text("modeTransmission", 10),
				"S10.G00.95.007": text("siretEmetteur", 14),
				"S10.G00.95.008": text("dateHeureEnvoi", 14),
				"S10.G00.95.009": text("raisonSociale", 80),
				"S10.G00.95.900": text("tokenAuthentification", 100),
				"S10.G00.95.901": text("emailContact", 100),
			}},
		},
	},
	"sage": {
		Name: "sage",
		Blocks: map[string]ExtensionBlock{
			"S21.G00.06": {Name: "EntrepriseSage", Fields: map[string]*schema.FieldDefinition{
				"S21.G00.06.903": text("NomExtension", 80),
			}},
			"S21.G00.11": {Name: "EtablissementSage", Fields: map[string]*schema.FieldDefinition{
				"S21.G00.11.110": text("EtbTag1", 50),
				"S21.G00.11.111": text("EtbTag2", 50),
				"S21.G00.11.112": text("EtbTag3", 50),
				"S21.G00.11.904": text("EnseigneExtension", 80),
			}},
		},
	},
	"fiducial": {
		Name: "fiducial",
		Blocks: map[string]ExtensionBlock{
			"S10.G00.95": {Name: "ConcentrateurFiducial", Fields: map[string]*schema.FieldDefinition{
				"S10.G00.95.010": text("idConcentrateur", 50),
			}},
			"S20.G00.96": {Name: "MetadonneesFiducial", Fields: map[string]*schema.FieldDefinition{
				"S20.G00.96.010": text("versionMetadonnees", 10),
				"S20.G00.96.902": text("idTechniqueDeclaration", 50),
			}},
			"S21.G00.85": {Name: "TravailLieuFiducial", Fields: map[string]*schema.FieldDefinition{
				"S21.G00.85.850": text("LibelleLieuExtension", 80),
			}},
		},
	},
}

// DefaultExtensions lists every built-in set in merge order.
var DefaultExtensions = []string{"common", "sage", "fiducial"}

// Extension returns the built-in set with the given name, ignoring case.
func Extension(name string) (ExtensionSet, bool) {
	set, ok := builtinExtensions[strings.ToLower(strings.TrimSpace(name))]
	return set, ok
}

// Merge adds the fields of each set to m in order. Fields of a block already
// defined are added to it under its existing name; unknown blocks are added
// whole.
func Merge(m *schema.Model, sets ...ExtensionSet) {
	if m.Blocks == nil {
		m.Blocks = make(map[string]*schema.BlockDefinition)
	}
	for _, set := range sets {
		codes := make([]string, 0, len(set.Blocks))
		for code := range set.Blocks {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			block := set.Blocks[code]
			if existing, ok := m.Blocks[code]; ok {
				m.Blocks[code] = existing.Extend(block.Fields)
				continue
			}
			m.Blocks[code] = schema.NewBlockDefinition(block.Name, block.Fields)
		}
	}
}
