package testutil

import (
	"fmt"
	"strings"
)

// Header returns the envelope header lines of a test file.
func Header() []string {
	return []string{
		"S10.G00.00.001,'NEODES'",
		"S10.G00.00.002,'EDITEUR'",
		"S10.G00.00.003,'1.0.0'",
		"S10.G00.00.005,'01'",
		"S10.G00.00.006,'" + SchemaVersion + "'",
		"S10.G00.00.008,'01'",
		"S10.G00.01.001,'123456789'",
		"S10.G00.01.002,'00012'",
		"S10.G00.01.003,'ACME'",
		"S10.G00.02.002,'DUPONT'",
		"S10.G00.02.004,'contact@acme.test'",
	}
}

// MonthlyDeclaration returns a nature 01 declaration with two individuals,
// an adhesion and an affiliation carrying one dependent.
func MonthlyDeclaration() []string {
	return []string{
		"S20.G00.05.001,'01'",
		"S20.G00.05.002,'01'",
		"S20.G00.05.004,'1'",
		"S20.G00.05.005,'01012025'",
		"S21.G00.06.001,'123456789'",
		"S21.G00.06.002,'00012'",
		"S21.G00.11.001,'00012'",
		"S21.G00.15.001,'REF-1'",
		"S21.G00.15.005,'ADH-1'",
		"S21.G00.30.001,'1850775123456'",
		"S21.G00.30.002,'DOE'",
		"S21.G00.30.004,'JOHN'",
		"S21.G00.30.005,'01'",
		"S21.G00.40.001,'01012025'",
		"S21.G00.40.009,'C-1'",
		"S21.G00.40.013,'151.67'",
		"S21.G00.70.004,'OPT1'",
		"S21.G00.70.005,'CADRES'",
		"S21.G00.70.012,'ADH-1'",
		"S21.G00.73.001,'2850775123456'",
		"S21.G00.73.002,'DOE'",
		"S21.G00.30.001,'2900175123456'",
		"S21.G00.30.002,'ROE'",
		"S21.G00.40.001,'01022025'",
	}
}

// EndOfContractDeclaration returns a nature 02 declaration.
func EndOfContractDeclaration() []string {
	return []string{
		"S20.G00.05.001,'02'",
		"S20.G00.05.002,'01'",
		"S21.G00.06.001,'987654321'",
		"S21.G00.11.001,'00099'",
		"S21.G00.30.001,'1850775123456'",
		"S21.G00.30.002,'DOE'",
		"S21.G00.40.001,'01012024'",
		"S21.G00.62.001,'31012025'",
		"S21.G00.62.002,'011'",
	}
}

// Footer returns footer lines declaring the number of fields of the whole
// file, footer included, and the number of declarations.
func Footer(fieldsBefore, declarations int) []string {
	return []string{
		fmt.Sprintf("S90.G00.90.001,'%d'", fieldsBefore+2),
		fmt.Sprintf("S90.G00.90.002,'%d'", declarations),
	}
}

// File assembles a complete file from declarations, with a coherent footer.
func File(declarations ...[]string) []string {
	lines := Header()
	for _, d := range declarations {
		lines = append(lines, d...)
	}
	return append(lines, Footer(len(lines), len(declarations))...)
}

// Join renders lines as file content.
func Join(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}
