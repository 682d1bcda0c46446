package reconciler

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/neodes/internal/fault"
	"github.com/vk/neodes/internal/hcl_adapter"
	"github.com/vk/neodes/internal/model"
	"github.com/vk/neodes/internal/testutil"
	"github.com/vk/neodes/internal/value"
)

func newTestReconciler(t *testing.T, opts ...Option) (*Reconciler, *testutil.SafeBuffer) {
	t.Helper()
	logger, buf := testutil.Logger(t)
	return New(testutil.Schema(t), append([]Option{WithLogger(logger)}, opts...)...), buf
}

// insertAfter returns a copy of lines with extra inserted after the first
// line starting with prefix.
func insertAfter(t *testing.T, lines []string, prefix string, extra ...string) []string {
	t.Helper()
	i := slices.IndexFunc(lines, func(l string) bool { return strings.HasPrefix(l, prefix) })
	require.GreaterOrEqual(t, i, 0, "no line starts with %s", prefix)
	return slices.Concat(lines[:i+1], extra, lines[i+1:])
}

// without returns a copy of lines minus the first line starting with prefix.
func without(t *testing.T, lines []string, prefix string) []string {
	t.Helper()
	i := slices.IndexFunc(lines, func(l string) bool { return strings.HasPrefix(l, prefix) })
	require.GreaterOrEqual(t, i, 0, "no line starts with %s", prefix)
	return slices.Concat(lines[:i], lines[i+1:])
}

func child(t *testing.T, b *model.Block, code string, i int) *model.Block {
	t.Helper()
	children := b.Children(code)
	require.Greater(t, len(children), i, "block %s has %d %s children", b.Code, len(children), code)
	return children[i]
}

func TestParseEnvelope_Tree(t *testing.T) {
	r, _ := newTestReconciler(t)
	lines := testutil.File(testutil.MonthlyDeclaration(), testutil.EndOfContractDeclaration())

	env, err := r.ParseEnvelope(slices.Values(lines))
	require.NoError(t, err)

	assert.Equal(t, "S10.G00.00", env.Header.Code)
	assert.Equal(t, "S90.G00.90", env.Footer.Code)
	require.Len(t, env.Declarations, 2)
	assert.Equal(t, len(lines), env.Document.TotalFields)
	assert.Equal(t, testutil.SchemaVersion, env.Document.Version)
	assert.Zero(t, env.Document.SkippedLines)

	contact := child(t, child(t, env.Header, "S10.G00.01", 0), "S10.G00.02", 0)
	assert.Equal(t, "DUPONT", contact.Value("Nom").String())

	monthly := env.Declarations[0]
	assert.Equal(t, "DSN mensuelle", monthly.Value("S20.G00.05.001").Label())
	assert.Equal(t, value.KindDate, monthly.Value("DateMois").Kind())

	establishment := child(t, child(t, monthly, "S21.G00.06", 0), "S21.G00.11", 0)
	assert.Len(t, establishment.Children("S21.G00.15"), 1)
	individuals := establishment.Children("S21.G00.30")
	require.Len(t, individuals, 2, "a second individual closes the first one's subtree")
	assert.Equal(t, "DOE", individuals[0].Value("NomFamille").String())
	assert.Equal(t, "ROE", individuals[1].Value("NomFamille").String())
	assert.Equal(t, "Masculin", individuals[0].Value("Sexe").Label())

	contract := child(t, individuals[0], "S21.G00.40", 0)
	assert.True(t, decimal.RequireFromString("151.67").Equal(contract.Value("Quotite").Decimal()))
	dependent := child(t, child(t, contract, "S21.G00.70", 0), "S21.G00.73", 0)
	assert.Equal(t, "DOE", dependent.Value("NomFamille").String())

	endOfContract := child(t, child(t, child(t, child(t, child(t,
		env.Declarations[1], "S21.G00.06", 0), "S21.G00.11", 0), "S21.G00.30", 0), "S21.G00.40", 0), "S21.G00.62", 0)
	assert.Equal(t, "011", endOfContract.Value("Motif").String())
}

func TestParseDocument_ChecksFooter(t *testing.T) {
	r, _ := newTestReconciler(t)

	doc, err := r.ParseDocument(slices.Values(testutil.File(testutil.MonthlyDeclaration())))
	require.NoError(t, err)
	require.Len(t, doc.Roots, 3)

	lines := testutil.File(testutil.MonthlyDeclaration())
	lines[len(lines)-1] = "S90.G00.90.002,'2'"
	_, err = r.ParseDocument(slices.Values(lines))
	require.ErrorIs(t, err, fault.ErrSequence)
}

func TestParse_BlankLines(t *testing.T) {
	r, _ := newTestReconciler(t)
	lines := testutil.Header()
	lines = append(lines, "", "   ")
	lines = append(lines, testutil.Footer(len(testutil.Header()), 0)...)

	env, err := r.ParseEnvelope(slices.Values(lines))
	require.NoError(t, err)
	assert.Equal(t, len(lines)-2, env.Document.TotalFields)

	bad := append(testutil.Header(), "", "not a field line")
	_, err = r.ParseEnvelope(slices.Values(bad))
	var f *fault.Error
	require.ErrorAs(t, err, &f)
	assert.Equal(t, fault.KindFormat, f.Kind)
	assert.Equal(t, len(bad), f.Line, "blank lines still count for line numbers")
}

func TestParse_EmptyValue(t *testing.T) {
	r, _ := newTestReconciler(t)
	decl := insertAfter(t, testutil.MonthlyDeclaration(), "S21.G00.30.002", "S21.G00.30.006,''")

	env, err := r.ParseEnvelope(slices.Values(testutil.File(decl)))
	require.NoError(t, err)

	ind := env.Document.Query("Individu").Blocks[0]
	v, ok := ind.Get("S21.G00.30.006")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestParse_VendorExtensions(t *testing.T) {
	r, _ := newTestReconciler(t)
	header := insertAfter(t, testutil.Header(), "S10.G00.02.004",
		"S10.G00.95.001,'ALICE'",
		"S10.G00.95.010,'C-42'",
	)
	decl := insertAfter(t, testutil.MonthlyDeclaration(), "S21.G00.06.002", "S21.G00.06.903,'SAGE'")
	lines := slices.Concat(header, decl)
	lines = append(lines, testutil.Footer(len(lines), 1)...)

	env, err := r.ParseEnvelope(slices.Values(lines))
	require.NoError(t, err)

	contact := child(t, child(t, env.Header, "S10.G00.01", 0), "S10.G00.02", 0)
	hub := child(t, contact, "S10.G00.95", 0)
	assert.Equal(t, "ALICE", hub.Value("nomUtilisateur").String())
	assert.Equal(t, "C-42", hub.Value("idConcentrateur").String())

	company := child(t, env.Declarations[0], "S21.G00.06", 0)
	assert.Equal(t, "SAGE", company.Value("NomExtension").String())
	assert.Len(t, company.Children("S21.G00.11"), 1)
}

func TestParse_UndeclaredFieldIsSkipped(t *testing.T) {
	r, logs := newTestReconciler(t)
	decl := insertAfter(t, testutil.MonthlyDeclaration(), "S21.G00.30.002", "S21.G00.30.099,'x'")

	env, err := r.ParseEnvelope(slices.Values(testutil.File(decl)))
	require.NoError(t, err)

	assert.Equal(t, 1, env.Document.SkippedLines)
	assert.Contains(t, logs.String(), "Skipping line with undeclared field.")
	assert.Contains(t, logs.String(), "field=S21.G00.30.099")
	ind := env.Document.Query("Individu").Blocks[0]
	_, ok := ind.Get("S21.G00.30.099")
	assert.False(t, ok)
}

func TestParse_Faults(t *testing.T) {
	testCases := []struct {
		name     string
		lines    func(t *testing.T) []string
		opts     []Option
		sentinel error
		kind     fault.Kind
		contains []string
		absent   []string
	}{
		{
			name: "unknown block",
			lines: func(t *testing.T) []string {
				return testutil.File(insertAfter(t, testutil.MonthlyDeclaration(), "S20.G00.05.005", "S99.G00.01.001,'x'"))
			},
			sentinel: fault.ErrFormat,
			kind:     fault.KindFormat,
			contains: []string{"unknown block for field S99.G00.01.001", "line 16"},
		},
		{
			name: "field code without block",
			lines: func(t *testing.T) []string {
				return append(testutil.Header(), "S10,'x'")
			},
			sentinel: fault.ErrFormat,
			kind:     fault.KindFormat,
		},
		{
			name: "official block out of place",
			lines: func(t *testing.T) []string {
				return []string{"S10.G00.01.001,'123456789'"}
			},
			sentinel: fault.ErrHierarchy,
			kind:     fault.KindHierarchy,
			contains: []string{"block S10.G00.01 not allowed at root level", "line 1"},
		},
		{
			name: "block of another nature",
			lines: func(t *testing.T) []string {
				return testutil.File(insertAfter(t, testutil.MonthlyDeclaration(), "S21.G00.40.013", "S21.G00.62.002,'011'"))
			},
			sentinel: fault.ErrHierarchy,
			kind:     fault.KindHierarchy,
			contains: []string{"block S21.G00.62 not allowed at root level"},
		},
		{
			name: "maximum depth",
			lines: func(t *testing.T) []string {
				return testutil.File(testutil.MonthlyDeclaration())
			},
			opts:     []Option{WithMaxDepth(3)},
			sentinel: fault.ErrHierarchy,
			kind:     fault.KindHierarchy,
			contains: []string{"maximum depth reached (3) for block S21.G00.15", "line 19"},
		},
		{
			name: "maximum blocks",
			lines: func(t *testing.T) []string {
				return testutil.File(testutil.MonthlyDeclaration())
			},
			opts:     []Option{WithMaxBlocks(3)},
			sentinel: fault.ErrHierarchy,
			kind:     fault.KindHierarchy,
			contains: []string{"maximum number of blocks reached (3)", "line 12"},
		},
		{
			name: "forbidden under nature",
			lines: func(t *testing.T) []string {
				return testutil.File(insertAfter(t, testutil.EndOfContractDeclaration(), "S21.G00.40.001", "S21.G00.40.013,'100'"))
			},
			sentinel: fault.ErrStructure,
			kind:     fault.KindStructure,
			contains: []string{"forbidden field S21.G00.40.013"},
		},
		{
			name: "missing mandatory field",
			lines: func(t *testing.T) []string {
				decl := testutil.MonthlyDeclaration()
				i := slices.Index(decl, "S21.G00.30.002,'ROE'")
				require.GreaterOrEqual(t, i, 0)
				return testutil.File(slices.Delete(decl, i, i+1))
			},
			sentinel: fault.ErrStructure,
			kind:     fault.KindStructure,
			contains: []string{"missing mandatory field S21.G00.30.002 in block S21.G00.30"},
		},
		{
			name: "missing global mandatory field",
			lines: func(t *testing.T) []string {
				return testutil.File(without(t, testutil.MonthlyDeclaration(), "S21.G00.06.001"))
			},
			sentinel: fault.ErrStructure,
			kind:     fault.KindStructure,
			contains: []string{"missing mandatory field S21.G00.06.001 in block S21.G00.06"},
		},
		{
			name: "value too long is masked",
			lines: func(t *testing.T) []string {
				decl := testutil.MonthlyDeclaration()
				i := slices.Index(decl, "S21.G00.30.002,'DOE'")
				require.GreaterOrEqual(t, i, 0)
				decl[i] = "S21.G00.30.002,'" + "AB" + strings.Repeat("X", 77) + "YZ'"
				return testutil.File(decl)
			},
			sentinel: fault.ErrBusiness,
			kind:     fault.KindBusiness,
			contains: []string{"value exceeds maximum length (80)", "field S21.G00.30.002", "value 'AB****YZ'", "line 22"},
			absent:   []string{"XXXX"},
		},
		{
			name: "length counts characters",
			lines: func(t *testing.T) []string {
				lines := testutil.Header()
				lines[7] = "S10.G00.01.002,'ÉÉÉÉÉÉ'"
				return lines
			},
			sentinel: fault.ErrBusiness,
			kind:     fault.KindBusiness,
			contains: []string{"value exceeds maximum length (5)", "value 'ÉÉÉÉÉÉ'"},
		},
		{
			name: "unknown enumerated code",
			lines: func(t *testing.T) []string {
				decl := testutil.MonthlyDeclaration()
				decl[0] = "S20.G00.05.001,'99'"
				return testutil.File(decl)
			},
			sentinel: fault.ErrInvalidEnum,
			kind:     fault.KindInvalidEnum,
			contains: []string{"invalid enum code", "field S20.G00.05.001", "value '99'", "line 12"},
		},
		{
			name: "invalid decimal",
			lines: func(t *testing.T) []string {
				decl := testutil.MonthlyDeclaration()
				i := slices.Index(decl, "S21.G00.40.013,'151.67'")
				require.GreaterOrEqual(t, i, 0)
				decl[i] = "S21.G00.40.013,'15,67'"
				return testutil.File(decl)
			},
			sentinel: fault.ErrBusiness,
			kind:     fault.KindBusiness,
			contains: []string{"invalid numeric format"},
		},
		{
			name: "invalid date",
			lines: func(t *testing.T) []string {
				decl := testutil.MonthlyDeclaration()
				decl[3] = "S20.G00.05.005,'31022025'"
				return testutil.File(decl)
			},
			sentinel: fault.ErrBusiness,
			kind:     fault.KindBusiness,
			contains: []string{"invalid date format (expected DDMMYYYY)", "line 15"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestReconciler(t, tc.opts...)

			_, err := r.ParseEnvelope(slices.Values(tc.lines(t)))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)
			kind, ok := fault.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, kind)
			for _, want := range tc.contains {
				assert.Contains(t, err.Error(), want)
			}
			for _, unwanted := range tc.absent {
				assert.NotContains(t, err.Error(), unwanted)
			}
		})
	}
}

func TestParse_SameBlockRestart(t *testing.T) {
	r, _ := newTestReconciler(t)
	decl := insertAfter(t, testutil.MonthlyDeclaration(), "S21.G00.73.002",
		"S21.G00.73.001,'3850775123456'",
		"S21.G00.73.002,'ZOE'",
	)

	env, err := r.ParseEnvelope(slices.Values(testutil.File(decl)))
	require.NoError(t, err)

	affiliations := env.Document.Query("Affiliation").Blocks
	require.Len(t, affiliations, 1)
	dependents := affiliations[0].Children("S21.G00.73")
	require.Len(t, dependents, 2, "the first field of the open block starts a sibling")
	assert.Equal(t, "DOE", dependents[0].Value("NomFamille").String())
	assert.Equal(t, "2850775123456", dependents[0].Value("Nir").String(), "a later field attaches to the open block")
	assert.Equal(t, "ZOE", dependents[1].Value("NomFamille").String())
	assert.Equal(t, "3850775123456", dependents[1].Value("Nir").String())
}

func TestParse_ForbiddenFieldStopsParsing(t *testing.T) {
	var closed []string
	r, _ := newTestReconciler(t, WithListener(func(b *model.Block) {
		closed = append(closed, b.Code)
	}))
	lines := testutil.File(insertAfter(t, testutil.EndOfContractDeclaration(), "S21.G00.40.001", "S21.G00.40.013,'100'"))
	forbiddenLine := slices.Index(lines, "S21.G00.40.013,'100'") + 1

	env, err := r.ParseEnvelope(slices.Values(lines))
	require.ErrorIs(t, err, fault.ErrStructure)
	assert.Nil(t, env)

	var f *fault.Error
	require.ErrorAs(t, err, &f)
	assert.Equal(t, forbiddenLine, f.Line)
	assert.Equal(t, []string{"S10.G00.02", "S10.G00.01", "S10.G00.00"}, closed,
		"only the header closes before the forbidden line")
}

const hclSchema = `
version = "H25V01"

segment "S10.G00.00" {
  name = "Envoi"
  field "S10.G00.00.001" {
    name = "NomLogiciel"
  }
}

segment "S20.G00.05" {
  name = "Declaration"
  field "S20.G00.05.001" {
    name    = "Nature"
    options = { "01" = "DSN mensuelle" }
  }
}

segment "S21.G00.06" {
  name = "Entreprise"
  field "S21.G00.06.001" {
    name   = "Siren"
    length = 9
  }
}

segment "S90.G00.90" {
  name = "Total"
  field "S90.G00.90.001" {
    name   = "NombreRubriques"
    type   = "N"
    length = 12
  }
  field "S90.G00.90.002" {
    name   = "NombreDSN"
    type   = "N"
    length = 12
  }
}

envelope {
  block "S10.G00.00" {
    min_occurs = 1
    max_occurs = 1
  }
  block "S20.G00.05" {}
  block "S90.G00.90" {
    min_occurs = 1
    max_occurs = 1
  }
}

nature "01" {
  label = "DSN mensuelle"
  usage = { "S21.G00.06.001" = "O" }
  block "S21.G00.06" {
    max_occurs = 1
  }
}
`

func TestParseEnvelope_HCLSchema(t *testing.T) {
	m, err := hcl_adapter.NewSchemaDecoder().Decode(context.Background(), []byte(hclSchema), "norm-H25V01.hcl")
	require.NoError(t, err)
	logger, _ := testutil.Logger(t)
	r := New(m, WithLogger(logger))

	lines := []string{
		"S10.G00.00.001,'NEODES'",
		"S20.G00.05.001,'01'",
		"S21.G00.06.001,'123456789'",
		"S90.G00.90.001,'5'",
		"S90.G00.90.002,'1'",
	}
	env, err := r.ParseEnvelope(slices.Values(lines))
	require.NoError(t, err)

	require.Len(t, env.Declarations, 1)
	assert.Equal(t, "DSN mensuelle", env.Declarations[0].Value("Nature").Label())
	company := child(t, env.Declarations[0], "S21.G00.06", 0)
	assert.Equal(t, "123456789", company.Value("Siren").String())

	// Without the nature line the company block has no place to go.
	_, err = r.ParseEnvelope(slices.Values(without(t, lines, "S20.G00.05.001")))
	require.ErrorIs(t, err, fault.ErrHierarchy)
}

func TestParse_NatureSwitch(t *testing.T) {
	r, _ := newTestReconciler(t)

	// 40.013 is forbidden only under nature 02, so the same contract line is
	// accepted in the monthly declaration that follows.
	lines := testutil.File(testutil.EndOfContractDeclaration(), testutil.MonthlyDeclaration())
	env, err := r.ParseEnvelope(slices.Values(lines))
	require.NoError(t, err)
	require.Len(t, env.Declarations, 2)
	assert.Len(t, env.Document.Query("FinContrat").Blocks, 1)
	assert.Len(t, env.Document.Query("Affiliation").Blocks, 1)
}

func TestEnvelope_Coherence(t *testing.T) {
	testCases := []struct {
		name     string
		lines    func() []string
		contains string
	}{
		{
			name:     "missing header",
			lines:    func() []string { d := testutil.MonthlyDeclaration(); return append(d, testutil.Footer(len(d), 1)...) },
			contains: "missing header block (S10)",
		},
		{
			name:     "missing footer",
			lines:    func() []string { return append(testutil.Header(), testutil.MonthlyDeclaration()...) },
			contains: "missing footer block (S90)",
		},
		{
			name: "declaration count mismatch",
			lines: func() []string {
				lines := testutil.File(testutil.MonthlyDeclaration())
				lines[len(lines)-1] = "S90.G00.90.002,'3'"
				return lines
			},
			contains: "footer declared 3 declarations but actual count is 1",
		},
		{
			name: "field count mismatch",
			lines: func() []string {
				lines := testutil.File(testutil.MonthlyDeclaration())
				lines[len(lines)-2] = "S90.G00.90.001,'7'"
				return lines
			},
			contains: "footer declared 7 fields but actual count is 37",
		},
		{
			name: "declared count beyond int32",
			lines: func() []string {
				lines := testutil.File(testutil.MonthlyDeclaration())
				lines[len(lines)-2] = "S90.G00.90.001,'3000000000'"
				return lines
			},
			contains: "footer declared 3000000000 fields but actual count is 37",
		},
		{
			name: "count not integral",
			lines: func() []string {
				lines := testutil.File(testutil.MonthlyDeclaration())
				lines[len(lines)-1] = "S90.G00.90.002,'1.5'"
				return lines
			},
			contains: "footer declarations count '1.5' is not an integer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestReconciler(t)
			_, err := r.ParseEnvelope(slices.Values(tc.lines()))
			require.ErrorIs(t, err, fault.ErrSequence)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestEnvelope_AbsentCountsAreNotChecked(t *testing.T) {
	r, _ := newTestReconciler(t)
	lines := testutil.File(testutil.MonthlyDeclaration())
	lines = slices.Delete(lines, len(lines)-2, len(lines)-1)

	env, err := r.ParseEnvelope(slices.Values(lines))
	require.NoError(t, err)
	assert.Nil(t, env.Footer.Value(FieldCountField))
}

func TestCheckCount_Large(t *testing.T) {
	def, err := testutil.Schema(t).Block("S90.G00.90")
	require.NoError(t, err)
	footer := model.NewBlock("S90.G00.90", def)
	huge := "123456789012345678901234567890"
	footer.Set(DeclarationCountField, value.Decimal(decimal.RequireFromString(huge)))

	err = checkCount(footer, DeclarationCountField, DeclarationCountName, "declarations", 1)
	require.ErrorIs(t, err, fault.ErrSequence)
	assert.Contains(t, err.Error(), "declared "+huge+" declarations")

	footer = model.NewBlock("S90.G00.90", def)
	footer.Set(FieldCountField, value.Decimal(decimal.NewFromInt(12)))
	assert.NoError(t, checkCount(footer, FieldCountField, FieldCountName, "fields", 12))
	assert.Error(t, checkCount(footer, FieldCountName, FieldCountName, "fields", 13), "lookup by readable name")
}

func TestListenerAndDetach(t *testing.T) {
	type closed struct {
		code     string
		children int
	}

	for _, detach := range []bool{false, true} {
		var got []closed
		r, _ := newTestReconciler(t,
			WithDetach(detach),
			WithListener(func(b *model.Block) {
				got = append(got, closed{b.Code, len(b.ChildCodes())})
			}),
		)

		env, err := r.ParseEnvelope(slices.Values(testutil.File()))
		require.NoError(t, err)

		assert.Equal(t, []closed{
			{"S10.G00.02", 0},
			{"S10.G00.01", 1},
			{"S10.G00.00", 1},
			{"S90.G00.90", 0},
		}, got, "detach=%v", detach)

		if detach {
			assert.Empty(t, env.Header.ChildCodes())
		} else {
			assert.Len(t, env.Header.Children("S10.G00.01"), 1)
		}
	}
}

func TestParseReader(t *testing.T) {
	t.Run("latin-1 input", func(t *testing.T) {
		r, _ := newTestReconciler(t)
		content := strings.Replace(testutil.Join(testutil.File()), "DUPONT", "B\xc9BERT", 1)

		doc, err := r.ParseReader(strings.NewReader(content), "iso-8859-1", 0)
		require.NoError(t, err)
		contact := doc.Query("ContactEmetteur").Blocks
		require.Len(t, contact, 1)
		assert.Equal(t, "BÉBERT", contact[0].Value("Nom").String())
	})

	t.Run("line too long", func(t *testing.T) {
		r, _ := newTestReconciler(t)
		content := testutil.Join(testutil.File())

		_, err := r.ParseReader(strings.NewReader(content), "utf-8", 20)
		require.ErrorIs(t, err, fault.ErrFormat)
		assert.Contains(t, err.Error(), "line exceeds maximum length of 20 characters [line 1]")
	})

	t.Run("unknown charset", func(t *testing.T) {
		r, _ := newTestReconciler(t)
		_, err := r.ParseReader(bytes.NewReader(nil), "ebcdic", 0)
		require.Error(t, err)
	})
}

func TestReconcilerReuse(t *testing.T) {
	lines := testutil.File(testutil.MonthlyDeclaration())
	// 14 is the exact block count of the file, so the counter must restart
	// with every parse.
	r, _ := newTestReconciler(t, WithMaxBlocks(14))

	first, err := r.ParseDocument(slices.Values(lines))
	require.NoError(t, err)
	second, err := r.ParseDocument(slices.Values(lines))
	require.NoError(t, err)
	assert.Equal(t, first.TotalFields, second.TotalFields)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.ParseEnvelope(slices.Values(lines))
		}(i)
	}
	wg.Wait()
	assert.NoError(t, errors.Join(errs...))
}
