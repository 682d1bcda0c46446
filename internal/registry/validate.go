package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/neodes/internal/ctxlog"
	"github.com/vk/neodes/internal/schema"
	"github.com/vk/neodes/internal/token"
)

// Validate checks the internal consistency of a decoded model. Negative
// lengths and missing field definitions are errors. Fields declared outside their
// own block and mapped blocks without a definition are only logged.
func Validate(ctx context.Context, m *schema.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	codes := make([]string, 0, len(m.Blocks))
	for code := range m.Blocks {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		def := m.Blocks[code]
		for _, field := range def.FieldCodes() {
			if token.BlockCode(field) != code {
				logger.Warn("Field declared outside its own block.", "block", code, "field", field)
			}
			f, _ := def.Field(field)
			if f == nil {
				errs = append(errs, fmt.Sprintf("block '%s', field '%s': empty definition", code, field))
				continue
			}
			if f.MaxLength < 0 {
				errs = append(errs, fmt.Sprintf("block '%s', field '%s': negative length %d", code, field, f.MaxLength))
			}
		}
	}

	var undefined []string
	seen := make(map[string]struct{})
	var walk func(schema.Mappings)
	walk = func(level schema.Mappings) {
		for code, bm := range level {
			if _, ok := seen[code]; !ok {
				seen[code] = struct{}{}
				if !m.HasBlock(code) {
					undefined = append(undefined, code)
				}
			}
			if bm != nil {
				walk(bm.Children)
			}
		}
	}
	walk(m.Envelope)
	for _, n := range m.Natures {
		walk(n.Map)
	}
	if len(undefined) > 0 {
		sort.Strings(undefined)
		logger.Warn("Schema maps blocks it does not define.", "version", m.Version, "blocks", undefined)
	}

	if len(errs) > 0 {
		return fmt.Errorf("schema validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
