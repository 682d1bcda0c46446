package hcl_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/neodes/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional attributes with zero-width
// expressions, so a nil check alone is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	isDefined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// evalStringMap evaluates a map or object literal such as
// `{ "01" = "Masculin" }` into a Go map. Element values are converted to
// strings, so numbers and bools are accepted.
func evalStringMap(ctx context.Context, expr hcl.Expression, attrName string) (map[string]string, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid value for '%s': %w", attrName, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("'%s' must be a known value", attrName)
	}

	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("'%s' must be a map, got %s", attrName, ty.FriendlyName())
	}

	out := make(map[string]string, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("'%s': value for key %q: %w", attrName, k.AsString(), err)
		}
		if sv.IsNull() {
			return nil, fmt.Errorf("'%s': null value for key %q", attrName, k.AsString())
		}
		out[k.AsString()] = sv.AsString()
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
