// Package validation tracks the presence rules of fields while a declaration
// is read: mandatory fields owed by open blocks and forbidden fields.
package validation

import (
	"sort"
	"strings"

	"github.com/vk/neodes/internal/fault"
	"github.com/vk/neodes/internal/schema"
)

// State is the presence-rule state of one declaration being read. It is not
// safe for concurrent use.
type State struct {
	model   *schema.Model
	nature  *schema.Nature
	pending map[string]struct{}
}

// New creates a State with no active nature.
func New(model *schema.Model) *State {
	return &State{model: model, pending: make(map[string]struct{})}
}

// SwitchNature activates the rules of nature, which may be nil. Fields still
// owed under the previous nature remain owed.
func (s *State) SwitchNature(nature *schema.Nature) {
	s.nature = nature
}

// Nature returns the active nature.
func (s *State) Nature() *schema.Nature {
	return s.nature
}

// Check fails when field is forbidden globally or under the active nature.
func (s *State) Check(field string, line int) error {
	if s.model.GlobalRule(field) == schema.UsageForbidden || s.nature.Rule(field) == schema.UsageForbidden {
		return fault.Structure("forbidden field %s", field).AtLine(line)
	}
	return nil
}

// FieldSeen records that field has been provided.
func (s *State) FieldSeen(field string) {
	delete(s.pending, field)
}

// BlockOpened marks the block's mandatory fields as owed.
func (s *State) BlockOpened(def *schema.BlockDefinition) {
	if def == nil {
		return
	}
	for _, field := range def.FieldCodes() {
		if s.isMandatory(field) {
			s.pending[field] = struct{}{}
		}
	}
}

// BlockClosed fails when a field of the closing block is still owed and still
// mandatory under the active rules. Owed fields no longer mandatory are dropped.
func (s *State) BlockClosed(code string, line int) error {
	prefix := code + "."
	var owed []string
	for field := range s.pending {
		if strings.HasPrefix(field, prefix) {
			owed = append(owed, field)
		}
	}
	sort.Strings(owed)

	for _, field := range owed {
		if s.isMandatory(field) {
			return fault.Structure("missing mandatory field %s in block %s", field, code).AtLine(line)
		}
		delete(s.pending, field)
	}
	return nil
}

// Pending returns the owed fields in order.
func (s *State) Pending() []string {
	out := make([]string, 0, len(s.pending))
	for field := range s.pending {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

func (s *State) isMandatory(field string) bool {
	return s.model.GlobalRule(field) == schema.UsageMandatory || s.nature.Rule(field) == schema.UsageMandatory
}
