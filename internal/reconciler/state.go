package reconciler

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/vk/neodes/internal/fault"
	"github.com/vk/neodes/internal/model"
	"github.com/vk/neodes/internal/schema"
	"github.com/vk/neodes/internal/token"
	"github.com/vk/neodes/internal/validation"
	"github.com/vk/neodes/internal/value"
)

// state is the progress of one parse. It is created per call and never
// shared.
type state struct {
	r          *Reconciler
	doc        *model.Document
	rules      *validation.State
	nature     *schema.Nature
	stack      []*model.Block
	mappings   []schema.Mappings
	blockCount int
	line       int
}

func newState(r *Reconciler) *state {
	doc := &model.Document{Version: r.model.Version}
	return &state{
		r:     r,
		doc:   doc,
		rules: validation.New(r.model),
		// Depth 0 holds the envelope layout.
		mappings: []schema.Mappings{r.model.Envelope},
	}
}

// consume processes one raw line.
func (s *state) consume(raw string) error {
	s.line++
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	s.doc.TotalFields++

	tok, err := token.Tokenize(raw)
	if err != nil {
		return s.fail(err)
	}

	if tok.Field == s.r.natureField {
		s.switchNature(strings.ReplaceAll(tok.Value, "'", ""))
	}

	if err := s.rules.Check(tok.Field, s.line); err != nil {
		return s.fail(err)
	}

	blockCode := tok.Block()
	def, err := s.r.model.Block(blockCode)
	if err != nil {
		return s.fail(fault.Format("unknown block for field %s", tok.Field))
	}

	field, ok := def.Field(tok.Field)
	if !ok {
		s.doc.SkippedLines++
		s.r.logger.Warn("Skipping line with undeclared field.",
			"line", s.line, "field", tok.Field, "block", blockCode)
		return nil
	}

	if err := s.reconcile(blockCode, def, tok.Field); err != nil {
		return s.fail(err)
	}

	s.rules.FieldSeen(tok.Field)

	if field.MaxLength > 0 && utf8.RuneCountInString(tok.Value) > field.MaxLength {
		return s.fail(fault.Business("value exceeds maximum length (%d)", field.MaxLength).
			WithField(tok.Field, tok.Value))
	}

	v, err := value.Map(tok.Value, field, s.line, tok.Field)
	if err != nil {
		return s.fail(err)
	}

	if top := s.top(); top != nil {
		top.Set(tok.Field, v)
	}
	return nil
}

// finish closes the blocks still open, innermost first.
func (s *state) finish() error {
	for len(s.stack) > 0 {
		if err := s.pop(); err != nil {
			return s.fail(err)
		}
	}
	return nil
}

func (s *state) switchNature(code string) {
	s.nature = s.r.model.Nature(code)
	s.rules.SwitchNature(s.nature)
	if s.nature == nil {
		s.r.logger.Debug("Unknown nature, structural rules only.", "line", s.line, "nature", code)
	}
}

// reconcile makes the block owning field the top of the stack, closing and
// opening blocks as needed.
func (s *state) reconcile(code string, def *schema.BlockDefinition, field string) error {
	// Every pass either returns or pops one block, so depth+2 passes suffice.
	for range s.r.maxDepth + 2 {
		top := s.top()
		if top == nil {
			if s.level().Has(code) || !s.r.model.IsOfficialBlock(code) {
				return s.push(code, def)
			}
			return fault.Hierarchy("block %s not allowed at root level", code)
		}

		switch {
		case top.Code == code:
			if field != def.FirstField() {
				return nil
			}
			// The first field of a block starts a new occurrence.
		case top.Def != nil && top.Def.HasField(field):
			return nil
		case s.level().Has(code):
			return s.push(code, def)
		case s.declaredAbove(code):
		case !s.r.model.IsOfficialBlock(code):
			return s.push(code, def)
		}

		if err := s.pop(); err != nil {
			return err
		}
	}
	return fault.Hierarchy("cannot place block %s", code)
}

// push opens a new block instance under the current top.
func (s *state) push(code string, def *schema.BlockDefinition) error {
	if len(s.stack) >= s.r.maxDepth {
		return fault.Hierarchy("maximum depth reached (%d) for block %s", s.r.maxDepth, code)
	}
	s.blockCount++
	if s.blockCount > s.r.maxBlocks {
		s.r.logger.Debug("Block limit reached.", "line", s.line, "limit", s.r.maxBlocks)
		return fault.Hierarchy("maximum number of blocks reached (%d)", s.r.maxBlocks)
	}

	block := model.NewBlock(code, def)
	s.rules.BlockOpened(def)

	level := s.level()
	if top := s.top(); top == nil {
		s.doc.AddRoot(block)
	} else {
		top.AddChild(block)
	}
	s.stack = append(s.stack, block)

	switch children, ok := level.ChildrenOf(code); {
	case !ok:
		// Vendor blocks carry no layout of their own.
		s.mappings = append(s.mappings, schema.Mappings{})
	case code == s.r.groupRoot && s.nature != nil:
		s.mappings = append(s.mappings, s.nature.Map)
	default:
		s.mappings = append(s.mappings, children)
	}
	return nil
}

// pop closes the top block and notifies listeners.
func (s *state) pop() error {
	n := len(s.stack) - 1
	block := s.stack[n]
	s.stack[n] = nil
	s.stack = s.stack[:n]
	s.mappings = s.mappings[:len(s.mappings)-1]

	if err := s.rules.BlockClosed(block.Code, s.line); err != nil {
		return err
	}
	for _, l := range s.r.listeners {
		l(block)
	}
	if s.r.detach {
		block.DetachChildren()
	}
	return nil
}

func (s *state) top() *model.Block {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// level is the layout allowed under the current top.
func (s *state) level() schema.Mappings {
	return s.mappings[len(s.mappings)-1]
}

// declaredAbove reports whether any open level, envelope included, lays out
// code.
func (s *state) declaredAbove(code string) bool {
	for _, m := range s.mappings {
		if m.Has(code) {
			return true
		}
	}
	return false
}

// fail stamps err with the current line and the masking policy.
func (s *state) fail(err error) error {
	var f *fault.Error
	if errors.As(err, &f) {
		f.AtLine(s.line).WithPolicy(s.r.policy)
	}
	return err
}
