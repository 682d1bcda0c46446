// Package reconciler rebuilds the block tree of a declaration from its flat
// stream of field lines.
//
// A Reconciler holds configuration only. Every call to ParseDocument,
// ParseEnvelope or ParseReader creates its own parse state, so one Reconciler
// can serve many files, sequentially or from several goroutines.
package reconciler

import (
	"io"
	"iter"
	"log/slog"

	"github.com/vk/neodes/internal/mask"
	"github.com/vk/neodes/internal/model"
	"github.com/vk/neodes/internal/schema"
	"github.com/vk/neodes/internal/source"
)

const (
	DefaultMaxDepth  = 32
	DefaultMaxBlocks = 100_000

	// DefaultNatureField is the field whose value selects the nature of the
	// declaration that follows.
	DefaultNatureField = "S20.G00.05.001"
	// DefaultGroupRoot is the block under which the nature's map applies.
	DefaultGroupRoot = "S20.G00.05"
)

// BlockListener is notified of every block once it is complete.
type BlockListener func(*model.Block)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for skipped lines and limit events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxDepth bounds the number of simultaneously open blocks.
func WithMaxDepth(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithMaxBlocks bounds the number of blocks one parse may create.
func WithMaxBlocks(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxBlocks = n
		}
	}
}

// WithListener adds a listener called, in close order, for every completed
// block. Listeners run before children are detached.
func WithListener(l BlockListener) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.listeners = append(r.listeners, l)
		}
	}
}

// WithDetach drops the children of every block once its listeners ran,
// keeping memory flat on large files.
func WithDetach(detach bool) Option {
	return func(r *Reconciler) {
		r.detach = detach
	}
}

// WithMaskPolicy sets the policy masking values quoted in faults.
func WithMaskPolicy(p mask.Policy) Option {
	return func(r *Reconciler) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithNatureField overrides the nature selector field and the block opening
// a declaration group.
func WithNatureField(field, groupRoot string) Option {
	return func(r *Reconciler) {
		if field != "" {
			r.natureField = field
		}
		if groupRoot != "" {
			r.groupRoot = groupRoot
		}
	}
}

// Reconciler turns line streams into documents for one schema.
type Reconciler struct {
	model       *schema.Model
	logger      *slog.Logger
	maxDepth    int
	maxBlocks   int
	listeners   []BlockListener
	detach      bool
	policy      mask.Policy
	natureField string
	groupRoot   string
}

// New creates a Reconciler for m.
func New(m *schema.Model, opts ...Option) *Reconciler {
	r := &Reconciler{
		model:       m,
		logger:      slog.Default(),
		maxDepth:    DefaultMaxDepth,
		maxBlocks:   DefaultMaxBlocks,
		policy:      mask.Default,
		natureField: DefaultNatureField,
		groupRoot:   DefaultGroupRoot,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Model returns the schema the Reconciler reads against.
func (r *Reconciler) Model() *schema.Model {
	return r.model
}

// ParseDocument reads lines into a Document, then checks the footer counts
// against what was read.
func (r *Reconciler) ParseDocument(lines iter.Seq[string]) (*model.Document, error) {
	doc, err := r.read(lines)
	if err != nil {
		return nil, err
	}
	if _, err := r.assemble(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseEnvelope reads lines and returns the header / declarations / footer
// view of the file.
func (r *Reconciler) ParseEnvelope(lines iter.Seq[string]) (*model.Envelope, error) {
	doc, err := r.read(lines)
	if err != nil {
		return nil, err
	}
	return r.assemble(doc)
}

// ParseReader decodes rd with charset and parses it as a document. Lines
// longer than maxLineLength characters are rejected; a value <= 0 selects
// source.DefaultMaxLineLength. A read error wins over the parse error it
// caused.
func (r *Reconciler) ParseReader(rd io.Reader, charset string, maxLineLength int) (*model.Document, error) {
	src, err := source.NewReader(rd, charset, maxLineLength)
	if err != nil {
		return nil, err
	}
	doc, err := r.ParseDocument(src.Lines())
	if srcErr := src.Err(); srcErr != nil {
		return nil, srcErr
	}
	return doc, err
}

func (r *Reconciler) read(lines iter.Seq[string]) (*model.Document, error) {
	st := newState(r)
	for line := range lines {
		if err := st.consume(line); err != nil {
			return nil, err
		}
	}
	if err := st.finish(); err != nil {
		return nil, err
	}
	return st.doc, nil
}
