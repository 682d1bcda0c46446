package registry

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/neodes/internal/ctxlog"
	"github.com/vk/neodes/internal/hcl_adapter"
	"github.com/vk/neodes/internal/schema"
	"golang.org/x/sync/singleflight"
)

// Decoder turns the bytes of a schema resource into a model. source names
// the resource in error messages.
type Decoder interface {
	Decode(ctx context.Context, data []byte, source string) (*schema.Model, error)
}

// Registry loads and caches schema models. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	cache map[string]*schema.Model
	group singleflight.Group

	decoders map[string]Decoder
	readFile func(path string) ([]byte, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithDecoder registers d for files ending with ext, such as ".json".
func WithDecoder(ext string, d Decoder) Option {
	return func(r *Registry) {
		r.decoders[strings.ToLower(ext)] = d
	}
}

// WithFS reads resources from fsys instead of the local file system.
func WithFS(fsys fs.FS) Option {
	return func(r *Registry) {
		r.readFile = func(path string) ([]byte, error) {
			return fs.ReadFile(fsys, path)
		}
	}
}

// New creates a registry decoding .yaml, .yml and .hcl resources.
func New(opts ...Option) *Registry {
	r := &Registry{
		cache: make(map[string]*schema.Model),
		decoders: map[string]Decoder{
			".yaml": YAMLDecoder{},
			".yml":  YAMLDecoder{},
			".hcl":  hcl_adapter.NewSchemaDecoder(),
		},
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func cacheKey(path string, extensions []string) string {
	return path + "#" + strings.Join(extensions, ",")
}

// Load returns the model stored at path merged with the named extension sets,
// in order. The first successful load is cached; failures are not.
func (r *Registry) Load(ctx context.Context, path string, extensions ...string) (*schema.Model, error) {
	key := cacheKey(path, extensions)
	if m, ok := r.cached(key); ok {
		ctxlog.FromContext(ctx).Debug("Schema served from cache.", "path", path)
		return m, nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		if m, ok := r.cached(key); ok {
			return m, nil
		}
		m, err := r.load(ctx, path, extensions)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[key] = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		ctxlog.FromContext(ctx).Debug("Schema load shared with a concurrent caller.", "path", path)
	}
	return v.(*schema.Model), nil
}

// Len is the number of cached models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Registry) cached(key string) (*schema.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.cache[key]
	return m, ok
}

func (r *Registry) load(ctx context.Context, path string, extensions []string) (*schema.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading schema resource.", "path", path, "extensions", extensions)

	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := r.decoders[ext]
	if !ok {
		return nil, fmt.Errorf("no schema decoder for %q files (%s)", ext, path)
	}

	sets := make([]ExtensionSet, 0, len(extensions))
	for _, name := range extensions {
		set, ok := Extension(name)
		if !ok {
			return nil, fmt.Errorf("unknown extension set %q", name)
		}
		sets = append(sets, set)
	}

	data, err := r.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}

	m, err := dec.Decode(ctx, data, path)
	if err != nil {
		return nil, err
	}

	Merge(m, sets...)

	if err := Validate(ctx, m); err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}

	logger.Info("Schema loaded successfully.", "path", path, "version", m.Version, "blocks", len(m.Blocks), "natures", len(m.Natures))
	return m, nil
}
