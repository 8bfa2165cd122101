package extension

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Registry indexes extensions of one kind by name, preserving
// first-registration order. It is generic so plugins and processors
// share the discovery, indexing and config-seeding behavior without a
// duck-typed common manager.
type Registry[T Extension] struct {
	mu     sync.RWMutex
	exts   map[string]T
	order  []string
	kind   string
	config *ConfigStore
	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption[T Extension] func(*Registry[T])

// WithConfigStore attaches the persisted config document; first-time
// registrations seed their entry from schema defaults.
func WithConfigStore[T Extension](cs *ConfigStore) RegistryOption[T] {
	return func(r *Registry[T]) { r.config = cs }
}

// WithLogger sets the structured logger used for discovery reporting.
func WithLogger[T Extension](l *slog.Logger) RegistryOption[T] {
	return func(r *Registry[T]) { r.logger = l }
}

// NewRegistry creates a registry for one extension kind ("plugin" or
// "processor"); kind only labels log lines and script filtering.
func NewRegistry[T Extension](kind string, opts ...RegistryOption[T]) *Registry[T] {
	r := &Registry[T]{
		exts:   make(map[string]T),
		kind:   kind,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts or overwrites by name. The first registration of a
// name seeds its config entry from schema defaults when a config store
// is attached.
func (r *Registry[T]) Register(ext T) {
	name := ext.Name()

	r.mu.Lock()
	if _, exists := r.exts[name]; !exists {
		r.order = append(r.order, name)
	}
	r.exts[name] = ext
	r.mu.Unlock()

	if r.config != nil && !r.config.Has(name) {
		if err := r.config.Seed(name, ext.ConfigSchema()); err != nil {
			r.logger.Warn("seeding extension config failed",
				slog.String("kind", r.kind),
				slog.String("name", name),
				slog.String("error", err.Error()))
		}
	}
}

// Get returns the extension registered under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.exts[name]
	return ext, ok
}

// List returns all extensions in registration order.
func (r *Registry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.exts[name])
	}
	return out
}

// Names returns all registered names in registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered extensions.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exts)
}

// Enabled reports whether name is enabled; unconfigured extensions
// default to enabled.
func (r *Registry[T]) Enabled(name string) bool {
	if r.config == nil {
		return true
	}
	return r.config.Enabled(name)
}

// LoadBuiltins runs the fixed factory list for builtin extensions. A
// factory failure is logged and skipped, never fatal.
func (r *Registry[T]) LoadBuiltins(factories ...func() (T, error)) {
	for _, factory := range factories {
		ext, err := factory()
		if err != nil {
			r.logger.Error("builtin load failed",
				slog.String("kind", r.kind),
				slog.String("error", err.Error()))
			continue
		}
		r.Register(ext)
	}
}

// DiscoverScripts loads every *.tengo unit in dir through load and
// registers the results. Units are arbitrary third-party code: a unit
// that fails to load is logged and skipped, and discovery continues. A
// missing directory is not an error. Returns how many units loaded.
func (r *Registry[T]) DiscoverScripts(dir string, load func(path string) (T, error)) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("script directory unreadable",
				slog.String("kind", r.kind),
				slog.String("dir", dir),
				slog.String("error", err.Error()))
		}
		return 0
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tengo") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ext, err := load(path)
		if err != nil {
			r.logger.Error("script unit load failed",
				slog.String("kind", r.kind),
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		r.Register(ext)
		loaded++
	}
	return loaded
}
