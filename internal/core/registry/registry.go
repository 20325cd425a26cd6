package registry

import (
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/models"
)

// Loader registers one or more technologies into r. It runs at most once per concurrent lookup burst.
type Loader func(r *Registry) error

type entry struct {
	desc    models.TechnologyDescriptor
	factory core.Factory
}

type provider struct {
	desc models.TechnologyDescriptor
	load Loader
}

// Registry maps technology names to factories.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]entry
	providers map[string]provider
	loads     singleflight.Group
}

func New() *Registry {
	return &Registry{
		entries:   make(map[string]entry),
		providers: make(map[string]provider),
	}
}

// Default is the process-wide registry populated at startup.
var Default = New()

// Register inserts or replaces the factory for desc.Name.
func (r *Registry) Register(desc models.TechnologyDescriptor, factory core.Factory) {
	r.mu.Lock()
	r.entries[desc.Name] = entry{desc: desc, factory: factory}
	r.mu.Unlock()
	slog.Debug("registry.register", "technology", desc.Name)
}

// Provide records a lazy loader for a technology that is registered on first use.
func (r *Registry) Provide(desc models.TechnologyDescriptor, load Loader) {
	r.mu.Lock()
	r.providers[desc.Name] = provider{desc: desc, load: load}
	r.mu.Unlock()
}

// Get constructs the technology registered under name, loading it first if needed.
func (r *Registry) Get(name string) (core.Technology, error) {
	e, ok := r.lookup(name)
	if !ok {
		if err := r.load(name); err != nil {
			return nil, err
		}
		if e, ok = r.lookup(name); !ok {
			return nil, &core.UnknownTechnologyError{Name: name}
		}
	}

	tech, err := e.factory()
	if err != nil {
		return nil, err
	}
	return tech, nil
}

// List returns descriptors of registered and loadable technologies, sorted by name.
func (r *Registry) List() []models.TechnologyDescriptor {
	r.mu.RLock()
	out := make([]models.TechnologyDescriptor, 0, len(r.entries)+len(r.providers))
	for _, e := range r.entries {
		out = append(out, e.desc)
	}
	for name, p := range r.providers {
		if _, loaded := r.entries[name]; !loaded {
			out = append(out, p.desc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

func (r *Registry) load(name string) error {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return &core.UnknownTechnologyError{Name: name}
	}

	_, err, _ := r.loads.Do(name, func() (any, error) {
		if _, done := r.lookup(name); done {
			return nil, nil
		}
		slog.Info("registry.load", "technology", name)
		return nil, p.load(r)
	})
	if err != nil {
		slog.Error("registry.load.fail", "technology", name, "err", err)
		return core.NewBackendError(name, "technology could not be loaded", err)
	}
	return nil
}

// RegisterTechnology registers a factory described by a sample instance.
func (r *Registry) RegisterTechnology(sample core.Technology, factory core.Factory) {
	r.Register(core.Describe(sample), factory)
}

