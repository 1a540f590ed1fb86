package source

import (
	"github.com/rotisserie/eris"

	"github.com/grantscope/grants-cli/internal/config"
)

// Registry maps source names to their adapters in registration order.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry creates a registry populated with every adapter.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{sources: make(map[string]Source)}

	r.Register(NewOpenPhil(cfg.Sources.OpenPhilURL))
	r.Register(NewGiveWell(cfg.Sources.GiveWellURL))
	r.Register(NewEAFunds(cfg.Sources.EAFundsURL))
	r.Register(NewSFF(cfg.Sources.SFFURL))
	if cfg.Sources.ArchiveURL != "" {
		r.Register(NewArchive(cfg.Sources.ArchiveURL))
	}

	return r
}

// Register adds a source to the registry. The zero Registry is usable.
func (r *Registry) Register(s Source) {
	if r.sources == nil {
		r.sources = make(map[string]Source)
	}
	name := s.Name()
	r.sources[name] = s
	r.order = append(r.order, name)
}

// Get returns a source by name.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, eris.Errorf("source: unknown source %q", name)
	}
	return s, nil
}

// Select returns the named sources, or all sources when names is empty,
// in registration order.
func (r *Registry) Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	result := make([]Source, 0, len(names))
	for _, name := range names {
		s, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

// All returns every source in registration order.
func (r *Registry) All() []Source {
	result := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.sources[name])
	}
	return result
}

// Names returns registered source names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
