// Package stats collects per-component statistics and emits them as a
// nested YAML mapping at the end of a run.
package stats

import (
	"io"

	"gopkg.in/yaml.v3"
)

// A Provider reports its statistics as a flat name-to-value mapping.
type Provider interface {
	CollectStats() map[string]any
}

type entry struct {
	name     string
	provider Provider
}

// A Registry holds the providers of a simulation in registration order.
type Registry struct {
	entries []entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider under a component name.
func (r *Registry) Register(name string, p Provider) {
	r.entries = append(r.entries, entry{name: name, provider: p})
}

// Collect gathers every provider's stats into one nested mapping.
func (r *Registry) Collect() map[string]map[string]any {
	out := make(map[string]map[string]any, len(r.entries))
	for _, e := range r.entries {
		out[e.name] = e.provider.CollectStats()
	}

	return out
}

// Emit writes the collected stats as YAML.
func (r *Registry) Emit(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	return enc.Encode(r.Collect())
}
