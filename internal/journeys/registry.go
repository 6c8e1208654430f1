package journeys

import (
	"fmt"
	"sort"
	"time"

	"github.com/rahul/synthetics/internal/journey"
)

// Options parameterize a journey when it is built.
type Options struct {
	StartURL string
	Timeout  time.Duration
	// Pause is the length of the explicit sleeps in a journey.
	Pause time.Duration
}

// Factory builds a runnable journey.
type Factory func(opts Options) *journey.Journey

// Registry maps journey names to their factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Default returns a registry with every bundled journey.
func Default() *Registry {
	r := NewRegistry()
	r.Register(NewRelicSearchName, NewRelicSearch)
	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get builds the named journey.
func (r *Registry) Get(name string, opts Options) (*journey.Journey, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown journey %q", name)
	}
	return f(opts), nil
}

// Names lists registered journeys in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
