package simulator

import (
	"github.com/rahul/synthetics/internal/observability"
)

// Insights stands in for the platform's custom attribute store. Locally
// nothing is kept; every call just says so.
type Insights struct {
	log *observability.Logger
}

func NewInsights(log *observability.Logger) *Insights {
	return &Insights{log: log}
}

func (i *Insights) unsupported(op string) {
	i.log.Console("util.insights.%s(): not supported ignoring.", op)
	i.log.Log(observability.Event{
		Type: observability.EventTypeInsights,
		Data: map[string]string{"op": op},
	})
}

func (i *Insights) Set(key string, value any) { i.unsupported("set") }

func (i *Insights) Get(key string) (any, bool) {
	i.unsupported("get")
	return nil, false
}

func (i *Insights) GetKeys() []string {
	i.unsupported("getKeys")
	return nil
}

func (i *Insights) Has(key string) bool {
	i.unsupported("has")
	return false
}

func (i *Insights) Unset(key string) { i.unsupported("unset") }

func (i *Insights) UnsetAll() { i.unsupported("unsetAll") }
