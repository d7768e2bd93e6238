package chart

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

// Field names a chart request parameter.
type Field string

const (
	FieldX     Field = "x_axis"
	FieldY     Field = "y_axis"
	FieldColor Field = "color"
	FieldTitle Field = "title"
)

// builder turns a validated request into a figure.
type builder func(ds *dataset.Dataset, req Request) *Figure

// Kind describes one chart type: which request fields it needs and how
// it is built.
type Kind struct {
	Type     string
	Label    string
	Required []Field
	Optional []Field

	build builder
}

// Accepts reports whether f is a required or optional field of the kind.
func (k Kind) Accepts(f Field) bool {
	for _, r := range k.Required {
		if r == f {
			return true
		}
	}
	for _, o := range k.Optional {
		if o == f {
			return true
		}
	}
	return false
}

var (
	registry   = make(map[string]Kind)
	registryMu sync.RWMutex
)

// Register adds a chart kind to the registry.
// Panics if a kind with the same type is already registered.
func Register(k Kind) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[k.Type]; exists {
		panic(fmt.Sprintf("chart kind already registered: %s", k.Type))
	}
	registry[k.Type] = k
}

// Lookup returns the kind registered for a chart type.
func Lookup(chartType string) (Kind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	k, ok := registry[chartType]
	return k, ok
}

// Kinds returns all registered kinds sorted by type.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Kind, 0, len(registry))
	for _, k := range registry {
		result = append(result, k)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})
	return result
}

// Types returns the registered chart type names, sorted.
func Types() []string {
	kinds := Kinds()
	types := make([]string, len(kinds))
	for i, k := range kinds {
		types[i] = k.Type
	}
	return types
}

func init() {
	pair := []Field{FieldX, FieldY}
	common := []Field{FieldColor, FieldTitle}

	Register(Kind{Type: "scatter", Label: "Scatter", Required: pair, Optional: common, build: buildScatter})
	Register(Kind{Type: "line", Label: "Line", Required: pair, Optional: common, build: buildLine})
	Register(Kind{Type: "bar", Label: "Bar", Required: pair, Optional: common, build: buildBar})
	Register(Kind{Type: "histogram", Label: "Histogram", Required: []Field{FieldX}, Optional: common, build: buildHistogram})
	Register(Kind{Type: "box", Label: "Box", Required: []Field{FieldX}, Optional: []Field{FieldY, FieldColor, FieldTitle}, build: buildBox})
}
