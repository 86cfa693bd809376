package local

import (
	"fmt"
	"sync"

	"github.com/vanta-labs/vanta/src/models"
)

// ModelCatalog is an explicitly constructed registry of local generators.
// It replaces any notion of a process-wide model manager: whoever assembles
// a LocalModelController owns a catalog and passes it in, which keeps tests
// and concurrent controllers from sharing hidden state.
type ModelCatalog struct {
	mu      sync.RWMutex
	entries map[string]models.LocalGenerator
}

func NewModelCatalog() *ModelCatalog {
	return &ModelCatalog{entries: make(map[string]models.LocalGenerator)}
}

// Register adds a generator under its model name. Re-registering a name
// replaces the previous entry.
func (c *ModelCatalog) Register(gen models.LocalGenerator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[gen.ModelName()] = gen
}

// Resolve returns the generator registered under name.
func (c *ModelCatalog) Resolve(name string) (models.LocalGenerator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gen, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("model %q is not registered in the catalog", name)
	}
	return gen, nil
}

// Names lists the registered model names.
func (c *ModelCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	return names
}
