// factory.go implements the store backend registry, mapping backend names
// (memory, postgres) to constructor functions.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hookline/hookline/internal/config"
)

// FactoryFunc creates a store backend from configuration.
type FactoryFunc func(*config.Config) (Store, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]FactoryFunc)
)

// Register registers a store backend factory
func Register(name string, factory FactoryFunc) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// Registered returns the names of all registered backends, sorted.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the store backend selected by cfg.Storage.Backend
func New(cfg *config.Config) (Store, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Storage.Backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend: %q (registered: %s)",
			cfg.Storage.Backend, strings.Join(Registered(), ", "))
	}
	return factory(cfg)
}
