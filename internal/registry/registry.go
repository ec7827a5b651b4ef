package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/eugenenazirov/traincfg/internal/schema"
)

const maxNameLength = 64

var (
	// ErrNotFound indicates no configuration is stored under the given name.
	ErrNotFound = errors.New("configuration not found")
	// ErrInvalidName indicates the name violates the naming rules.
	ErrInvalidName = errors.New("name must be 1-64 characters of a-z, 0-9, '-', '_' or '.'")
)

// Registry provides access to named, validated training configurations.
type Registry interface {
	Get(name string) (*schema.Config, error)
	Put(name string, cfg *schema.Config) error
	Delete(name string) error
	List() []string
}

// MemoryRegistry keeps configurations in-memory and guards access with a
// RWMutex. Stored and returned configurations are defensive copies.
type MemoryRegistry struct {
	mu      sync.RWMutex
	configs map[string]*schema.Config
}

// NewMemoryRegistry initialises an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		configs: make(map[string]*schema.Config),
	}
}

// Get returns a copy of the configuration stored under name.
func (r *MemoryRegistry) Get(name string) (*schema.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg.Clone(), nil
}

// Put stores a copy of cfg under name, replacing any previous entry.
func (r *MemoryRegistry) Put(name string, cfg *schema.Config) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if cfg == nil {
		return errors.New("configuration must not be nil")
	}

	r.mu.Lock()
	r.configs[name] = cfg.Clone()
	r.mu.Unlock()

	return nil
}

// Delete removes the configuration stored under name.
func (r *MemoryRegistry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.configs[name]; !ok {
		return ErrNotFound
	}
	delete(r.configs, name)
	return nil
}

// List returns the stored names in sorted order.
func (r *MemoryRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validName(name string) bool {
	if len(name) == 0 || len(name) > maxNameLength {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}
