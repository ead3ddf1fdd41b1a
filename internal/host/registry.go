package host

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Factory builds an application handler. It runs once, at startup.
type Factory func(ctx context.Context) (http.Handler, error)

// Registry maps handler names to factories. Names are case-sensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	name = strings.TrimSpace(name)
	if name == "" || f == nil {
		return fmt.Errorf("register handler: name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.factories[name] = f
	return nil
}

// Names lists registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the handler registered under name.
func (r *Registry) Resolve(ctx context.Context, name string) (http.Handler, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrHandlerNotFound, name, strings.Join(r.Names(), ", "))
	}
	h, err := f(ctx)
	if err != nil {
		return nil, fmt.Errorf("build handler %q: %w", name, err)
	}
	if h == nil {
		return nil, fmt.Errorf("build handler %q: factory returned nil", name)
	}
	return h, nil
}
