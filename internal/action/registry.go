package action

import (
	"sync"

	apperrors "github.com/allisson/actiongate/internal/errors"
	appvalidation "github.com/allisson/actiongate/internal/validation"
)

// Registry holds the registered actions. It is an explicit dependency of the
// dispatcher, not package-level state, so tests can build isolated registries.
//
// The registry resolves disabled actions: enabled-ness is a dispatch policy,
// enforced by the dispatcher, and introspection tooling still needs to reach
// a disabled action's handler and descriptor.
type Registry struct {
	mu          sync.RWMutex
	factories   map[string]Factory
	descriptors map[string]*Descriptor
	instances   map[string]Handler
}

// Register adds an action under the given key. Re-registering an existing key
// replaces the previous registration (last write wins) and drops any memoized
// instance. Returns ErrInvalidInput when the key violates the action key
// grammar.
func (r *Registry) Register(key string, factory Factory) error {
	if !appvalidation.IsValidActionKey(key) {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "invalid action key")
	}
	if factory == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "nil action factory")
	}

	// Probe outside the lock: factories may do construction work.
	probe := factory()
	descriptor := &Descriptor{
		Key:                 key,
		Enabled:             true,
		Version:             probe.Version(),
		RequiredPermissions: probe.RequiredPermissions(),
		Documentation:       probe.Documentation(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.descriptors[key]; ok {
		descriptor.Enabled = existing.Enabled
	}
	r.factories[key] = factory
	r.descriptors[key] = descriptor
	delete(r.instances, key)
	return nil
}

// Has reports whether an action is registered under the key, enabled or not.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[key]
	return ok
}

// Resolve returns the memoized handler instance and descriptor for the key.
// Disabled actions resolve normally. Returns ErrNotFound for unknown keys.
func (r *Registry) Resolve(key string) (Handler, *Descriptor, error) {
	r.mu.RLock()
	instance, hasInstance := r.instances[key]
	factory := r.factories[key]
	descriptor := copyDescriptor(r.descriptors[key])
	r.mu.RUnlock()

	if descriptor == nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrNotFound, "action not found")
	}
	if hasInstance {
		return instance, descriptor, nil
	}

	// Construct outside the lock; on a race the first stored instance wins.
	constructed := factory()

	r.mu.Lock()
	if cached, ok := r.instances[key]; ok {
		constructed = cached
	} else if _, stillRegistered := r.factories[key]; stillRegistered {
		r.instances[key] = constructed
	}
	descriptor = copyDescriptor(r.descriptors[key])
	r.mu.Unlock()

	if descriptor == nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrNotFound, "action not found")
	}
	return constructed, descriptor, nil
}

// ClearCache drops every memoized handler instance. The next Resolve per key
// constructs a fresh instance from its factory.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]Handler)
}

// SetEnabled flips an action's enabled flag. Returns ErrNotFound for unknown
// keys.
func (r *Registry) SetEnabled(key string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	descriptor, ok := r.descriptors[key]
	if !ok {
		return apperrors.Wrap(apperrors.ErrNotFound, "action not found")
	}
	descriptor.Enabled = enabled
	return nil
}

// All returns a snapshot of every registered descriptor.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]*Descriptor, 0, len(r.descriptors))
	for _, descriptor := range r.descriptors {
		descriptors = append(descriptors, copyDescriptor(descriptor))
	}
	return descriptors
}

// Statistics returns aggregate counts over the registered actions.
func (r *Registry) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		Total:    len(r.descriptors),
		Versions: make(map[string]int),
	}
	for _, descriptor := range r.descriptors {
		if descriptor.Enabled {
			stats.Enabled++
		} else {
			stats.Disabled++
		}
		stats.Versions[descriptor.Version]++
	}
	return stats
}

// copyDescriptor returns a caller-owned copy so registry state cannot be
// mutated through a returned descriptor. Callers must hold at least RLock.
func copyDescriptor(descriptor *Descriptor) *Descriptor {
	if descriptor == nil {
		return nil
	}
	c := *descriptor
	c.RequiredPermissions = append([]string(nil), descriptor.RequiredPermissions...)
	return &c
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:   make(map[string]Factory),
		descriptors: make(map[string]*Descriptor),
		instances:   make(map[string]Handler),
	}
}
