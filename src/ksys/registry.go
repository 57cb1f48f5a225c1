package ksys

import (
	"sync"

	"github.com/rt-go/kernel/src/kernel"
)

// Registry is a hosted kernel.ObjectRegistry: a name-keyed map, the Go
// stand-in for RT-Thread's object container list (rt_object_allocate/
// rt_object_find/rt_object_init/rt_object_detach/rt_object_delete). The
// static/heap-owned distinction rt_object_is_static exposes is carried
// directly on kernel.Object.Static rather than as a separate registry
// query, since every caller that would ask the question already holds
// the Object header it would ask about.
type Registry struct {
	mu     sync.Mutex
	byName map[string]any
}

// NewRegistry constructs an empty object registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]any)}
}

// Init registers a statically allocated object under name, rt_object_init.
func (r *Registry) Init(hdr *kernel.Object, handle any, kind kernel.ObjectKind, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = handle
}

// Detach removes a statically allocated object, rt_object_detach.
func (r *Registry) Detach(hdr *kernel.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, hdr.Name)
}

// Allocate registers a heap-owned object, rt_object_allocate. Returns
// false if the name is already taken, mirroring rt_object_find's
// uniqueness expectation.
func (r *Registry) Allocate(hdr *kernel.Object, handle any, kind kernel.ObjectKind, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return false
	}
	r.byName[name] = handle
	return true
}

// Delete removes a heap-owned object, rt_object_delete.
func (r *Registry) Delete(hdr *kernel.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, hdr.Name)
}

// Find looks an object up by name, rt_object_find.
func (r *Registry) Find(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.byName[name]
	return handle, ok
}
