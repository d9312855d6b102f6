package ygggo_db

import (
	"reflect"
	"sync"
)

// Registry maps an accessor type to its single lazily constructed instance.
// Instances are never removed.
type Registry struct {
	mu        sync.Mutex
	instances map[reflect.Type]any
}

// NewRegistry returns an empty registry. Most programs use the process-wide
// registry behind GetInstance; a private one is handy for passing accessors
// explicitly and in tests.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[reflect.Type]any)}
}

// Instance returns r's instance of T, constructing it with new(T) on first use.
func Instance[T any](r *Registry) *T {
	t := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instances == nil {
		r.instances = make(map[reflect.Type]any)
	}
	if v, ok := r.instances[t]; ok {
		return v.(*T)
	}
	v := new(T)
	r.instances[t] = v
	return v
}

// Len reports how many instances r holds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

var processRegistry = NewRegistry()

// GetInstance returns the process-wide instance of T. T is normally Accessor
// or a struct embedding it:
//
//	type BillingDB struct{ ygggo_db.Accessor }
//	db := ygggo_db.GetInstance[BillingDB]()
func GetInstance[T any]() *T { return Instance[T](processRegistry) }

// Default returns the process-wide plain Accessor.
func Default() *Accessor { return GetInstance[Accessor]() }
