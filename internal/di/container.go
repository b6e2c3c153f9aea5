// Package di implements the manual dependency-injection container used to
// wire each bounded context's services. Its shape is reconstructed from
// its call sites across business/*/di/tokens.go, business/*/module.go and
// internal/monolith — the di package's own implementation was not part of
// the retrieved reference material. Bounded contexts register services
// under plain string keys ("config", "logger", "options.Registry", …) and
// get them back with a generic helper so call sites stay type-safe
// without a reflection-based framework.
package di

import "fmt"

// ServiceRegistry is the read side of the container: resolving a
// previously registered service by key. Get returns nil for an unknown
// key, matching a plain map lookup.
type ServiceRegistry interface {
	Get(key string) any
}

// Container is the read-write side used during module registration.
type Container interface {
	ServiceRegistry
	Register(key string, value any)
}

type container struct {
	services map[string]any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(key string, value any) {
	c.services[key] = value
}

func (c *container) Get(key string) any {
	return c.services[key]
}

// RegisterToken registers a factory under key. The factory runs
// immediately against the given registry, matching the teacher's module
// wiring idiom: eager construction at RegisterServices time, so that a
// later service's factory can depend on an earlier one already being
// present.
func RegisterToken[T any](c Container, key string, factory func(sr ServiceRegistry) T) {
	c.Register(key, factory(c))
}

// MustGet fetches a key's value, panicking if it was never registered or
// was registered under the wrong type — module wiring bugs should fail
// loud at startup, not propagate as a nil interface deep in a request
// path.
func MustGet[T any](sr ServiceRegistry, key string) T {
	v := sr.Get(key)
	if v == nil {
		panic(fmt.Sprintf("di: service %q not registered", key))
	}
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type %T", key, v))
	}
	return typed
}
