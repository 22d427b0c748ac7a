// Package ecs provides a small generic entity-component container together
// with a runtime type registry. A World stores entities as bags of typed
// component values; the registry maps each component kind to capability
// functions (clone, encode, decode) so that orchestrating code can duplicate
// and serialize values without knowing their concrete types at compile time.
package ecs

// Kind is the runtime handle identifying a registered component type.
// Kinds are stable strings chosen by the component author and must be unique
// within a registry.
type Kind string

// Component is a typed value attachable to an entity. At most one component
// per Kind may be attached to an entity at a time.
type Component interface {
	Kind() Kind
}

// Cloner is implemented by components whose payload holds reference types
// (slices, maps, pointers). CapabilityOf uses it instead of the plain value
// copy, which would alias shared state between containers.
type Cloner interface {
	CloneComponent() Component
}
