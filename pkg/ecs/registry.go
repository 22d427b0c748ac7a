package ecs

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Capability bundles the reflective operations registered for one component
// kind: duplicating a value, and converting it to and from its wire payload.
type Capability struct {
	Kind   Kind
	Clone  func(Component) Component
	Encode func(Component) (json.RawMessage, error)
	Decode func(json.RawMessage) (Component, error)
}

// Copy duplicates the component of this capability's kind from entity `from`
// in src into entity `to` in dst. The value is cloned so the two containers
// never alias payload state.
func (c Capability) Copy(src, dst *World, from, to EntityID) error {
	value, ok := src.component(from, c.Kind)
	if !ok {
		return fmt.Errorf("entity %d has no %s component", from, c.Kind)
	}
	if !dst.Contains(to) {
		return fmt.Errorf("target entity %d not found", to)
	}
	dst.attach(to, c.Clone(value))
	return nil
}

// CapabilityOf builds the standard JSON-backed capability for T. The clone
// function is a value copy unless T implements Cloner.
func CapabilityOf[T Component]() Capability {
	var zero T
	return Capability{
		Kind: zero.Kind(),
		Clone: func(c Component) Component {
			if cl, ok := c.(Cloner); ok {
				return cl.CloneComponent()
			}
			return c.(T)
		},
		Encode: func(c Component) (json.RawMessage, error) {
			return json.Marshal(c.(T))
		},
		Decode: func(raw json.RawMessage) (Component, error) {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// Registry is the runtime catalog of component kinds and their capabilities.
// Registration happens once at process setup; afterwards the registry is
// treated as read-only and cloned into each container that needs it.
type Registry struct {
	caps map[Kind]Capability
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[Kind]Capability)}
}

// Register adds a capability, failing on duplicate kinds.
func (r *Registry) Register(cp Capability) error {
	if cp.Kind == "" {
		return fmt.Errorf("capability kind must not be empty")
	}
	if _, exists := r.caps[cp.Kind]; exists {
		return fmt.Errorf("kind %s already registered", cp.Kind)
	}
	r.caps[cp.Kind] = cp
	return nil
}

// MustRegister is Register for setup code where a duplicate is a programming
// error.
func (r *Registry) MustRegister(cp Capability) {
	if err := r.Register(cp); err != nil {
		panic(err)
	}
}

// Resolve returns the capability registered for kind.
func (r *Registry) Resolve(kind Kind) (Capability, bool) {
	cp, ok := r.caps[kind]
	return cp, ok
}

// MustResolve returns the capability for kind and panics when it is missing.
// A missing capability means setup-time registration was wrong, not a
// recoverable runtime condition.
func (r *Registry) MustResolve(kind Kind) Capability {
	cp, ok := r.caps[kind]
	if !ok {
		panic(fmt.Sprintf("ecs: kind %s is not registered", kind))
	}
	return cp
}

// Clone returns an independently owned copy of the registry. Capabilities are
// immutable function bundles, so a map copy suffices.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for k, cp := range r.caps {
		out.caps[k] = cp
	}
	return out
}

// Kinds returns the sorted list of registered kinds.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.caps))
	for k := range r.caps {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
