package tier

import "tiercore/pkg/ecs"

// MutationState classifies the outcome of a mutable resolution.
type MutationState uint8

const (
	// Missing means the reference resolved to nothing.
	Missing MutationState = iota
	// Found means the entity was already in the dynamic tier.
	Found
	// Moved means the entity was promoted from the static tier; the caller
	// must persist the new reference carried by the Mutation.
	Moved
)

func (s MutationState) String() string {
	switch s {
	case Found:
		return "found"
	case Moved:
		return "moved"
	default:
		return "missing"
	}
}

// Mutation is the result of resolving a reference for mutable access.
type Mutation struct {
	state  MutationState
	entity ecs.EntityMut
	ref    Ref
}

func missing() Mutation { return Mutation{} }

func found(e ecs.EntityMut) Mutation {
	return Mutation{state: Found, entity: e}
}

func moved(e ecs.EntityMut, ref Ref) Mutation {
	return Mutation{state: Moved, entity: e, ref: ref}
}

// State reports how the reference resolved.
func (m Mutation) State() MutationState { return m.state }

// Entity returns the mutable view; only valid when State is Found or Moved.
func (m Mutation) Entity() ecs.EntityMut { return m.entity }

// Ref returns the new dynamic-tier reference after a promotion. It is the
// null reference unless State is Moved. Callers holding the original static
// reference must re-store this one, including rewriting any reference fields
// inside stored data that pointed at the promoted entity.
func (m Mutation) Ref() Ref { return m.ref }
