package tier

import (
	"encoding/json"
	"fmt"

	"tiercore/pkg/ecs"
)

// Name identifies one of the two storage tiers. The zero value names no tier.
type Name uint8

const (
	// None is the tier of the null reference.
	None Name = iota
	// Static is the immutable tier, populated at setup and never mutated
	// afterwards.
	Static
	// Dynamic is the mutable tier entities are promoted into.
	Dynamic
)

func (n Name) String() string {
	switch n {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "none"
	}
}

// Ref is a tagged reference to an entity in one of the two tiers. The zero
// value is the null reference. Equality is structural: tier plus id.
//
// Component payloads that point at other entities must store a Ref rather
// than a raw ecs.EntityID: a raw id silently goes stale when its entity is
// promoted to the dynamic tier, while a Ref can be rewritten by whoever holds
// it once the promotion returns the new reference.
type Ref struct {
	tier Name
	id   ecs.EntityID
}

// StaticRef references an entity in the static tier.
func StaticRef(id ecs.EntityID) Ref { return Ref{tier: Static, id: id} }

// DynamicRef references an entity in the dynamic tier.
func DynamicRef(id ecs.EntityID) Ref { return Ref{tier: Dynamic, id: id} }

// IsNull reports whether the reference points nowhere.
func (r Ref) IsNull() bool { return r.tier == None }

// Tier names the tier the reference points into.
func (r Ref) Tier() Name { return r.tier }

// ID returns the entity id, meaningful only relative to r.Tier().
func (r Ref) ID() ecs.EntityID { return r.id }

func (r Ref) String() string {
	if r.IsNull() {
		return "Ref(null)"
	}
	return fmt.Sprintf("Ref(%s:%d)", r.tier, r.id)
}

type refWire struct {
	Tier string       `json:"tier"`
	ID   ecs.EntityID `json:"id"`
}

// MarshalJSON encodes the null reference as JSON null and tiered references
// as {"tier": ..., "id": ...} so Refs embedded in component payloads survive
// the snapshot codec.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(refWire{Tier: r.tier.String(), ID: r.id})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (r *Ref) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ref{}
		return nil
	}
	var w refWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Tier {
	case Static.String():
		*r = StaticRef(w.ID)
	case Dynamic.String():
		*r = DynamicRef(w.ID)
	default:
		return fmt.Errorf("unknown tier %q", w.Tier)
	}
	return nil
}
