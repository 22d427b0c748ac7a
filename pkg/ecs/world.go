package ecs

import "sort"

// EntityID identifies an entity within one World. IDs are never reused and
// zero is never issued, but they are only meaningful relative to the World
// that minted them; two Worlds may hand out the same raw value for unrelated
// entities.
type EntityID uint64

// World is a generic entity-component container. Each World owns an
// independent clone of the registry it was constructed with, so it is
// self-sufficient for serialization and reflective copying.
//
// World is not safe for concurrent mutation; callers serialize access.
type World struct {
	registry *Registry
	nextID   EntityID
	entities map[EntityID]map[Kind]Component
}

// NewWorld returns an empty World holding its own clone of registry.
func NewWorld(registry *Registry) *World {
	if registry == nil {
		registry = NewRegistry()
	}
	return &World{
		registry: registry.Clone(),
		nextID:   1,
		entities: make(map[EntityID]map[Kind]Component),
	}
}

// Registry exposes the World's own registry clone.
func (w *World) Registry() *Registry { return w.registry }

// SpawnEmpty mints a new entity with no components attached.
func (w *World) SpawnEmpty() EntityID {
	id := w.nextID
	w.nextID++
	w.entities[id] = make(map[Kind]Component)
	return id
}

// Spawn mints a new entity and attaches the given components.
func (w *World) Spawn(components ...Component) EntityID {
	id := w.SpawnEmpty()
	for _, c := range components {
		w.attach(id, c)
	}
	return id
}

// Despawn removes the entity and all its components, reporting whether it
// existed.
func (w *World) Despawn(id EntityID) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	return true
}

// Contains reports whether the entity exists.
func (w *World) Contains(id EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

// Len returns the number of live entities.
func (w *World) Len() int { return len(w.entities) }

// EntityIDs returns all live entity ids in ascending order.
func (w *World) EntityIDs() []EntityID {
	out := make([]EntityID, 0, len(w.entities))
	for id := range w.entities {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Each visits every live entity in ascending id order. Mutating the world
// while iterating is not supported.
func (w *World) Each(fn func(EntityView)) {
	for _, id := range w.EntityIDs() {
		fn(EntityView{world: w, id: id})
	}
}

// AttachedKinds returns the sorted kinds attached to the entity, or nil when
// the entity does not exist.
func (w *World) AttachedKinds(id EntityID) []Kind {
	bag, ok := w.entities[id]
	if !ok {
		return nil
	}
	out := make([]Kind, 0, len(bag))
	for k := range bag {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Get resolves a read-only view of the entity.
func (w *World) Get(id EntityID) (EntityView, bool) {
	if !w.Contains(id) {
		return EntityView{}, false
	}
	return EntityView{world: w, id: id}, true
}

// GetMut resolves a mutable view of the entity.
func (w *World) GetMut(id EntityID) (EntityMut, bool) {
	if !w.Contains(id) {
		return EntityMut{}, false
	}
	return EntityMut{EntityView{world: w, id: id}}, true
}

func (w *World) component(id EntityID, kind Kind) (Component, bool) {
	bag, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	c, ok := bag[kind]
	return c, ok
}

func (w *World) attach(id EntityID, c Component) {
	bag, ok := w.entities[id]
	if !ok {
		return
	}
	bag[c.Kind()] = c
}

func (w *World) detach(id EntityID, kind Kind) bool {
	bag, ok := w.entities[id]
	if !ok {
		return false
	}
	if _, ok := bag[kind]; !ok {
		return false
	}
	delete(bag, kind)
	return true
}

// EntityView is a read-only handle onto one entity. The zero value is
// invalid.
type EntityView struct {
	world *World
	id    EntityID
}

// ID returns the entity id within its World.
func (v EntityView) ID() EntityID { return v.id }

// Has reports whether a component of the given kind is attached.
func (v EntityView) Has(kind Kind) bool {
	_, ok := v.world.component(v.id, kind)
	return ok
}

// Get returns the attached component of the given kind.
func (v EntityView) Get(kind Kind) (Component, bool) {
	return v.world.component(v.id, kind)
}

// Kinds lists the attached component kinds, sorted.
func (v EntityView) Kinds() []Kind {
	return v.world.AttachedKinds(v.id)
}

// EntityMut is a mutable handle onto one entity.
type EntityMut struct {
	EntityView
}

// Set attaches or replaces the component for its kind.
func (m EntityMut) Set(c Component) {
	m.world.attach(m.id, c)
}

// Remove detaches the component of the given kind, reporting whether it was
// attached.
func (m EntityMut) Remove(kind Kind) bool {
	return m.world.detach(m.id, kind)
}

// Value reads the typed component T from a view. The second return is false
// when no component of T's kind is attached.
func Value[T Component](v EntityView) (T, bool) {
	var zero T
	c, ok := v.Get(zero.Kind())
	if !ok {
		return zero, false
	}
	typed, ok := c.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Update applies fn to the typed component T on a mutable view and stores the
// result, reporting whether the component was present.
func Update[T Component](m EntityMut, fn func(*T)) bool {
	v, ok := Value[T](m.EntityView)
	if !ok {
		return false
	}
	fn(&v)
	m.Set(v)
	return true
}
