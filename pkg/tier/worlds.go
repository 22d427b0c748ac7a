// Package tier manages application data as entities split across two storage
// tiers: an immutable static tier and a mutable dynamic tier. Mutable access
// to a static entity lazily promotes ("transfers") a copy into the dynamic
// tier; the tagged Ref type keeps cross-entity links rewritable across that
// move.
package tier

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"tiercore/pkg/ecs"
	"tiercore/pkg/scene"
)

// MetricsRecorder receives counters from the store. internal/telemetry
// provides the Prometheus-backed implementation.
type MetricsRecorder interface {
	ObserveTransfer()
	ObserveReload()
	ObserveSerialize(tier string, seconds float64)
}

// Option configures a Worlds instance.
type Option func(*Worlds)

// WithLogger installs a logger for trace events around world construction,
// reload, serialization and transfer. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(w *Worlds) {
		if log != nil {
			w.log = log
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(w *Worlds) { w.metrics = m }
}

// Worlds owns the static and dynamic tier containers. Each tier holds its own
// clone of the shared registry so the tiers agree on type shapes without
// sharing mutable state.
//
// Worlds follows a single-writer model: concurrent readers are safe, but any
// mutation requires exclusive access to the whole store. Promotion counts as
// a mutation, since it reads the static tier and writes the dynamic one. No
// operation blocks on I/O; all complete in memory before returning.
type Worlds struct {
	static  *ecs.World
	dynamic *ecs.World
	log     *zap.Logger
	metrics MetricsRecorder
}

// FromSnapshots builds the two tiers from optional snapshots. A nil snapshot
// means an empty tier; construction only fails when a snapshot cannot be
// spawned (codec error). The registry must already hold every kind that will
// be stored in either tier.
func FromSnapshots(registry *ecs.Registry, staticSnap, dynamicSnap *scene.Snapshot, opts ...Option) (*Worlds, error) {
	w := &Worlds{log: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	w.log.Debug("create static data world")
	w.static = ecs.NewWorld(registry)
	if staticSnap != nil {
		if err := staticSnap.Spawn(w.static); err != nil {
			return nil, fmt.Errorf("spawn static snapshot: %w", err)
		}
	}
	w.log.Debug("create dynamic data world")
	w.dynamic = ecs.NewWorld(registry)
	if dynamicSnap != nil {
		if err := dynamicSnap.Spawn(w.dynamic); err != nil {
			return nil, fmt.Errorf("spawn dynamic snapshot: %w", err)
		}
	}
	return w, nil
}

// ModifyStatic runs a one-shot operation against the static tier.
//
// This is intended for initial setup only: static-tier entities are treated
// as immutable once the store is in use. Later calls are not prevented, but
// they break that invariant and the behavior of outstanding references is
// then the caller's problem.
func (w *Worlds) ModifyStatic(fn func(*ecs.World) error) error {
	return fn(w.static)
}

// ReloadDynamic replaces the dynamic tier with a fresh world populated from
// snapshot, reusing the registry clone installed at construction. Every
// entity and edit in the dynamic tier, including all prior promotions, is
// unrecoverably lost; nothing is merged.
func (w *Worlds) ReloadDynamic(snapshot *scene.Snapshot) error {
	w.log.Debug("create dynamic data world")
	fresh := ecs.NewWorld(w.dynamic.Registry())
	if snapshot != nil {
		if err := snapshot.Spawn(fresh); err != nil {
			return fmt.Errorf("spawn dynamic snapshot: %w", err)
		}
	}
	w.dynamic = fresh
	if w.metrics != nil {
		w.metrics.ObserveReload()
	}
	return nil
}

// SerializeStatic renders the static tier as snapshot text. Only necessary
// for first-time setup, as the static tier does not change afterwards.
func (w *Worlds) SerializeStatic() (string, error) {
	return w.serialize(Static, w.static)
}

// SerializeDynamic renders the dynamic tier as snapshot text.
func (w *Worlds) SerializeDynamic() (string, error) {
	return w.serialize(Dynamic, w.dynamic)
}

func (w *Worlds) serialize(name Name, world *ecs.World) (string, error) {
	w.log.Debug("serialize data world", zap.Stringer("tier", name))
	start := time.Now()
	snap, err := scene.FromWorld(world)
	if err != nil {
		return "", err
	}
	text, err := snap.Marshal()
	if err != nil {
		return "", err
	}
	if w.metrics != nil {
		w.metrics.ObserveSerialize(name.String(), time.Since(start).Seconds())
	}
	return text, nil
}

// Get resolves a reference to a read-only view. It never promotes. The
// second return is false for the null reference or an id absent from the
// addressed tier.
func (w *Worlds) Get(ref Ref) (ecs.EntityView, bool) {
	switch ref.Tier() {
	case Static:
		return w.static.Get(ref.ID())
	case Dynamic:
		return w.dynamic.Get(ref.ID())
	default:
		return ecs.EntityView{}, false
	}
}

// Entity resolves a reference the caller already knows is live.
//
// It panics when the reference is null or does not resolve; use Get when the
// reference may legitimately be stale.
func (w *Worlds) Entity(ref Ref) ecs.EntityView {
	if ref.IsNull() {
		panic("tier: tried to access null reference")
	}
	view, ok := w.Get(ref)
	if !ok {
		panic(fmt.Sprintf("tier: entity %s does not exist", ref))
	}
	return view
}

// GetMut resolves a reference for mutable access. A static reference promotes
// the entity into the dynamic tier first and resolves Moved, carrying the new
// dynamic reference the caller must persist. The promotion is not memoized:
// if the caller discards the returned reference and mutates through the
// original static reference again, a second independent dynamic copy is
// created.
func (w *Worlds) GetMut(ref Ref) Mutation {
	switch ref.Tier() {
	case Static:
		target, ok := w.transfer(ref.ID())
		if !ok {
			return missing()
		}
		entity, ok := w.dynamic.GetMut(target)
		if !ok {
			return missing()
		}
		return moved(entity, DynamicRef(target))
	case Dynamic:
		entity, ok := w.dynamic.GetMut(ref.ID())
		if !ok {
			return missing()
		}
		return found(entity)
	default:
		return missing()
	}
}

// EntityMut is GetMut with the null reference treated as a caller contract
// violation: it panics instead of resolving Missing.
func (w *Worlds) EntityMut(ref Ref) Mutation {
	if ref.IsNull() {
		panic("tier: tried to access null reference")
	}
	return w.GetMut(ref)
}

// transfer copies one static-tier entity into a freshly spawned dynamic-tier
// entity, duplicating every attached component through the registry's copy
// capabilities. It reports false, mutating nothing, when the source id is
// absent. Promotion is per-entity: component payloads holding Refs to other
// static entities are copied as-is, still pointing at the static tier.
//
// A kind without a registered capability panics: the registry's contents are
// fixed at process setup, so a miss here is a programming error, not a
// runtime condition.
func (w *Worlds) transfer(id ecs.EntityID) (ecs.EntityID, bool) {
	w.log.Debug("transfer entity to dynamic world", zap.Uint64("entity", uint64(id)))
	source, ok := w.static.Get(id)
	if !ok {
		return 0, false
	}
	target := w.dynamic.SpawnEmpty()
	registry := w.static.Registry()
	for _, kind := range source.Kinds() {
		cp := registry.MustResolve(kind)
		if err := cp.Copy(w.static, w.dynamic, id, target); err != nil {
			panic(fmt.Sprintf("tier: copy %s during transfer: %v", kind, err))
		}
	}
	if w.metrics != nil {
		w.metrics.ObserveTransfer()
	}
	return target, true
}
