package tier

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"tiercore/pkg/ecs"
	"tiercore/pkg/scene"
)

type counter struct {
	Value int `json:"value"`
}

func (counter) Kind() ecs.Kind { return "counter" }

type link struct {
	Target Ref `json:"target"`
}

func (link) Kind() ecs.Kind { return "link" }

type unregistered struct{}

func (unregistered) Kind() ecs.Kind { return "unregistered" }

func testRegistry() *ecs.Registry {
	reg := ecs.NewRegistry()
	reg.MustRegister(ecs.CapabilityOf[counter]())
	reg.MustRegister(ecs.CapabilityOf[link]())
	return reg
}

// setupWorlds builds the two-entity fixture: static A = {counter:42},
// static B = {counter:21, link -> A}. Returns the store and refs to A and B.
func setupWorlds(t *testing.T) (*Worlds, Ref, Ref) {
	t.Helper()
	w, err := FromSnapshots(testRegistry(), nil, nil, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("from snapshots: %v", err)
	}
	var refA, refB Ref
	err = w.ModifyStatic(func(world *ecs.World) error {
		a := world.Spawn(counter{Value: 42})
		refA = StaticRef(a)
		b := world.Spawn(counter{Value: 21}, link{Target: refA})
		refB = StaticRef(b)
		return nil
	})
	if err != nil {
		t.Fatalf("modify static: %v", err)
	}
	return w, refA, refB
}

func TestGet_FollowsLinks(t *testing.T) {
	w, _, refB := setupWorlds(t)
	b, ok := w.Get(refB)
	if !ok {
		t.Fatalf("expected B to resolve")
	}
	if c, _ := ecs.Value[counter](b); c.Value != 21 {
		t.Fatalf("B counter = %d, want 21", c.Value)
	}
	l, ok := ecs.Value[link](b)
	if !ok {
		t.Fatalf("B has no link")
	}
	a := w.Entity(l.Target)
	if c, _ := ecs.Value[counter](a); c.Value != 42 {
		t.Fatalf("A counter = %d, want 42", c.Value)
	}
}

func TestGet_NullAndStale(t *testing.T) {
	w, _, _ := setupWorlds(t)
	if _, ok := w.Get(Ref{}); ok {
		t.Fatalf("null ref resolved")
	}
	if _, ok := w.Get(StaticRef(9999)); ok {
		t.Fatalf("stale static ref resolved")
	}
	if _, ok := w.Get(DynamicRef(1)); ok {
		t.Fatalf("empty dynamic tier resolved an entity")
	}
}

func TestEntity_PanicsOnNull(t *testing.T) {
	w, _, _ := setupWorlds(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	w.Entity(Ref{})
}

func TestEntity_PanicsOnStale(t *testing.T) {
	w, _, _ := setupWorlds(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	w.Entity(StaticRef(9999))
}

func TestGetMut_PromotesStaticEntity(t *testing.T) {
	w, refA, refB := setupWorlds(t)

	mut := w.EntityMut(refB)
	if mut.State() != Moved {
		t.Fatalf("state = %s, want moved", mut.State())
	}
	if mut.Ref().Tier() != Dynamic {
		t.Fatalf("new ref %s is not dynamic", mut.Ref())
	}
	if c, _ := ecs.Value[counter](mut.Entity().EntityView); c.Value != 21 {
		t.Fatalf("promoted counter = %d, want 21", c.Value)
	}
	// Link was copied as-is: still pointing into the static tier.
	l, _ := ecs.Value[link](mut.Entity().EntityView)
	if l.Target != refA {
		t.Fatalf("link target = %s, want %s", l.Target, refA)
	}

	// Mutate the promoted copy; the static original must be untouched.
	ecs.Update(mut.Entity(), func(c *counter) { c.Value = 99 })
	promoted := w.Entity(mut.Ref())
	if c, _ := ecs.Value[counter](promoted); c.Value != 99 {
		t.Fatalf("promoted counter = %d, want 99", c.Value)
	}
	original := w.Entity(refB)
	if c, _ := ecs.Value[counter](original); c.Value != 21 {
		t.Fatalf("static original mutated: counter = %d", c.Value)
	}
}

func TestGetMut_TierIsolation(t *testing.T) {
	w, refA, refB := setupWorlds(t)
	// Promoting B must not disturb A's static values.
	if w.GetMut(refB).State() != Moved {
		t.Fatalf("expected promotion")
	}
	a := w.Entity(refA)
	if c, _ := ecs.Value[counter](a); c.Value != 42 {
		t.Fatalf("A counter = %d after unrelated promotion, want 42", c.Value)
	}
}

func TestGetMut_RepeatedPromotionDiverges(t *testing.T) {
	w, refA, _ := setupWorlds(t)

	first := w.GetMut(refA)
	second := w.GetMut(refA)
	if first.State() != Moved || second.State() != Moved {
		t.Fatalf("states = %s, %s", first.State(), second.State())
	}
	if first.Ref() == second.Ref() {
		t.Fatalf("repeated promotion returned the same dynamic ref %s", first.Ref())
	}
	// Both copies start content-equal to the source...
	for _, m := range []Mutation{first, second} {
		if c, _ := ecs.Value[counter](m.Entity().EntityView); c.Value != 42 {
			t.Fatalf("copy %s counter = %d, want 42", m.Ref(), c.Value)
		}
	}
	// ...and mutating one does not affect the other.
	ecs.Update(first.Entity(), func(c *counter) { c.Value = 1 })
	if c, _ := ecs.Value[counter](w.Entity(second.Ref())); c.Value != 42 {
		t.Fatalf("independent copy changed: counter = %d", c.Value)
	}
}

func TestGetMut_MissingCases(t *testing.T) {
	w, _, _ := setupWorlds(t)
	if got := w.GetMut(Ref{}).State(); got != Missing {
		t.Fatalf("null: %s, want missing", got)
	}
	if got := w.GetMut(StaticRef(9999)).State(); got != Missing {
		t.Fatalf("stale static: %s, want missing", got)
	}
	if got := w.GetMut(DynamicRef(9999)).State(); got != Missing {
		t.Fatalf("stale dynamic: %s, want missing", got)
	}
}

func TestEntityMut_NullPanics(t *testing.T) {
	w, _, _ := setupWorlds(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	w.EntityMut(Ref{})
}

func TestEntityMut_StaleIsMissingNotPanic(t *testing.T) {
	w, _, _ := setupWorlds(t)
	if got := w.EntityMut(StaticRef(9999)).State(); got != Missing {
		t.Fatalf("stale static: %s, want missing", got)
	}
}

func TestGetMut_FoundInDynamicTier(t *testing.T) {
	w, refA, _ := setupWorlds(t)
	moved := w.GetMut(refA)
	again := w.GetMut(moved.Ref())
	if again.State() != Found {
		t.Fatalf("state = %s, want found", again.State())
	}
	if !again.Ref().IsNull() {
		t.Fatalf("found result should carry no new ref, got %s", again.Ref())
	}
}

func TestTransfer_UnregisteredKindPanics(t *testing.T) {
	w, _, _ := setupWorlds(t)
	var ref Ref
	_ = w.ModifyStatic(func(world *ecs.World) error {
		id := world.SpawnEmpty()
		m, _ := world.GetMut(id)
		m.Set(unregistered{})
		ref = StaticRef(id)
		return nil
	})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unregistered kind during transfer")
		}
	}()
	w.GetMut(ref)
}

func TestSerialize_RoundTripsThroughConstruction(t *testing.T) {
	w, _, refB := setupWorlds(t)
	text, err := w.SerializeStatic()
	if err != nil {
		t.Fatalf("serialize static: %v", err)
	}
	snap, err := scene.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reloaded, err := FromSnapshots(testRegistry(), snap, nil)
	if err != nil {
		t.Fatalf("from snapshots: %v", err)
	}
	// Content-equal: B resolves with counter 21 and a link to an entity
	// carrying counter 42. The raw ids may differ, so follow the link.
	b, ok := reloaded.Get(refB)
	if !ok {
		t.Fatalf("B missing after reload")
	}
	if c, _ := ecs.Value[counter](b); c.Value != 21 {
		t.Fatalf("B counter = %d, want 21", c.Value)
	}
	l, _ := ecs.Value[link](b)
	a := reloaded.Entity(l.Target)
	if c, _ := ecs.Value[counter](a); c.Value != 42 {
		t.Fatalf("A counter = %d, want 42", c.Value)
	}
}

func TestSerialize_UnregisteredKindFails(t *testing.T) {
	w, _, _ := setupWorlds(t)
	_ = w.ModifyStatic(func(world *ecs.World) error {
		id := world.SpawnEmpty()
		m, _ := world.GetMut(id)
		m.Set(unregistered{})
		return nil
	})
	if _, err := w.SerializeStatic(); err == nil {
		t.Fatalf("expected codec error")
	}
}

func TestReloadDynamic_ReplacesNeverMerges(t *testing.T) {
	w, refA, _ := setupWorlds(t)

	// Put two entities in the dynamic tier: one promoted, one spawned fresh.
	moved := w.GetMut(refA)
	if moved.State() != Moved {
		t.Fatalf("expected promotion")
	}

	// Build a replacement snapshot holding exactly one counter entity.
	replacement, err := func() (*scene.Snapshot, error) {
		scratch := ecs.NewWorld(testRegistry())
		scratch.Spawn(counter{Value: 7})
		return scene.FromWorld(scratch)
	}()
	if err != nil {
		t.Fatalf("build replacement: %v", err)
	}
	if err := w.ReloadDynamic(replacement); err != nil {
		t.Fatalf("reload: %v", err)
	}

	// The promoted entity is gone. Ids are only meaningful within one world
	// instance, and the fresh world may reissue the raw id, so the old ref
	// either misses or resolves to the replacement entity, never to the
	// promoted copy.
	if view, ok := w.Get(moved.Ref()); ok {
		if c, _ := ecs.Value[counter](view); c.Value == 42 {
			t.Fatalf("promoted entity survived reload")
		}
	}
	found := 0
	for _, id := range []ecs.EntityID{1, 2, 3, 4, 5} {
		if view, ok := w.Get(DynamicRef(id)); ok {
			found++
			if c, _ := ecs.Value[counter](view); c.Value != 7 {
				t.Fatalf("unexpected dynamic entity counter = %d", c.Value)
			}
		}
	}
	if found != 1 {
		t.Fatalf("dynamic tier holds %d entities, want 1", found)
	}
	// Static tier unaffected by the reload.
	if c, _ := ecs.Value[counter](w.Entity(refA)); c.Value != 42 {
		t.Fatalf("static tier disturbed by reload")
	}
}

func TestFromSnapshots_PopulatesBothTiers(t *testing.T) {
	reg := testRegistry()
	build := func(value int) *scene.Snapshot {
		scratch := ecs.NewWorld(reg)
		scratch.Spawn(counter{Value: value})
		snap, err := scene.FromWorld(scratch)
		if err != nil {
			t.Fatalf("build snapshot: %v", err)
		}
		return snap
	}
	w, err := FromSnapshots(reg, build(1), build(2))
	if err != nil {
		t.Fatalf("from snapshots: %v", err)
	}
	s, ok := w.Get(StaticRef(1))
	if !ok {
		t.Fatalf("static entity missing")
	}
	if c, _ := ecs.Value[counter](s); c.Value != 1 {
		t.Fatalf("static counter = %d, want 1", c.Value)
	}
	d, ok := w.Get(DynamicRef(1))
	if !ok {
		t.Fatalf("dynamic entity missing")
	}
	if c, _ := ecs.Value[counter](d); c.Value != 2 {
		t.Fatalf("dynamic counter = %d, want 2", c.Value)
	}
}

func TestFromSnapshots_CodecErrorSurfaces(t *testing.T) {
	bad := &scene.Snapshot{Entities: []scene.EntityRecord{{
		Components: []scene.ComponentRecord{{Kind: "ghost", Data: []byte(`{}`)}},
	}}}
	if _, err := FromSnapshots(testRegistry(), bad, nil); err == nil {
		t.Fatalf("expected spawn error for static snapshot")
	}
	if _, err := FromSnapshots(testRegistry(), nil, bad); err == nil {
		t.Fatalf("expected spawn error for dynamic snapshot")
	}
}

type recordingMetrics struct {
	transfers, reloads int
	serialized         []string
}

func (m *recordingMetrics) ObserveTransfer() { m.transfers++ }
func (m *recordingMetrics) ObserveReload()   { m.reloads++ }
func (m *recordingMetrics) ObserveSerialize(tier string, _ float64) {
	m.serialized = append(m.serialized, tier)
}

func TestMetricsRecorderObservations(t *testing.T) {
	metrics := &recordingMetrics{}
	w, err := FromSnapshots(testRegistry(), nil, nil, WithMetrics(metrics))
	if err != nil {
		t.Fatalf("from snapshots: %v", err)
	}
	var ref Ref
	_ = w.ModifyStatic(func(world *ecs.World) error {
		ref = StaticRef(world.Spawn(counter{Value: 5}))
		return nil
	})
	w.GetMut(ref)
	if err := w.ReloadDynamic(nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, err := w.SerializeDynamic(); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if metrics.transfers != 1 || metrics.reloads != 1 {
		t.Fatalf("metrics = %+v", metrics)
	}
	if len(metrics.serialized) != 1 || metrics.serialized[0] != "dynamic" {
		t.Fatalf("serialized = %v", metrics.serialized)
	}
}
