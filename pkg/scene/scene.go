// Package scene is the textual snapshot codec for ecs worlds. A Snapshot is
// the parsed, spawnable form; its wire shape is deterministic JSON so snapshot
// text can be diffed and archived.
package scene

import (
	"encoding/json"
	"fmt"

	"tiercore/pkg/ecs"
)

// CodecError reports that a component kind could not be encoded or decoded,
// typically because its capability was never registered.
type CodecError struct {
	Kind ecs.Kind
	Op   string // "encode" or "decode"
	Err  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("scene: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// ErrUnregisteredKind signals a kind with no capability in the registry.
var ErrUnregisteredKind = fmt.Errorf("kind has no registered capability")

// ComponentRecord is one attached component in wire form.
type ComponentRecord struct {
	Kind ecs.Kind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EntityRecord is one entity in wire form. Entity ids are not persisted;
// spawning assigns fresh ids in the destination world.
type EntityRecord struct {
	Components []ComponentRecord `json:"components"`
}

// Snapshot is the parsed representation of one world's contents.
type Snapshot struct {
	Entities []EntityRecord `json:"entities"`
}

// FromWorld captures the world's entities into a Snapshot. Entities are
// ordered by id and components by kind so output is deterministic. A kind
// lacking an encode capability yields a CodecError.
func FromWorld(w *ecs.World) (*Snapshot, error) {
	registry := w.Registry()
	snap := &Snapshot{Entities: make([]EntityRecord, 0, w.Len())}
	for _, id := range w.EntityIDs() {
		view, _ := w.Get(id)
		rec := EntityRecord{}
		for _, kind := range view.Kinds() {
			cp, ok := registry.Resolve(kind)
			if !ok {
				return nil, &CodecError{Kind: kind, Op: "encode", Err: ErrUnregisteredKind}
			}
			value, _ := view.Get(kind)
			raw, err := cp.Encode(value)
			if err != nil {
				return nil, &CodecError{Kind: kind, Op: "encode", Err: err}
			}
			rec.Components = append(rec.Components, ComponentRecord{Kind: kind, Data: raw})
		}
		snap.Entities = append(snap.Entities, rec)
	}
	return snap, nil
}

// Marshal renders the snapshot as indented JSON text.
func (s *Snapshot) Marshal() (string, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(b), nil
}

// Parse reads snapshot text produced by Marshal.
func Parse(text string) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &s, nil
}

// Spawn creates the snapshot's entities in w, decoding each component through
// w's own registry. Already-spawned entities are kept when a later record
// fails; callers treating Spawn errors as fatal should discard the world.
func (s *Snapshot) Spawn(w *ecs.World) error {
	registry := w.Registry()
	for _, rec := range s.Entities {
		id := w.SpawnEmpty()
		target, _ := w.GetMut(id)
		for _, comp := range rec.Components {
			cp, ok := registry.Resolve(comp.Kind)
			if !ok {
				return &CodecError{Kind: comp.Kind, Op: "decode", Err: ErrUnregisteredKind}
			}
			value, err := cp.Decode(comp.Data)
			if err != nil {
				return &CodecError{Kind: comp.Kind, Op: "decode", Err: err}
			}
			target.Set(value)
		}
	}
	return nil
}
