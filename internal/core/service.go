// Package core wires the two-tier store to snapshot archival and history
// tracking, exposing the host-facing save/restore operations.
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"tiercore/internal/archive"
	"tiercore/internal/persistence"
	"tiercore/pkg/scene"
	"tiercore/pkg/tier"
)

// Service owns a two-tier store together with an archive for snapshot text
// and a durable history ledger of archived snapshots.
type Service struct {
	worlds  *tier.Worlds
	archive archive.Store
	history persistence.Store
}

// NewService constructs a service around an existing store and backends.
func NewService(worlds *tier.Worlds, archiveStore archive.Store, history persistence.Store) *Service {
	return &Service{worlds: worlds, archive: archiveStore, history: history}
}

// Worlds returns the underlying two-tier store.
func (s *Service) Worlds() *tier.Worlds { return s.worlds }

// SaveTier serializes the named tier, archives the snapshot text, and appends
// a history record carrying the blob key and content checksum.
func (s *Service) SaveTier(ctx context.Context, name tier.Name) (persistence.Record, error) {
	var (
		text string
		err  error
	)
	switch name {
	case tier.Static:
		text, err = s.worlds.SerializeStatic()
	case tier.Dynamic:
		text, err = s.worlds.SerializeDynamic()
	default:
		return persistence.Record{}, fmt.Errorf("cannot save tier %s", name)
	}
	if err != nil {
		return persistence.Record{}, fmt.Errorf("serialize %s tier: %w", name, err)
	}
	sum := sha256.Sum256([]byte(text))
	checksum := hex.EncodeToString(sum[:])
	key := fmt.Sprintf("snapshots/%s/%s.json", name, checksum[:16])
	if _, err := s.archive.Put(ctx, key, strings.NewReader(text), archive.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"tier": name.String()},
	}); err != nil {
		return persistence.Record{}, fmt.Errorf("archive snapshot: %w", err)
	}
	rec, err := s.history.Append(ctx, persistence.Record{
		Tier:     name.String(),
		Key:      key,
		Checksum: checksum,
	})
	if err != nil {
		return persistence.Record{}, fmt.Errorf("record snapshot: %w", err)
	}
	return rec, nil
}

// RestoreDynamic fetches the archived snapshot named by the history record id
// and reloads the dynamic tier from it, discarding all accumulated edits and
// promotions.
func (s *Service) RestoreDynamic(ctx context.Context, recordID string) error {
	rec, ok, err := s.history.Get(ctx, recordID)
	if err != nil {
		return fmt.Errorf("lookup record: %w", err)
	}
	if !ok {
		return fmt.Errorf("record %s not found", recordID)
	}
	if rec.Tier != tier.Dynamic.String() {
		return fmt.Errorf("record %s describes the %s tier, not dynamic", recordID, rec.Tier)
	}
	_, body, err := s.archive.Get(ctx, rec.Key)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	defer func() { _ = body.Close() }()
	text, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	sum := sha256.Sum256(text)
	if got := hex.EncodeToString(sum[:]); got != rec.Checksum {
		return fmt.Errorf("snapshot %s checksum mismatch", rec.Key)
	}
	snap, err := scene.Parse(string(text))
	if err != nil {
		return err
	}
	return s.worlds.ReloadDynamic(snap)
}

// History lists the archived snapshot records for the named tier, oldest
// first; tier.None lists every tier.
func (s *Service) History(ctx context.Context, name tier.Name) ([]persistence.Record, error) {
	filter := ""
	if name != tier.None {
		filter = name.String()
	}
	return s.history.List(ctx, filter)
}
