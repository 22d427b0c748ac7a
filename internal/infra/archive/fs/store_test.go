package fs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"tiercore/internal/archive/core"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}
	ctx := context.Background()
	payload := []byte(`{"entities":[]}`)
	info, err := store.Put(ctx, "snapshots/dynamic/x.json", bytes.NewReader(payload), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("info = %+v", info)
	}
	gotInfo, rc, err := store.Get(ctx, "snapshots/dynamic/x.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload = %s", data)
	}
	if gotInfo.ETag != info.ETag {
		t.Fatalf("etag drifted: %s != %s", gotInfo.ETag, info.ETag)
	}
}

func TestStore_CreateOnly(t *testing.T) {
	store, _ := New(t.TempDir())
	ctx := context.Background()
	if _, err := store.Put(ctx, "k.json", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k.json", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only violation")
	}
}

func TestStore_KeySanitization(t *testing.T) {
	store, _ := New(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "/absolute", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	store, _ := New(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"snapshots/static/a.json", "snapshots/dynamic/b.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("{}"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := store.List(ctx, "snapshots/")
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	if list[0].Key > list[1].Key {
		t.Fatalf("list not sorted: %s, %s", list[0].Key, list[1].Key)
	}
	onlyStatic, err := store.List(ctx, "snapshots/static/")
	if err != nil || len(onlyStatic) != 1 {
		t.Fatalf("prefix list: %v %d", err, len(onlyStatic))
	}
	ok, err := store.Delete(ctx, "snapshots/static/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, _ := store.Delete(ctx, "snapshots/static/a.json"); ok {
		t.Fatalf("second delete reported true")
	}
}

func TestStore_PresignURL(t *testing.T) {
	store, _ := New(t.TempDir())
	ctx := context.Background()
	u, err := store.PresignURL(ctx, "k.json", core.SignedURLOptions{})
	if err != nil || !strings.Contains(u, "k.json") {
		t.Fatalf("presign: %q %v", u, err)
	}
	if _, err := store.PresignURL(ctx, "k.json", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatalf("expected unsupported method error")
	}
}
