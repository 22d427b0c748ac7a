package s3

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"tiercore/internal/archive/core"
)

func TestMockStore_PutGetHeadListDelete(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if store.Driver() != core.DriverS3 {
		t.Fatalf("driver = %s", store.Driver())
	}
	payload := []byte(`{"entities":[]}`)
	if _, err := store.Put(ctx, "snapshots/static/a.json", bytes.NewReader(payload), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "snapshots/static/a.json", bytes.NewReader(payload), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only violation")
	}
	info, err := store.Head(ctx, "snapshots/static/a.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.Size != int64(len(payload)) {
		t.Fatalf("size = %d, want %d", info.Size, len(payload))
	}
	_, rc, err := store.Get(ctx, "snapshots/static/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload = %s", data)
	}
	list, err := store.List(ctx, "snapshots/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	if ok, err := store.Delete(ctx, "snapshots/static/a.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "snapshots/static/a.json"); err == nil {
		t.Fatalf("expected miss after delete")
	}
}

func TestMockStore_PresignURL(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	u, err := store.PresignURL(ctx, "snapshots/static/a.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(u, "snapshots/static/a.json") {
		t.Fatalf("url = %s", u)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatalf("expected unsupported method")
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestOpenFromEnv_RequiresBucket(t *testing.T) {
	t.Setenv("TIERCORE_ARCHIVE_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected error without bucket env")
	}
}
