package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"catalogcore/internal/blob/core"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "components/c1/docs/d1/a.txt", strings.NewReader("hello"), core.PutOptions{ContentType: "text/plain", Metadata: map[string]string{"source": "test"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 5 || info.ContentType != "text/plain" || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}

	if _, err := store.Put(ctx, "components/c1/docs/d1/a.txt", strings.NewReader("again"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate key to fail")
	}
	if _, err := store.Put(ctx, "  ", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key to fail")
	}

	got, body, err := store.Get(ctx, "components/c1/docs/d1/a.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(body)
	_ = body.Close()
	if string(data) != "hello" {
		t.Fatalf("unexpected body %q", data)
	}
	if got.Metadata["source"] != "test" {
		t.Fatalf("metadata lost: %+v", got.Metadata)
	}

	head, err := store.Head(ctx, "components/c1/docs/d1/a.txt")
	if err != nil || head.Size != 5 {
		t.Fatalf("head: %+v %v", head, err)
	}

	if _, _, err := store.Get(ctx, "nope"); err == nil {
		t.Fatalf("expected get miss")
	}
	if _, err := store.Head(ctx, "nope"); err == nil {
		t.Fatalf("expected head miss")
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"components/c1/docs/d1/a", "components/c1/docs/d2/b", "components/c2/docs/d3/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "components/c1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 blobs, got %d", len(infos))
	}
	if infos[0].Key > infos[1].Key {
		t.Fatalf("expected key order, got %v", infos)
	}

	ok, err := store.Delete(ctx, "components/c1/docs/d1/a")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "components/c1/docs/d1/a")
	if err != nil || ok {
		t.Fatalf("second delete should report missing")
	}

	if _, err := store.PresignURL(ctx, "components/c2/docs/d3/c", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported presign, got %v", err)
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}
