package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"catalogcore/internal/blob/core"
)

func TestMockS3RoundTrip(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	info, err := store.Put(ctx, "components/c1/docs/d1/a.txt", strings.NewReader("hello"), core.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 5 {
		t.Fatalf("unexpected size %d", info.Size)
	}
	if _, err := store.Put(ctx, "components/c1/docs/d1/a.txt", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate key to fail")
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
	if got.ContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", got.ContentType)
	}

	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatalf("expected head miss")
	}
	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}

func TestMockS3ListAndDelete(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	for _, key := range []string{"c1/a", "c1/b", "c2/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "c1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "c1/a" || infos[1].Key != "c1/b" {
		t.Fatalf("unexpected listing %+v", infos)
	}

	ok, err := store.Delete(ctx, "c1/a")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, _, err := store.Get(ctx, "c1/a"); err == nil {
		t.Fatalf("expected get after delete to fail")
	}
}

func TestMockS3Presign(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if _, err := store.Put(ctx, "c1/a", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	url, err := store.PresignURL(ctx, "c1/a", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "c1/a") {
		t.Fatalf("unexpected url %s", url)
	}
	if _, err := store.PresignURL(ctx, "c1/a", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatalf("expected PUT presign to be unsupported")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestStaticCredentials(t *testing.T) {
	if staticCredentials(Config{}) != nil {
		t.Fatalf("expected nil provider when no keys are configured")
	}
	if staticCredentials(Config{AccessKeyID: "AKID"}) != nil {
		t.Fatalf("expected nil provider when the secret key is missing")
	}

	provider := staticCredentials(Config{AccessKeyID: "AKID", SecretAccessKey: "secret", SessionToken: "token"})
	if provider == nil {
		t.Fatalf("expected a provider for configured keys")
	}
	creds, err := provider.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKID" || creds.SecretAccessKey != "secret" || creds.SessionToken != "token" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("CATALOGCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
