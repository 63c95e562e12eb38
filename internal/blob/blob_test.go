package blob

import (
	"context"
	"testing"
)

func TestAttachmentKey(t *testing.T) {
	key := AttachmentKey("comp-1", "doc-2", "manual.pdf")
	if key != "components/comp-1/docs/doc-2/manual.pdf" {
		t.Fatalf("unexpected key %s", key)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	t.Setenv("CATALOGCORE_BLOB_DRIVER", string(DriverMemory))
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}

	t.Setenv("CATALOGCORE_BLOB_DRIVER", "")
	t.Setenv("CATALOGCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}

	t.Setenv("CATALOGCORE_BLOB_DRIVER", "ftp")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	t.Setenv("CATALOGCORE_BLOB_DRIVER", string(DriverS3))
	t.Setenv("CATALOGCORE_BLOB_S3_BUCKET", "")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected s3 bucket requirement to surface")
	}
}
