package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"catalogcore/internal/blob"
)

func TestCreateDocumentationWithAttachment(t *testing.T) {
	store := blob.NewMemory()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithBlobStore(store))
	ctx := context.Background()
	component := mustCreateComponent(t, svc)

	doc, _, err := svc.CreateDocumentationWithAttachment(ctx, Documentation{
		ComponentID:  component.ID,
		Title:        "Datasheet",
		DocumentType: "datasheet",
	}, "datasheet.pdf", strings.NewReader("pdf-bytes"), "application/pdf")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if doc.AttachmentKey == nil {
		t.Fatalf("expected attachment key")
	}
	if !strings.Contains(*doc.AttachmentKey, component.ID) || !strings.Contains(*doc.AttachmentKey, doc.ID) {
		t.Fatalf("expected key scoped to component and doc, got %s", *doc.AttachmentKey)
	}

	info, body, err := svc.OpenDocumentationAttachment(ctx, doc.ID)
	if err != nil {
		t.Fatalf("open attachment: %v", err)
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read attachment: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Fatalf("unexpected body %q", data)
	}
	if info.ContentType != "application/pdf" {
		t.Fatalf("unexpected content type %s", info.ContentType)
	}

	if _, err := svc.PresignDocumentationAttachment(ctx, doc.ID, blob.SignedURLOptions{}); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("memory driver should not presign, got %v", err)
	}
}

func TestAttachmentRejectedTransactionCleansBlob(t *testing.T) {
	store := blob.NewMemory()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithBlobStore(store))
	ctx := context.Background()

	_, _, err := svc.CreateDocumentationWithAttachment(ctx, Documentation{
		ComponentID: "missing-component",
		Title:       "Datasheet",
	}, "datasheet.pdf", strings.NewReader("pdf-bytes"), "application/pdf")
	if err == nil {
		t.Fatalf("expected missing component to reject the transaction")
	}
	infos, listErr := store.List(ctx, "")
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(infos) != 0 {
		t.Fatalf("expected orphaned blob to be removed, got %v", infos)
	}
}

func TestAttachmentOperationsRequireBlobStore(t *testing.T) {
	svc := NewInMemoryService(NewDefaultRulesEngine())
	ctx := context.Background()
	component := mustCreateComponent(t, svc)

	if _, _, err := svc.CreateDocumentationWithAttachment(ctx, Documentation{ComponentID: component.ID, Title: "x"}, "f.txt", strings.NewReader("x"), ""); err == nil {
		t.Fatalf("expected error without blob store")
	}
	if _, _, err := svc.OpenDocumentationAttachment(ctx, "whatever"); err == nil {
		t.Fatalf("expected error without blob store")
	}
}

func TestOpenDocumentationAttachmentErrors(t *testing.T) {
	store := blob.NewMemory()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithBlobStore(store))
	ctx := context.Background()
	component := mustCreateComponent(t, svc)

	plain, _, err := svc.CreateDocumentation(ctx, Documentation{ComponentID: component.ID, Title: "Notes", Content: "inline"})
	if err != nil {
		t.Fatalf("create documentation: %v", err)
	}
	if _, _, err := svc.OpenDocumentationAttachment(ctx, plain.ID); err == nil {
		t.Fatalf("expected error for documentation without attachment")
	}
	if _, _, err := svc.OpenDocumentationAttachment(ctx, "missing"); err == nil {
		t.Fatalf("expected error for unknown documentation")
	}
}
