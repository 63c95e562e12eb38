package core

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"catalogcore/internal/blob"
	"catalogcore/pkg/domain"
)

// CreateDocumentationWithAttachment stores the attachment body in the blob
// store, then persists a documentation entry referencing it. The blob is
// cleaned up when the catalog transaction is rejected.
func (s *Service) CreateDocumentationWithAttachment(ctx context.Context, doc Documentation, filename string, body io.Reader, contentType string) (Documentation, Result, error) {
	var created Documentation
	res, err := s.run(ctx, "attach_documentation", func(ctx context.Context) (string, Result, error) {
		if s.opts.blobs == nil {
			return "", Result{}, fmt.Errorf("no blob store configured")
		}
		if doc.Title == "" {
			return "", Result{}, domain.SchemaError{Field: "title", Detail: "required"}
		}
		if filename == "" {
			return "", Result{}, domain.SchemaError{Field: "filename", Detail: "required"}
		}
		docID := uuid.NewString()
		key := blob.AttachmentKey(doc.ComponentID, docID, filename)
		if _, err := s.opts.blobs.Put(ctx, key, body, blob.PutOptions{ContentType: contentType}); err != nil {
			return "", Result{}, fmt.Errorf("store attachment: %w", err)
		}
		doc.ID = docID
		doc.AttachmentKey = &key
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateDocumentation(doc)
			return txErr
		})
		if err != nil {
			if _, delErr := s.opts.blobs.Delete(ctx, key); delErr != nil {
				s.opts.logger.Warn("orphaned attachment cleanup failed", "key", key, "error", delErr)
			}
			return "", res, err
		}
		return created.ID, res, nil
	})
	return created, res, err
}

// OpenDocumentationAttachment resolves a documentation entry and opens its
// attachment body.
func (s *Service) OpenDocumentationAttachment(ctx context.Context, docID string) (blob.Info, io.ReadCloser, error) {
	if s.opts.blobs == nil {
		return blob.Info{}, nil, fmt.Errorf("no blob store configured")
	}
	key, err := s.attachmentKeyFor(ctx, docID)
	if err != nil {
		return blob.Info{}, nil, err
	}
	return s.opts.blobs.Get(ctx, key)
}

// PresignDocumentationAttachment returns a time-limited URL for an
// attachment when the backend supports it.
func (s *Service) PresignDocumentationAttachment(ctx context.Context, docID string, opts blob.SignedURLOptions) (string, error) {
	if s.opts.blobs == nil {
		return "", fmt.Errorf("no blob store configured")
	}
	key, err := s.attachmentKeyFor(ctx, docID)
	if err != nil {
		return "", err
	}
	return s.opts.blobs.PresignURL(ctx, key, opts)
}

func (s *Service) attachmentKeyFor(ctx context.Context, docID string) (string, error) {
	var key string
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, doc := range view.ListDocumentation() {
			if doc.ID == docID {
				if doc.AttachmentKey == nil {
					return fmt.Errorf("documentation %s has no attachment", docID)
				}
				key = *doc.AttachmentKey
				return nil
			}
		}
		return domain.NotFoundError{Entity: domain.EntityDocumentation, ID: docID}
	})
	return key, err
}
