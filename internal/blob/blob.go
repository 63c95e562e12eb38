// Package blob re-exports the attachment storage abstractions and selects a
// backend for documentation attachments.
package blob

import (
	"context"
	"fmt"
	"os"
	"path"

	"catalogcore/internal/blob/core"
	"catalogcore/internal/infra/blob/fs"
	memorystore "catalogcore/internal/infra/blob/memory"
	infras3 "catalogcore/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// S3Config re-exports the S3 construction parameters.
type S3Config = infras3.Config

// NewFilesystem constructs a filesystem-backed store rooted at the path.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// NewMemory returns an in-memory store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// NewS3 constructs an S3-backed store from explicit configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infras3.New(ctx, cfg)
}

// NewMockS3ForTests exposes the in-memory S3 mock for cross-package tests.
func NewMockS3ForTests() Store { return infras3.NewMockForTests() }

// AttachmentKey builds the canonical object key for a documentation
// attachment, scoped under its component and documentation entry.
func AttachmentKey(componentID, docID, filename string) string {
	return path.Join("components", componentID, "docs", docID, filename)
}

// Open selects a Store implementation using environment variables.
//
//	CATALOGCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	CATALOGCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./attachments)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("CATALOGCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("CATALOGCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return infras3.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
