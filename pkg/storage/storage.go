// Package storage provides blob storage backends for product images.
// Two implementations exist: local filesystem for development and S3
// (or any S3-compatible endpoint such as MinIO) for production.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when the requested blob does not exist
var ErrNotFound = errors.New("blob not found")

// BlobStore abstracts object storage for uploaded content
type BlobStore interface {
	// Put stores content under key, overwriting any existing blob.
	Put(ctx context.Context, key string, content io.Reader, contentType string) error

	// Get returns the blob content and its content type. Callers must
	// close the reader. Returns ErrNotFound for missing keys.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Exists reports whether a blob is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the blob under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error
}

// Config holds blob storage configuration
type Config struct {
	Type           string // "filesystem" or "s3"
	FilesystemRoot string

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// DefaultConfig returns a filesystem-backed configuration suitable for
// local development
func DefaultConfig() Config {
	return Config{
		Type:           "filesystem",
		FilesystemRoot: "./data/blobs",
		S3Region:       "us-east-1",
		S3UsePathStyle: true,
	}
}

// NewBlobStore creates the backend selected by cfg.Type
func NewBlobStore(cfg Config) (BlobStore, error) {
	switch cfg.Type {
	case "filesystem":
		return NewFilesystemStore(cfg.FilesystemRoot)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
