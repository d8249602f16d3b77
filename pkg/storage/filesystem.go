package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore implements BlobStore on the local filesystem. Each blob
// is a file under the root directory plus a sidecar metadata file holding
// the content type.
type FilesystemStore struct {
	rootDir string
}

type blobMeta struct {
	ContentType string `json:"content_type"`
}

// NewFilesystemStore creates a filesystem-backed blob store rooted at rootDir
func NewFilesystemStore(rootDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FilesystemStore{rootDir: rootDir}, nil
}

// blobPath maps a key to a path under the root. Keys are generated by the
// server from a constrained alphabet, but reject path traversal anyway.
func (s *FilesystemStore) blobPath(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid blob key: %q", key)
	}
	return filepath.Join(s.rootDir, key), nil
}

// Put implements BlobStore.Put
func (s *FilesystemStore) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	path, err := s.blobPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create blob file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write blob file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close blob file: %w", err)
	}

	meta, err := json.Marshal(blobMeta{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to marshal blob metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", meta, 0644); err != nil {
		return fmt.Errorf("failed to write blob metadata: %w", err)
	}

	return nil
}

// Get implements BlobStore.Get
func (s *FilesystemStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.blobPath(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open blob file: %w", err)
	}

	contentType := "application/octet-stream"
	if data, err := os.ReadFile(path + ".meta"); err == nil {
		var meta blobMeta
		if json.Unmarshal(data, &meta) == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}

	return f, contentType, nil
}

// Exists implements BlobStore.Exists
func (s *FilesystemStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.blobPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob file: %w", err)
	}
	return true, nil
}

// Delete implements BlobStore.Delete
func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	path, err := s.blobPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob file: %w", err)
	}
	if err := os.Remove(path + ".meta"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob metadata: %w", err)
	}
	return nil
}

// HealthCheck implements BlobStore.HealthCheck
func (s *FilesystemStore) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(s.rootDir); err != nil {
		return fmt.Errorf("blob root directory unavailable: %w", err)
	}
	return nil
}
