// Package store persists small binary blobs under fixed keys, outside of
// process memory. It plays the role of the device's non-volatile storage.
package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/benmeehan/telemetry-agent/pkg/encryption"
	"github.com/benmeehan/telemetry-agent/pkg/file"
)

// KVStore is a persistent key-value blob store. GetBlob returns nil, nil for
// a key that was never written. Blobs are replaced wholesale by SetBlob.
type KVStore interface {
	GetBlob(key string) ([]byte, error)
	SetBlob(key string, data []byte) error
}

// FileStore keeps one file per key inside a directory.
type FileStore struct {
	dir        string
	fileClient file.FileOperations
	mu         sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(dir string, fileClient file.FileOperations) (*FileStore, error) {
	if err := fileClient.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, fileClient: fileClient}, nil
}

// GetBlob reads the blob stored under key.
func (s *FileStore) GetBlob(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.fileClient.IsFileExists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat blob %q: %w", key, err)
	}
	if !exists {
		return nil, nil
	}

	data, err := s.fileClient.ReadFileRaw(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %q: %w", key, err)
	}
	return data, nil
}

// SetBlob replaces the blob stored under key.
func (s *FileStore) SetBlob(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fileClient.WriteFileRaw(path, data); err != nil {
		return fmt.Errorf("failed to write blob %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, key+".blob"), nil
}

// EncryptedStore encrypts blobs before handing them to the underlying store.
type EncryptedStore struct {
	inner     KVStore
	encryptor encryption.EncryptionManagerInterface
}

// NewEncryptedStore wraps inner.
func NewEncryptedStore(inner KVStore, encryptor encryption.EncryptionManagerInterface) *EncryptedStore {
	return &EncryptedStore{inner: inner, encryptor: encryptor}
}

// GetBlob reads and decrypts the blob stored under key.
func (s *EncryptedStore) GetBlob(key string) ([]byte, error) {
	data, err := s.inner.GetBlob(key)
	if err != nil || data == nil {
		return data, err
	}

	plaintext, err := s.encryptor.Decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt blob %q: %w", key, err)
	}
	return plaintext, nil
}

// SetBlob encrypts data and stores it under key.
func (s *EncryptedStore) SetBlob(key string, data []byte) error {
	ciphertext, err := s.encryptor.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt blob %q: %w", key, err)
	}
	return s.inner.SetBlob(key, ciphertext)
}

// MemoryStore is a volatile KVStore, used when no storage directory is configured.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// GetBlob returns a copy of the blob stored under key.
func (s *MemoryStore) GetBlob(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// SetBlob stores a copy of data under key.
func (s *MemoryStore) SetBlob(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), data...)
	return nil
}
