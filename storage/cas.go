package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"agentworld/codec"
)

// ErrBlobNotFound is returned by Get/GetVerified when no blob exists for the
// requested hash.
var ErrBlobNotFound = fmt.Errorf("storage: blob not found")

// ErrBlobHashMismatch is returned when the bytes written (or read back) do
// not hash to the expected content hash.
var ErrBlobHashMismatch = fmt.Errorf("storage: blob hash mismatch")

// BlobStore is a hash-addressed store: file name equals hash of contents.
// The hash algorithm is fixed once, at construction, and never mixed with
// the other; a store opened with SHA256 cannot verify a BLAKE3 digest.
type BlobStore struct {
	root string
	alg  codec.Algorithm
}

// NewBlobStore opens a content-addressed blob store rooted at dir/blobs,
// creating the directory if absent. alg fixes the hash algorithm for every
// blob ever written through this store.
func NewBlobStore(dir string, alg codec.Algorithm) (*BlobStore, error) {
	root := filepath.Join(dir, "blobs")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &BlobStore{root: root, alg: alg}, nil
}

// Algorithm reports the hash algorithm this store was opened with.
func (s *BlobStore) Algorithm() codec.Algorithm { return s.alg }

func (s *BlobStore) path(hash string) string {
	return filepath.Join(s.root, hash+".blob")
}

// Has reports whether a blob for hash exists.
func (s *BlobStore) Has(hash string) bool {
	_, err := os.Stat(s.path(hash))
	return err == nil
}

// Put writes bytes under expectedHash, verifying hash(bytes)==expectedHash
// before committing. Existing blobs are left untouched (content-addressed
// writes are idempotent). The write is atomic: a temp file is written then
// renamed into place, so a crash mid-write never leaves a corrupt blob
// visible under its final name.
func (s *BlobStore) Put(expectedHash string, data []byte) error {
	actual := codec.Hash(s.alg, data)
	if actual != expectedHash {
		return fmt.Errorf("%w: expected %s, got %s", ErrBlobHashMismatch, expectedHash, actual)
	}
	if s.Has(expectedHash) {
		return nil
	}
	tmp, err := os.CreateTemp(s.root, "blob-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Rename(tmpName, s.path(expectedHash)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

// Get returns the raw bytes stored under hash, without re-verifying.
func (s *BlobStore) Get(hash string) ([]byte, error) {
	data, err := os.ReadFile(s.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, hash)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// GetVerified returns the blob's bytes after recomputing its hash, catching
// on-disk corruption that a bare Get would silently return.
func (s *BlobStore) GetVerified(hash string) ([]byte, error) {
	data, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	actual := codec.Hash(s.alg, data)
	if actual != hash {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrBlobHashMismatch, hash, actual)
	}
	return data, nil
}

// PutValue canonically encodes v as CBOR, hashes it, and stores it, returning
// the content hash so callers can build BlobRefs without a separate hash
// pass.
func (s *BlobStore) PutValue(v any) (string, error) {
	data, err := codec.MarshalCBOR(v)
	if err != nil {
		return "", err
	}
	hash := codec.Hash(s.alg, data)
	if err := s.Put(hash, data); err != nil {
		return "", err
	}
	return hash, nil
}
