// Package cas stores normalized documents by content hash.
//
// Blobs live under <root>/blobs/sha256/<first2>/<hash>. A second index under
// <root>/keys/<first2>/<key>.json maps BLAKE3 request keys (see Key) to the
// SHA-256 of the output they produced, so a repeated request can be answered
// without running the engine again.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// ErrBlobNotFound is returned when no blob or key entry exists.
var ErrBlobNotFound = fmt.Errorf("blob %w", perrors.ErrNotFound)

// ErrInvalidHash is returned when a hash is not 64 lowercase hex characters.
var ErrInvalidHash = fmt.Errorf("hash format: %w", perrors.ErrInvalidInput)

var hexDigest = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Store is a content-addressed blob store rooted at a directory.
// It is safe for concurrent use; writes go through a temp file and rename.
type Store struct {
	root string
}

// NewStore creates the directory layout under root if needed.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{
		filepath.Join(root, "blobs", "sha256"),
		filepath.Join(root, "keys"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, perrors.NewIO("mkdir", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Put stores data and returns its SHA-256. Storing existing content is a no-op.
func (s *Store) Put(data []byte) (string, error) {
	hash := Hash(data)
	path := s.blobPath(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return hash, nil
}

// Get returns the blob with the given SHA-256.
func (s *Store) Get(hash string) ([]byte, error) {
	if !IsValidHash(hash) {
		return nil, ErrInvalidHash
	}
	data, err := os.ReadFile(s.blobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, perrors.NewIO("read", hash, err)
	}
	return data, nil
}

// Open streams a blob; callers must close the reader.
func (s *Store) Open(hash string) (io.ReadCloser, int64, error) {
	if !IsValidHash(hash) {
		return nil, 0, ErrInvalidHash
	}
	f, err := os.Open(s.blobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrBlobNotFound
		}
		return nil, 0, perrors.NewIO("open", hash, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, perrors.NewIO("stat", hash, err)
	}
	return f, info.Size(), nil
}

// Has reports whether a blob exists.
func (s *Store) Has(hash string) bool {
	if !IsValidHash(hash) {
		return false
	}
	_, err := os.Stat(s.blobPath(hash))
	return err == nil
}

// Verify re-hashes a stored blob and reports whether it still matches its name.
func (s *Store) Verify(hash string) (bool, error) {
	data, err := s.Get(hash)
	if err != nil {
		return false, err
	}
	return Hash(data) == hash, nil
}

func (s *Store) blobPath(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash)
}

// IsValidHash reports whether hash is a lowercase hex SHA-256 or BLAKE3 digest.
func IsValidHash(hash string) bool {
	return hexDigest.MatchString(hash)
}

// Hash computes the SHA-256 of data without storing it.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return perrors.NewIO("mkdir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return perrors.NewIO("create temp", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return perrors.NewIO("write", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return perrors.NewIO("close", tmpPath, err)
	}
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return perrors.NewIO("rename", path, err)
	}
	return nil
}
