package cas

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
)

// Key derives a BLAKE3 request key from length-prefixed parts, typically the
// engine version, the encoded options and the input text.
func Key(parts ...[]byte) string {
	h := blake3.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Blake3Hash computes the BLAKE3 digest of data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Entry is the JSON body of a key file.
type Entry struct {
	SHA256  string    `json:"sha256"`
	Created time.Time `json:"created"`
}

// Link records that key produced the blob sha256. Existing links are kept.
func (s *Store) Link(key, sha256 string) error {
	if !IsValidHash(key) || !IsValidHash(sha256) {
		return ErrInvalidHash
	}
	path := s.keyPath(key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.Marshal(Entry{SHA256: sha256, Created: time.Now().UTC()})
	if err != nil {
		return perrors.Wrap(err, "encode key entry")
	}
	return writeAtomic(path, data)
}

// Resolve returns the entry linked to key.
func (s *Store) Resolve(key string) (Entry, error) {
	if !IsValidHash(key) {
		return Entry{}, ErrInvalidHash
	}
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, ErrBlobNotFound
		}
		return Entry{}, perrors.NewIO("read", key, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, perrors.Wrapf(err, "decode key entry %s", key)
	}
	return e, nil
}

// PutKeyed stores data and links it under key in one step.
func (s *Store) PutKeyed(key string, data []byte) (string, error) {
	hash, err := s.Put(data)
	if err != nil {
		return "", err
	}
	if err := s.Link(key, hash); err != nil {
		return "", err
	}
	return hash, nil
}

// GetKeyed returns the blob linked to key.
func (s *Store) GetKeyed(key string) ([]byte, string, error) {
	e, err := s.Resolve(key)
	if err != nil {
		return nil, "", err
	}
	data, err := s.Get(e.SHA256)
	if err != nil {
		return nil, "", err
	}
	return data, e.SHA256, nil
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.root, "keys", key[:2], key+".json")
}
