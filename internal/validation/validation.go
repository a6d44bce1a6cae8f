// Package validation checks user-supplied text, paths and limits before they
// reach the engine or the filesystem.
package validation

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
)

// Limits that keep a single request from exhausting memory.
const (
	// MaxTextSize is the default maximum input size (16 MB).
	MaxTextSize = 16 << 20
	// MaxWorkers caps the per-run worker count.
	MaxWorkers = 256
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors. All of them match core/errors.ErrInvalidInput.
var (
	ErrEmptyPath        = fmt.Errorf("path cannot be empty: %w", perrors.ErrInvalidInput)
	ErrPathTooLong      = fmt.Errorf("path too long: %w", perrors.ErrInvalidInput)
	ErrPathTraversal    = fmt.Errorf("path traversal detected: %w", perrors.ErrInvalidInput)
	ErrInvalidCharacter = fmt.Errorf("invalid character in path: %w", perrors.ErrInvalidInput)
	ErrInvalidFilename  = fmt.Errorf("invalid filename: %w", perrors.ErrInvalidInput)
	ErrTextTooLarge     = fmt.Errorf("text too large: %w", perrors.ErrInvalidInput)
	ErrInvalidUTF8      = fmt.Errorf("text is not valid UTF-8: %w", perrors.ErrInvalidInput)
)

// ValidateText rejects input larger than limit bytes or not valid UTF-8.
// A limit of zero or less means MaxTextSize.
func ValidateText(text string, limit int) error {
	if limit <= 0 {
		limit = MaxTextSize
	}
	if len(text) > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTextTooLarge, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w at byte %d", ErrInvalidUTF8, firstInvalid(text))
	}
	return nil
}

func firstInvalid(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return -1
}

// ValidateWorkers checks a requested worker count. Zero selects the default.
func ValidateWorkers(n int) error {
	if n < 0 || n > MaxWorkers {
		return perrors.NewValidation("workers", fmt.Sprintf("must be between 0 and %d, got %d", MaxWorkers, n))
	}
	return nil
}

// ValidatePath checks a path for length limits and control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: %U", ErrInvalidCharacter, r)
		}
	}
	return nil
}

// SanitizePath resolves userPath under baseDir and rejects anything that escapes it.
// It returns the cleaned relative path.
func SanitizePath(baseDir, userPath string) (string, error) {
	if err := ValidatePath(userPath); err != nil {
		return "", err
	}
	clean := filepath.Clean(userPath)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, clean))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return clean, nil
}

// ValidateFilename checks a bare file name, such as a download name.
func ValidateFilename(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return ErrInvalidFilename
	case len(name) > MaxFilenameLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidFilename, MaxFilenameLength)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	case strings.HasPrefix(name, "-"):
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	return nil
}

// Compression identifies a stream wrapper by its magic bytes.
type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionXZ    Compression = "xz"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionZstd  Compression = "zstd"
)

var magicBytes = []struct {
	kind  Compression
	magic []byte
}{
	{CompressionXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{CompressionGzip, []byte{0x1f, 0x8b}},
	{CompressionBzip2, []byte("BZh")},
	{CompressionZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
}

// DetectCompression inspects the first bytes of a file.
func DetectCompression(head []byte) Compression {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(head, sig.magic) {
			return sig.kind
		}
	}
	return CompressionNone
}

// CompressionFromName guesses the wrapper from a file extension.
func CompressionFromName(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xz":
		return CompressionXZ
	case ".gz":
		return CompressionGzip
	case ".bz2":
		return CompressionBzip2
	case ".zst":
		return CompressionZstd
	}
	return CompressionNone
}
