// Package fileutil reads and writes the text files punctfix works on.
//
// Inputs may be plain or wrapped in xz, gzip or bzip2; the wrapper is found
// from the magic bytes, not the name. Outputs are compressed according to
// their extension (.xz or .gz) and always land through a temp file and rename.
package fileutil

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
	"github.com/FocuswithJustin/punctfix/internal/validation"
)

// Injectable for tests.
var (
	xzNewReader   = xz.NewReader
	xzNewWriter   = xz.NewWriter
	gzipNewReader = gzip.NewReader
	osRename      = os.Rename
)

// ReadText reads path, or stdin when path is "-", undoing any compression.
// At most limit decompressed bytes are accepted; zero means validation.MaxTextSize.
func ReadText(path string, limit int) (string, error) {
	if limit <= 0 {
		limit = validation.MaxTextSize
	}
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		if err := validation.ValidatePath(path); err != nil {
			return "", err
		}
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", perrors.NewNotFound("file", path)
			}
			return "", perrors.NewIO("open", path, err)
		}
		defer f.Close()
		r = f
	}

	data, err := readLimited(r, limit)
	if err != nil {
		return "", perrors.NewIO("read", path, err)
	}
	text := string(data)
	if err := validation.ValidateText(text, limit); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// Decompress wraps r according to its leading magic bytes.
func Decompress(r io.Reader) (io.Reader, validation.Compression, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(8)
	kind := validation.DetectCompression(head)
	switch kind {
	case validation.CompressionXZ:
		xr, err := xzNewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("xz header: %w", err)
		}
		return xr, kind, nil
	case validation.CompressionGzip:
		gr, err := gzipNewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("gzip header: %w", err)
		}
		return gr, kind, nil
	case validation.CompressionBzip2:
		return bzip2.NewReader(br), kind, nil
	case validation.CompressionZstd:
		return nil, kind, perrors.NewUnsupported("zstd input", "decompress it first")
	}
	return br, kind, nil
}

func readLimited(r io.Reader, limit int) ([]byte, error) {
	dr, _, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	// One extra byte lets ValidateText report the overflow.
	return io.ReadAll(io.LimitReader(dr, int64(limit)+1))
}

// WriteText atomically writes text to path, compressing by extension.
// Path "-" writes to stdout.
func WriteText(path, text string) error {
	if path == "-" {
		_, err := io.WriteString(os.Stdout, text)
		return err
	}
	if err := validation.ValidatePath(path); err != nil {
		return err
	}
	data, err := Compress(validation.CompressionFromName(path), []byte(text))
	if err != nil {
		return err
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return WriteAtomic(path, data, mode)
}

// Compress encodes data with the given wrapper.
func Compress(kind validation.Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch kind {
	case validation.CompressionNone:
		return data, nil
	case validation.CompressionXZ:
		w, err := xzNewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("xz write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("xz close: %w", err)
		}
	case validation.CompressionGzip:
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
	default:
		return nil, perrors.NewUnsupported(string(kind)+" output", "write .xz, .gz or plain text")
	}
	return buf.Bytes(), nil
}

// WriteAtomic writes data to a temp file beside path and renames it over path.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return perrors.NewIO("mkdir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return perrors.NewIO("create temp", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return perrors.NewIO("write", tmpPath, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return perrors.NewIO("chmod", tmpPath, err)
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

// CopyFile copies src to dst, creating parent directories. Used for backups
// before an in-place rewrite.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return perrors.NewIO("open", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return perrors.NewIO("stat", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return perrors.NewIO("mkdir", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return perrors.NewIO("create", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return perrors.NewIO("copy", dst, err)
	}
	return out.Close()
}
