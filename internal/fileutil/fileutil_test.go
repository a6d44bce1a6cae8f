package fileutil

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
	"github.com/FocuswithJustin/punctfix/internal/validation"
)

const sample = "你好，世界。\n第二行：测试！\n"

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plain.txt", "packed.txt.xz", "packed.txt.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteText(path, sample); err != nil {
				t.Fatalf("WriteText: %v", err)
			}
			got, err := ReadText(path, 0)
			if err != nil {
				t.Fatalf("ReadText: %v", err)
			}
			if got != sample {
				t.Errorf("ReadText = %q, want %q", got, sample)
			}
		})
	}
}

func TestWriteTextCompressesByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xz")
	if err := WriteText(path, sample); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if validation.DetectCompression(raw) != validation.CompressionXZ {
		t.Errorf("file is not xz: % x", raw[:8])
	}
}

func TestReadTextDetectsByContent(t *testing.T) {
	// Gzip content behind a .txt name is still decompressed.
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write([]byte(sample))
	w.Close()

	path := filepath.Join(t.TempDir(), "misnamed.txt")
	os.WriteFile(path, buf.Bytes(), 0644)

	got, err := ReadText(path, 0)
	if err != nil || got != sample {
		t.Errorf("ReadText = %q, %v", got, err)
	}
}

func TestReadTextErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadText(filepath.Join(dir, "missing.txt"), 0)
	if !errors.Is(err, perrors.ErrNotFound) {
		t.Errorf("missing file error = %v", err)
	}

	big := filepath.Join(dir, "big.txt")
	os.WriteFile(big, []byte(strings.Repeat("a", 100)), 0644)
	if _, err := ReadText(big, 10); !errors.Is(err, validation.ErrTextTooLarge) {
		t.Errorf("oversized error = %v", err)
	}

	bad := filepath.Join(dir, "bad.txt")
	os.WriteFile(bad, []byte("ok\xff"), 0644)
	if _, err := ReadText(bad, 0); !errors.Is(err, validation.ErrInvalidUTF8) {
		t.Errorf("invalid utf8 error = %v", err)
	}

	zst := filepath.Join(dir, "x.zst")
	os.WriteFile(zst, []byte{0x28, 0xb5, 0x2f, 0xfd, 0, 0}, 0644)
	if _, err := ReadText(zst, 0); !errors.Is(err, perrors.ErrUnsupported) {
		t.Errorf("zstd error = %v", err)
	}
}

func TestCompressUnsupported(t *testing.T) {
	_, err := Compress(validation.CompressionBzip2, []byte("x"))
	var ue *perrors.UnsupportedError
	if !errors.As(err, &ue) {
		t.Errorf("Compress(bzip2) = %v, want UnsupportedError", err)
	}
}

func TestWriteAtomicKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.txt")
	os.WriteFile(path, []byte("old"), 0600)

	if err := WriteText(path, "new"); err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestWriteAtomicRenameFailure(t *testing.T) {
	dir := t.TempDir()
	orig := osRename
	osRename = func(string, string) error { return os.ErrPermission }
	defer func() { osRename = orig }()

	err := WriteAtomic(filepath.Join(dir, "out.txt"), []byte("x"), 0644)
	var ioErr *perrors.IOError
	if !errors.As(err, &ioErr) || ioErr.Operation != "rename" {
		t.Fatalf("error = %v, want rename IOError", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %d", len(entries))
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	os.WriteFile(src, []byte(sample), 0644)

	dst := filepath.Join(dir, "nested", "deep", "src.txt.orig")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != sample {
		t.Errorf("content = %q", got)
	}
}

func TestCopyFileErrors(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "none"), filepath.Join(dir, "dst")); err == nil {
		t.Error("expected error for nonexistent source")
	}

	src := filepath.Join(dir, "src.txt")
	os.WriteFile(src, []byte("x"), 0644)
	blocker := filepath.Join(dir, "blocker")
	os.WriteFile(blocker, []byte("file"), 0644)
	if err := CopyFile(src, filepath.Join(blocker, "dst.txt")); err == nil {
		t.Error("expected error when destination directory can't be created")
	}
}
