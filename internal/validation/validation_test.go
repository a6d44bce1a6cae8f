package validation

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		limit   int
		wantErr error
	}{
		{"empty", "", 0, nil},
		{"chinese", "你好，世界。", 0, nil},
		{"at limit", "abcd", 4, nil},
		{"over limit", "abcde", 4, ErrTextTooLarge},
		{"invalid utf8", "ok\xffok", 0, ErrInvalidUTF8},
		{"replacement char is valid", "�", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text, tt.limit)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateText() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, perrors.ErrInvalidInput) {
				t.Errorf("ValidateText() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTextReportsOffset(t *testing.T) {
	err := ValidateText("你\xff", 0)
	if err == nil || !strings.Contains(err.Error(), "at byte 3") {
		t.Errorf("error = %v, want offset 3", err)
	}
}

func TestValidateWorkers(t *testing.T) {
	for _, n := range []int{0, 1, MaxWorkers} {
		if err := ValidateWorkers(n); err != nil {
			t.Errorf("ValidateWorkers(%d) = %v", n, err)
		}
	}
	for _, n := range []int{-1, MaxWorkers + 1} {
		err := ValidateWorkers(n)
		var ve *perrors.ValidationError
		if !errors.As(err, &ve) || ve.Field != "workers" {
			t.Errorf("ValidateWorkers(%d) = %v, want workers ValidationError", n, err)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr error
	}{
		{"notes.txt", nil},
		{"dir/笔记.md", nil},
		{"", ErrEmptyPath},
		{strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
		{"bad\x00name", ErrInvalidCharacter},
		{"bad\nname", ErrInvalidCharacter},
	}
	for _, tt := range tests {
		if err := ValidatePath(tt.path); !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
			t.Errorf("ValidatePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	base := t.TempDir()
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"simple", "file.txt", "file.txt", false},
		{"nested", "sub//file.txt", filepath.Join("sub", "file.txt"), false},
		{"inner dots resolved", "sub/../file.txt", "file.txt", false},
		{"dotted name allowed", "..notes", "..notes", false},
		{"parent", "../etc/passwd", "", true},
		{"bare parent", "..", "", true},
		{"absolute", "/etc/passwd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(base, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	valid := []string{"out.txt", "结果.md", "a.b.c"}
	invalid := []string{"", ".", "..", "a/b", "a\\b", "-rf", "x\ty", strings.Repeat("n", MaxFilenameLength+1)}
	for _, n := range valid {
		if err := ValidateFilename(n); err != nil {
			t.Errorf("ValidateFilename(%q) = %v", n, err)
		}
	}
	for _, n := range invalid {
		if err := ValidateFilename(n); !errors.Is(err, ErrInvalidFilename) {
			t.Errorf("ValidateFilename(%q) = %v, want ErrInvalidFilename", n, err)
		}
	}
}

func TestDetectCompression(t *testing.T) {
	tests := []struct {
		head []byte
		want Compression
	}{
		{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00, 0x00}, CompressionXZ},
		{[]byte{0x1f, 0x8b, 0x08}, CompressionGzip},
		{[]byte("BZh91AY"), CompressionBzip2},
		{[]byte{0x28, 0xb5, 0x2f, 0xfd}, CompressionZstd},
		{[]byte("你好"), CompressionNone},
		{nil, CompressionNone},
	}
	for _, tt := range tests {
		if got := DetectCompression(tt.head); got != tt.want {
			t.Errorf("DetectCompression(% x) = %s, want %s", tt.head, got, tt.want)
		}
	}
}

func TestCompressionFromName(t *testing.T) {
	tests := map[string]Compression{
		"a.txt.xz":  CompressionXZ,
		"a.TXT.GZ":  CompressionGzip,
		"a.bz2":     CompressionBzip2,
		"a.zst":     CompressionZstd,
		"a.txt":     CompressionNone,
		"no-suffix": CompressionNone,
	}
	for name, want := range tests {
		if got := CompressionFromName(name); got != want {
			t.Errorf("CompressionFromName(%q) = %s, want %s", name, got, want)
		}
	}
}
