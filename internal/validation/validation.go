// Package validation checks user-supplied database paths and confirms that a
// file's content matches what its name promises before it is decoded.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrTypeMismatch     = errors.New("file type mismatch")
)

// ValidatePath performs path validation without requiring a base directory.
// It checks length limits and rejects null bytes and control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// FileType is the container a database file is stored in.
type FileType string

const (
	FileTypeSQLite  FileType = "sqlite"
	FileTypeGzip    FileType = "gzip"
	FileTypeXZ      FileType = "xz"
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeSQLite, []byte("SQLite format 3\x00")},
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
}

// ValidateFileType reads the start of a file and checks that its content
// matches the type its name suggests. A compressed suffix must hold that
// compression; a database suffix must not hold a compressed stream. Unknown
// names and unknown content pass through as the other side's type, so the
// decoder can report the precise failure.
func ValidateFileType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 16)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := detectFileTypeFromMagic(buf)
	expected := detectFileTypeFromExtension(filename)

	switch {
	case detected == expected:
		return detected, nil
	case expected == FileTypeUnknown:
		return detected, nil
	case detected == FileTypeUnknown && expected == FileTypeSQLite:
		// not compressed; the header decoder names the problem
		return expected, nil
	default:
		return FileTypeUnknown, fmt.Errorf("%w: name suggests %s but content is %s", ErrTypeMismatch, expected, detected)
	}
}

// detectFileTypeFromMagic detects file type from magic bytes.
func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

// detectFileTypeFromExtension determines expected file type from filename extension.
func detectFileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xz":
		return FileTypeXZ
	case ".gz":
		return FileTypeGzip
	case ".sqlite", ".db", ".sqlite3", ".db3":
		return FileTypeSQLite
	default:
		return FileTypeUnknown
	}
}
