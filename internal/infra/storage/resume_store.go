package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFileType = errors.New("file type not allowed (accepted: pdf, doc, docx)")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrInvalidKey          = errors.New("invalid file key")
)

var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Content signatures for the whitelisted formats. DOCX is a zip container,
// legacy DOC is an OLE compound file.
var allowedSignatures = [][]byte{
	[]byte("%PDF-"),
	{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1},
	{0x50, 0x4B, 0x03, 0x04},
}

const maxStemLength = 50

// ResumeStore persists uploaded resumes under a single root directory.
// Keys are flat filenames in the form {uuid}_{sanitizedStem}{.ext}.
type ResumeStore struct {
	root    string
	maxSize int64
}

func NewResumeStore(root string, maxSize int64) (*ResumeStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	return &ResumeStore{root: absRoot, maxSize: maxSize}, nil
}

// Store validates and writes one uploaded file, returning its storage key.
// The size ceiling is enforced against the bytes actually read, never a
// client-declared length.
func (s *ResumeStore) Store(ctx context.Context, r io.Reader, declaredName, declaredType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(declaredName))
	mimeType, ok := allowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFileType, ext)
	}

	if declaredType != "" && declaredType != mimeType && !isAllowedMimeType(declaredType) {
		return "", fmt.Errorf("%w: content type %q", ErrUnsupportedFileType, declaredType)
	}

	// Read one byte past the ceiling so an oversized stream is detectable
	// without buffering the whole thing.
	contents, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(contents)) > s.maxSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxSize)
	}

	if !hasAllowedSignature(contents) {
		return "", fmt.Errorf("%w: content does not match any accepted format", ErrUnsupportedFileType)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := generateKey(declaredName, ext)

	path, err := s.Resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return key, nil
}

// Resolve maps a key to an absolute path under the storage root. Keys that
// would escape the root are rejected before touching the filesystem.
func (s *ResumeStore) Resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	path := filepath.Join(s.root, key)
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return path, nil
}

// Delete removes the file for key. Deleting a key that does not exist is not
// an error; the bool reports whether anything was removed.
func (s *ResumeStore) Delete(ctx context.Context, key string) (bool, error) {
	path, err := s.Resolve(key)
	if err != nil {
		return false, err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	return true, nil
}

func (s *ResumeStore) Exists(key string) bool {
	path, err := s.Resolve(key)
	if err != nil {
		return false
	}

	_, err = os.Stat(path)
	return err == nil
}

func (s *ResumeStore) Size(key string) (int64, error) {
	path, err := s.Resolve(key)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// ContentType returns the media type for a key based on its extension.
func ContentType(key string) string {
	if mimeType, ok := allowedExtensions[strings.ToLower(filepath.Ext(key))]; ok {
		return mimeType
	}
	return "application/octet-stream"
}

func generateKey(declaredName, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(declaredName), filepath.Ext(declaredName))

	// Dot runs are collapsed so the key can never contain "..", which Resolve
	// rejects as traversal.
	var b strings.Builder
	prevDot := false
	for _, c := range stem {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
			prevDot = false
		case c == '_' || c == '-':
			b.WriteRune(c)
			prevDot = false
		case c == '.':
			if !prevDot {
				b.WriteRune(c)
			}
			prevDot = true
		}
	}

	sanitized := b.String()
	if len(sanitized) > maxStemLength {
		sanitized = sanitized[:maxStemLength]
	}
	sanitized = strings.TrimRight(sanitized, ".")

	return uuid.New().String() + "_" + sanitized + ext
}

func isAllowedMimeType(t string) bool {
	for _, m := range allowedExtensions {
		if m == t {
			return true
		}
	}
	return false
}

func hasAllowedSignature(contents []byte) bool {
	for _, sig := range allowedSignatures {
		if bytes.HasPrefix(contents, sig) {
			return true
		}
	}
	return false
}
