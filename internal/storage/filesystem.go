package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultSuffix is used when an upload name carries no usable extension.
const DefaultSuffix = ".wav"

// TempStore keeps request-scoped uploads under a base directory. Every file
// gets a random uuid name so concurrent requests never collide.
type TempStore struct {
	basePath string
}

// TempFile is a stored upload. Release must be called on every exit path.
type TempFile struct {
	Path string
	Size int64
}

// NewTempStore initializes a TempStore rooted at basePath.
func NewTempStore(basePath string) (*TempStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &TempStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *TempStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Save copies r into a new file named after filename's extension. On failure
// nothing is left behind.
func (s *TempStore) Save(ctx context.Context, r io.Reader, filename string) (*TempFile, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath := filepath.Join(s.basePath, "upload-"+uuid.NewString()+suffixFor(filename))
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("storage: create file: %w", err)
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("storage: write file: %w", errors.Join(copyErr, closeErr))
	}
	return &TempFile{Path: fullPath, Size: n}, nil
}

// Release deletes the file. Releasing twice is not an error.
func (f *TempFile) Release() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// suffixFor keeps a short alphanumeric extension from the client's file name
// and never lets it contribute path separators.
func suffixFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > 6 {
		return DefaultSuffix
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return DefaultSuffix
		}
	}
	return ext
}
