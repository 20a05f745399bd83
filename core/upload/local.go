package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage persists uploads on the local filesystem. Stored names are
// prefixed with a UUID so concurrent uploads of the same filename never clash.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates a filesystem-backed storage rooted at dir.
// An empty dir uses a fresh temporary directory.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "routekit-uploads-")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Dir returns the storage root.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save implements Storage.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := uuid.New().String() + "_" + SanitizeFilename(name)
	path := filepath.Join(s.dir, stored)
	if !strings.HasPrefix(path, s.dir) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	return path, nil
}
