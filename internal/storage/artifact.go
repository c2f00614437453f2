package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrEmptyName marks a validation failure (no usable filename), as
	// opposed to a disk-write failure.
	ErrEmptyName = errors.New("artifact name is empty")
	// ErrArtifactNotFound is returned when a stored artifact cannot be
	// resolved by name.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// Artifact is a stored upload: the generated unique name and its absolute
// path on disk.
type Artifact struct {
	Name string
	Path string
	Size int64
}

// ArtifactStore persists uploaded files under collision-free names and
// resolves them back to paths for the engine and for read-only serving.
type ArtifactStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (Artifact, error)
	// Path resolves a stored artifact name to its on-disk path. It rejects
	// names that escape the store root and reports ErrArtifactNotFound for
	// unknown names.
	Path(name string) (string, error)
}

// DiskStore is an ArtifactStore rooted at a single directory. Names are a
// monotonic sequence plus the sanitized original base name, and files are
// created with O_EXCL so an identical name can never silently overwrite an
// earlier artifact.
type DiskStore struct {
	root string
	seq  atomic.Int64
}

// NewDiskStore creates the root directory if needed and seeds the naming
// sequence from the clock so names stay monotonic across restarts.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	s := &DiskStore{root: root}
	s.seq.Store(time.Now().UnixNano())
	return s, nil
}

var _ ArtifactStore = (*DiskStore)(nil)

// Save streams the upload to disk under a freshly generated name.
func (s *DiskStore) Save(ctx context.Context, originalName string, r io.Reader) (Artifact, error) {
	base := sanitizeName(originalName)
	if base == "" {
		return Artifact{}, ErrEmptyName
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	name := fmt.Sprintf("%d_%s", s.seq.Add(1), base)
	path := filepath.Join(s.root, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Artifact{}, fmt.Errorf("create artifact: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("write artifact: %w", err)
	}

	return Artifact{Name: name, Path: path, Size: n}, nil
}

// Path resolves a stored name back to its on-disk location.
func (s *DiskStore) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", ErrArtifactNotFound
	}
	path := filepath.Join(s.root, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrArtifactNotFound
	}
	return path, nil
}

// sanitizeName reduces a caller-supplied filename to a safe base name.
// Storage identity never depends on it being unique.
func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)
}
