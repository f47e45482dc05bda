package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/intentflow/pkg/domain"
)

// DefaultExt is appended to snapshot names on disk.
const DefaultExt = ".json"

// Store implements ports.SnapshotStore using the local filesystem.
// Each snapshot is one file in BasePath.
type Store struct {
	BasePath string
	Ext      string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".intentflow/snapshots".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".intentflow", "snapshots")
	}
	return &Store{BasePath: basePath, Ext: DefaultExt}
}

// Save writes the snapshot atomically: temp file in the same directory,
// fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	destPath, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows rename fails when the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing snapshot for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the snapshot file.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the names of all snapshot files, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		n := entry.Name()
		if entry.IsDir() || strings.HasPrefix(n, "tmp-") || filepath.Ext(n) != s.ext() {
			continue
		}
		names = append(names, strings.TrimSuffix(n, s.ext()))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("snapshot name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(s.BasePath, name+s.ext()), nil
}

func (s *Store) ext() string {
	if s.Ext == "" {
		return DefaultExt
	}
	return s.Ext
}
