package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// KV is a durable key-value store with whole-value reads and writes, in the
// shape of the browser localStorage the persisted format is compatible with.
type KV interface {
	// GetItem returns the stored value and whether the key exists.
	GetItem(key string) (string, bool, error)
	// SetItem stores the value, replacing any previous one atomically.
	SetItem(key, value string) error
}

// FileKV stores each key as a file under a data directory. Writes go through
// a temp file and rename so a failed write never corrupts the previous value.
type FileKV struct {
	dir string
}

// NewFileKV creates a file-backed store rooted at dir, creating it if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key)
}

// GetItem reads the value for key. A missing file is not an error.
func (f *FileKV) GetItem(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// SetItem writes the value for key atomically.
func (f *FileKV) SetItem(key, value string) error {
	tmp, err := os.CreateTemp(f.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}
