package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one file per key. The filename is derived from the key
// alone (hex MD5 plus ".txt"), never from the value.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a FileStore on it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create file store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// FilenameForKey returns the base filename that holds key.
func FilenameForKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:]) + ".txt"
}

// Dir returns the directory holding the files.
func (s *FileStore) Dir() string {
	return s.dir
}

// PathForKey returns the absolute file path that holds key.
func (s *FileStore) PathForKey(key string) string {
	return filepath.Join(s.dir, FilenameForKey(key))
}

// Name implements Bridge.
func (s *FileStore) Name() string {
	return "file:" + s.dir
}

// Get implements Bridge. A missing file loads as an empty value.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.PathForKey(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[load] failed to read file for %s: %w", key, err)
	}
	return data, nil
}

// Set implements Bridge. The value is written to a temp file and renamed
// into place so readers never observe a partial write.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.PathForKey(key)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("[save] failed to create file writer for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("[save] failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("[save] failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("[save] failed to move %s into place: %w", key, err)
	}
	return nil
}

// Delete implements Bridge. Removing a key with no file is an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.PathForKey(key))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[remove] %s: %w", key, ErrKeyNotFound)
	}
	if err != nil {
		return fmt.Errorf("[remove] failed to remove file for %s: %w", key, err)
	}
	return nil
}

// Close implements Bridge.
func (s *FileStore) Close() error {
	return nil
}
