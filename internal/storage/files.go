// Package storage keeps uploaded resume files on disk. The filesystem
// is abstracted behind afero so tests run against an in-memory fs.
package storage

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
)

// FileStore writes and removes stored attachments under a base
// directory.
type FileStore struct {
	fs      afero.Fs
	baseDir string
	logger  logger.Logger
}

func NewFileStore(fs afero.Fs, baseDir string, log logger.Logger) *FileStore {
	return &FileStore{fs: fs, baseDir: baseDir, logger: log}
}

// NewOSFileStore stores files on the real filesystem.
func NewOSFileStore(baseDir string, log logger.Logger) *FileStore {
	return NewFileStore(afero.NewOsFs(), baseDir, log)
}

// StorageName derives a collision-free stored name from the original
// file name, keeping its extension.
func StorageName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d%s", uuid.NewString(), time.Now().UnixMilli(), ext)
}

// Save streams content to a new file and returns its path relative to
// the base directory.
func (f *FileStore) Save(storedName string, content io.Reader) (string, error) {
	if err := f.fs.MkdirAll(f.baseDir, 0o755); err != nil {
		return "", errors.NewFileStorageFailedError(fmt.Errorf("create uploads dir: %w", err))
	}

	path := filepath.Join(f.baseDir, storedName)
	file, err := f.fs.Create(path)
	if err != nil {
		return "", errors.NewFileStorageFailedError(fmt.Errorf("create %s: %w", storedName, err))
	}
	defer file.Close()

	written, err := io.Copy(file, content)
	if err != nil {
		f.fs.Remove(path)
		return "", errors.NewFileStorageFailedError(fmt.Errorf("write %s: %w", storedName, err))
	}

	f.logger.Info("Stored attachment", map[string]interface{}{
		"stored_name": storedName,
		"bytes":       written,
	})
	return path, nil
}

// Remove deletes a stored file. A missing file is not an error, the
// goal is the file being gone.
func (f *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	exists, err := afero.Exists(f.fs, path)
	if err != nil {
		return errors.NewFileStorageFailedError(fmt.Errorf("stat %s: %w", path, err))
	}
	if !exists {
		return nil
	}
	if err := f.fs.Remove(path); err != nil {
		return errors.NewFileStorageFailedError(fmt.Errorf("remove %s: %w", path, err))
	}
	return nil
}

// Exists reports whether a stored path is still present.
func (f *FileStore) Exists(path string) (bool, error) {
	return afero.Exists(f.fs, path)
}

// Read opens a stored file for extraction.
func (f *FileStore) Read(path string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, errors.NewFileStorageFailedError(fmt.Errorf("read %s: %w", path, err))
	}
	return data, nil
}
