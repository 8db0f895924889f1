package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"upload-converter/internal/repository/upload"

	"github.com/google/renameio/v2"
)

// FileRepository is the local disk behind the upload pipeline and the
// converter. Writes go through a temp file and a rename, so a reader of the
// final path sees either the previous file or the complete new one.
type FileRepository struct {
	perm os.FileMode
}

func NewFileRepository() *FileRepository {
	return &FileRepository{
		perm: 0o644,
	}
}

func (r *FileRepository) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, wrapNotExist(err, path)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file: %w", path, upload.ErrStorageError)
	}
	return info.Size(), nil
}

func (r *FileRepository) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapNotExist(err, path)
	}
	return data, nil
}

func (r *FileRepository) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, data, r.perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteStream copies src into path atomically and returns the number of bytes
// written.
func (r *FileRepository) WriteStream(path string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	t, err := renameio.NewPendingFile(path, renameio.WithPermissions(r.perm))
	if err != nil {
		return 0, fmt.Errorf("failed to create pending file for %s: %w", path, err)
	}
	defer t.Cleanup()

	n, err := io.Copy(t, src)
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := t.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", path, err)
	}

	return n, nil
}

func (r *FileRepository) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapNotExist(err, path)
	}
	return f, nil
}

func (r *FileRepository) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (r *FileRepository) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return wrapNotExist(err, path)
	}
	return nil
}

func wrapNotExist(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, upload.ErrFileNotFound)
	}
	return fmt.Errorf("%s: %w: %v", path, upload.ErrStorageError, err)
}
