package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// LocalStorage writes media to a filesystem served under baseURL.
type LocalStorage struct {
	fs      afero.Fs
	baseURL string
	now     func() time.Time
}

func NewLocalStorage(fs afero.Fs, baseURL string) *LocalStorage {
	return &LocalStorage{fs: fs, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// NewDiskStorage roots a LocalStorage at dir on the OS filesystem.
func NewDiskStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return NewLocalStorage(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL), nil
}

func (s *LocalStorage) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	name := objectName(folder, filename, s.now())

	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	f, err := s.fs.Create(name)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(name)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	return s.baseURL + "/" + name, nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || name == "" || strings.Contains(name, "..") {
		return fmt.Errorf("url %q is not served by this storage", url)
	}

	err := s.fs.Remove(name)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}
