package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"thermo-monitor/internal/domain/port"
)

// FileImageStorage сохраняет загруженные изображения в каталог на диске
type FileImageStorage struct {
	dir string
}

// NewFileImageStorage создаёт хранилище и каталог для него
func NewFileImageStorage(dir string) (*FileImageStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &FileImageStorage{dir: dir}, nil
}

// Save записывает файл под случайным именем с исходным расширением
func (s *FileImageStorage) Save(ctx context.Context, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString()
	if ext != "" {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		name += filepath.Base(ext)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// Path возвращает полный путь к сохранённому файлу
func (s *FileImageStorage) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

var _ port.ImageStorage = (*FileImageStorage)(nil)
