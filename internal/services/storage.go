package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhive/backend/internal/config"
	"github.com/taskhive/backend/pkg/response"
)

// StoredFile describes a persisted upload.
type StoredFile struct {
	URL  string
	Name string
}

// Storage saves uploaded files and hands back a stable URL. Implementations
// must not leave partial files behind on failure.
type Storage interface {
	Save(file *multipart.FileHeader) (*StoredFile, error)
}

// DiskStorage writes uploads under a local directory served as static files.
type DiskStorage struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewDiskStorage(cfg *config.UploadConfig) (*DiskStorage, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{
		dir:     cfg.Dir,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		maxSize: cfg.MaxSize,
	}, nil
}

// Save stores the upload under a random name, keeping the original
// extension. The client-visible name stays the original filename.
func (s *DiskStorage) Save(file *multipart.FileHeader) (*StoredFile, error) {
	if s.maxSize > 0 && file.Size > s.maxSize {
		return nil, response.NewBadRequest("file exceeds the maximum upload size")
	}

	name := filepath.Base(file.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, response.NewBadRequest("invalid file name")
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	dst := filepath.Join(s.dir, stored)

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return nil, err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return nil, err
	}

	return &StoredFile{
		URL:  s.baseURL + "/" + stored,
		Name: name,
	}, nil
}
