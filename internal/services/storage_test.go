package services

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taskhive/backend/internal/config"
)

func multipartFile(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func newTestStorage(t *testing.T, maxSize int64) *DiskStorage {
	t.Helper()

	storage, err := NewDiskStorage(&config.UploadConfig{
		Dir:     t.TempDir(),
		BaseURL: "/uploads/",
		MaxSize: maxSize,
	})
	if err != nil {
		t.Fatalf("NewDiskStorage() error = %v", err)
	}
	return storage
}

func TestDiskStorage_Save(t *testing.T) {
	storage := newTestStorage(t, 0)
	file := multipartFile(t, "report.PDF", "file contents")

	stored, err := storage.Save(file)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if stored.Name != "report.PDF" {
		t.Errorf("Name = %q, expected original filename", stored.Name)
	}
	if !strings.HasPrefix(stored.URL, "/uploads/") {
		t.Errorf("URL = %q, expected /uploads/ prefix", stored.URL)
	}
	if !strings.HasSuffix(stored.URL, ".pdf") {
		t.Errorf("URL = %q, expected lowercased extension", stored.URL)
	}
	if strings.Contains(stored.URL, "report") {
		t.Errorf("URL = %q, stored name must not reuse the client filename", stored.URL)
	}

	data, err := os.ReadFile(filepath.Join(storage.dir, filepath.Base(stored.URL)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "file contents" {
		t.Errorf("stored contents = %q", data)
	}
}

func TestDiskStorage_UniqueNames(t *testing.T) {
	storage := newTestStorage(t, 0)

	first, err := storage.Save(multipartFile(t, "same.txt", "a"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := storage.Save(multipartFile(t, "same.txt", "b"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if first.URL == second.URL {
		t.Error("two uploads of the same filename must get distinct URLs")
	}
}

func TestDiskStorage_SizeLimit(t *testing.T) {
	storage := newTestStorage(t, 4)

	_, err := storage.Save(multipartFile(t, "big.bin", "way past the limit"))
	wantAppError(t, err, http.StatusBadRequest)
}
