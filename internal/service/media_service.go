package service

import (
	"bufio"
	"fmt"
	"go-news-portal/internal/config"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadURLPrefix is where uploaded files are served from.
const UploadURLPrefix = "/uploads/"

// MediaService stores uploaded images.
type MediaService struct {
	dir     string
	maxSize int64
	allowed map[string]bool
}

// NewMediaService creates a new MediaService from the upload configuration.
func NewMediaService(cfg config.UploadConfig) *MediaService {
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimPrefix(t, "."))] = true
	}
	return &MediaService{dir: cfg.Dir, maxSize: cfg.MaxSize, allowed: allowed}
}

// Dir is the directory uploads are written to.
func (s *MediaService) Dir() string {
	return s.dir
}

// MaxSize is the largest accepted upload in bytes.
func (s *MediaService) MaxSize() int64 {
	return s.maxSize
}

// Save validates an uploaded image and writes it under a collision-free name.
// It returns the public URL of the stored file.
func (s *MediaService) Save(filename string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.allowed[ext] {
		return "", invalid("file", fmt.Sprintf("File type %q is not allowed", ext))
	}
	if s.maxSize > 0 && size > s.maxSize {
		return "", invalid("file", fmt.Sprintf("File is larger than %d MB", s.maxSize/(1024*1024)))
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return "", invalid("file", "File is not an image")
	}

	base := GenerateSlug(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "image"
	}
	name := uuid.NewString() + "-" + base + "." + ext

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	var src io.Reader = br
	if s.maxSize > 0 {
		src = io.LimitReader(br, s.maxSize+1)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = invalid("file", fmt.Sprintf("File is larger than %d MB", s.maxSize/(1024*1024)))
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", err
	}
	return path.Join(UploadURLPrefix, name), nil
}
