package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
)

const publicPrefix = "/uploads/"

var (
	ImageExts = []string{".jpg", ".jpeg", ".png"}
	VideoExts = []string{".mp4", ".mov", ".webm", ".jpg", ".jpeg", ".png"}
	DocExts   = []string{".pdf", ".doc", ".docx"}
)

const (
	MaxImageSize = 5 * 1024 * 1024
	MaxVideoSize = 100 * 1024 * 1024
	MaxDocSize   = 10 * 1024 * 1024
)

// LocalStorage keeps uploads on disk under baseDir; they are served by
// app.Static("/uploads", baseDir).
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// SaveFile copies an upload into folder and returns its public URL.
func (s *LocalStorage) SaveFile(ctx context.Context, fh *multipart.FileHeader, folder string, exts []string, maxSize int64) (string, error) {
	ext, err := checkUpload(fh, exts, maxSize)
	if err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperrors.Internal(err, "failed to read upload")
	}
	defer src.Close()

	name, dst, err := s.target(folder, ext)
	if err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", apperrors.Internal(err, "failed to save file")
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", apperrors.Internal(err, "failed to save file")
	}
	return s.publicURL(folder, name), nil
}

// SaveImage decodes an uploaded image, shrinks it to maxWidth when wider and
// stores it re-encoded in its original format.
func (s *LocalStorage) SaveImage(ctx context.Context, fh *multipart.FileHeader, folder string, maxWidth int) (string, error) {
	ext, err := checkUpload(fh, ImageExts, MaxImageSize)
	if err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperrors.Internal(err, "failed to read upload")
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", apperrors.Validation("file is not a valid image")
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	name, dst, err := s.target(folder, ext)
	if err != nil {
		return "", err
	}
	if err := imaging.Save(img, dst, imaging.JPEGQuality(85)); err != nil {
		return "", apperrors.Internal(err, "failed to save image")
	}
	return s.publicURL(folder, name), nil
}

// Delete removes a file previously returned by SaveFile/SaveImage.
// Placeholders and external URLs are ignored; a missing file is not an error.
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	rel, ok := s.managedPath(ref)
	if !ok {
		return nil
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// managedPath maps a public URL back to a path relative to baseDir.
func (s *LocalStorage) managedPath(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if s.baseURL != "" {
		ref = strings.TrimPrefix(ref, s.baseURL)
	}
	if !strings.HasPrefix(ref, publicPrefix) {
		return "", false
	}
	rel := path.Clean(strings.TrimPrefix(ref, publicPrefix))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}

func (s *LocalStorage) target(folder, ext string) (name, dst string, err error) {
	dir := filepath.Join(s.baseDir, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", apperrors.Internal(err, "failed to create upload dir")
	}
	name = uuid.New().String() + ext
	return name, filepath.Join(dir, name), nil
}

func (s *LocalStorage) publicURL(folder, name string) string {
	return s.baseURL + publicPrefix + path.Join(folder, name)
}

func checkUpload(fh *multipart.FileHeader, exts []string, maxSize int64) (string, error) {
	if fh == nil || fh.Size <= 0 {
		return "", apperrors.Validation("file is empty")
	}
	if maxSize > 0 && fh.Size > maxSize {
		return "", apperrors.Validation(fmt.Sprintf("file exceeds %dMB", maxSize/(1024*1024)))
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	for _, e := range exts {
		if e == ext {
			return ext, nil
		}
	}
	return "", apperrors.Validation("unsupported file type " + ext)
}
