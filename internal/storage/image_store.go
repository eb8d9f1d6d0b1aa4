package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxImageSize caps uploads at 5 MiB.
const maxImageSize = 5 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

var (
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrImageTooLarge        = errors.New("image exceeds the size limit")
)

// ImageStore writes uploaded images into a disk bucket served under a
// public URL prefix. Stored names are random, so uploads never clash
// and client-supplied names never touch the filesystem.
type ImageStore struct {
	dir       string
	publicURL string
}

// NewImageStore creates the bucket directory if needed
func NewImageStore(dir, publicURL string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ImageStore{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Save stores the image and returns its public URL. The original
// filename contributes only its extension.
func (s *ImageStore) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedImageType
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(r, maxImageSize+1))
	if err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if written > maxImageSize {
		os.Remove(dst.Name())
		return "", ErrImageTooLarge
	}

	return s.publicURL + "/" + name, nil
}

// Delete removes a previously saved image by its public URL. Unknown
// URLs are ignored.
func (s *ImageStore) Delete(publicURL string) error {
	if !strings.HasPrefix(publicURL, s.publicURL+"/") {
		return nil
	}
	name := path.Base(publicURL)

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Dir returns the bucket directory for static file serving.
func (s *ImageStore) Dir() string {
	return s.dir
}
