// Package uploads keeps images attached to form answers.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const Dir = "uploads"

var (
	ErrUnsupportedType = errors.New("uploads: only jpg and png images are accepted")
	ErrInvalidHandle   = errors.New("uploads: invalid handle")
	ErrTooLarge        = errors.New("uploads: file too large")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type Store struct {
	dir     string
	maxSize int64
}

func New(dataDir string, maxSize int64) (*Store, error) {
	dir := filepath.Join(dataDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Save stores the image read from r and returns its handle. The type is taken
// from the content, not from the client supplied name.
func (s *Store) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("uploads: read: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	ext, ok := extensions[mtype.String()]
	if !ok {
		return "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, mtype.String())
	}

	handle := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, handle), data, 0o644); err != nil {
		return "", fmt.Errorf("uploads: write: %w", err)
	}
	return handle, nil
}

// Open returns the image behind handle along with its content type.
func (s *Store) Open(handle string) (io.ReadSeekCloser, string, error) {
	ext := filepath.Ext(handle)
	id := strings.TrimSuffix(handle, ext)
	if _, err := uuid.Parse(id); err != nil {
		return nil, "", ErrInvalidHandle
	}

	var contentType string
	for ct, e := range extensions {
		if e == ext {
			contentType = ct
		}
	}
	if contentType == "" {
		return nil, "", ErrInvalidHandle
	}

	f, err := os.Open(filepath.Join(s.dir, handle))
	if err != nil {
		return nil, "", err
	}
	return f, contentType, nil
}
