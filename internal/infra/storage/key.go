package storage

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const keyPrefix = "property-"

var allowedExt = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentType returns the image MIME type for a filename, or
// ErrUnsupportedType when the extension is not an accepted image format.
func ContentType(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ct, ok := allowedExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return ct, nil
}

// NewKey derives a unique, sortable object key from the original filename,
// e.g. "property-01J9Z3K5W8...jpg".
func NewKey(originalFilename string) (string, error) {
	if _, err := ContentType(originalFilename); err != nil {
		return "", err
	}
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return keyPrefix + id.String() + strings.ToLower(filepath.Ext(originalFilename)), nil
}

// validKey rejects anything that is not a flat object name.
func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
