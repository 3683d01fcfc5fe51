// Package storage provides BlobStore implementations for uploaded files:
// an S3-compatible bucket and a local directory.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty, absolute, or contain
// path traversal segments.
var ErrInvalidKey = errors.New("invalid storage key")

// validateKey rejects storage keys that could escape the bucket prefix or
// upload directory.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsRune(key, '\\') {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." || segment == "." || segment == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
