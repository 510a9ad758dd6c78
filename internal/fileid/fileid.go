// Package fileid identifies imported files by normalized path and content fingerprint.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const fingerprintPrefix = "sha256:"

// Key returns the normalized absolute path used to track an imported file.
func Key(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

// Fingerprint returns a content hash of the file at path. Same bytes always yield the same value.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return fingerprintPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
