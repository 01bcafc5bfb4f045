package unpack

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Find walks root and returns the regular files accepted by match in walk
// order. Unreadable entries are logged and skipped.
func Find(root string, recursive bool, match func(path string) bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && match(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}
	return found, nil
}

// HasPrefix reports whether the file at path starts with prefix.
func HasPrefix(path string, prefix []byte) bool {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("Cannot open file", "path", path, "error", err)
		return false
	}
	defer f.Close()

	head := make([]byte, len(prefix))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, prefix)
}
