// Package secureio provides file I/O helpers that validate paths before
// touching the filesystem. Every write, read, or recursive remove performed
// by the orchestrators in this module goes through here first.
package secureio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ValidateFilePath rejects relative paths and any path containing "..",
// whether as a path segment or inside a file name.
func ValidateFilePath(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	return nil
}

// ReadFile safely reads a file after validating the path.
func ReadFile(path string) ([]byte, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path) // #nosec G304 - path validated above
}

// WriteFile safely writes a file after validating the path.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm) // #nosec G306 - secure permissions enforced
}

// Create safely creates a file after validating the path.
func Create(path string) (*os.File, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	return os.Create(path) // #nosec G304 - path validated above
}

// WriteAtomic writes data to path by writing to a sibling temp file and
// renaming over the destination, so a crash mid-write never leaves a
// truncated document behind. Used for every persisted document in this
// module: permission policy, update state, apply attempts.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// IsSafeCleanupPath reports whether path (after resolving to absolute form)
// is strictly inside home: not equal to home, not equal to "/", and its
// path relative to home never starts with "..".
func IsSafeCleanupPath(path, home string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absHome, err := filepath.Abs(home)
	if err != nil {
		return false
	}

	if absPath == "/" || absPath == absHome {
		return false
	}

	rel, err := filepath.Rel(absHome, absPath)
	if err != nil {
		return false
	}
	if rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return false
	}

	return true
}

// RemoveAllSafe recursively removes path after checking IsSafeCleanupPath,
// retrying once after a short delay if the first attempt fails (a file
// briefly held open by a just-killed child process is the common case).
func RemoveAllSafe(path, home string) error {
	if !IsSafeCleanupPath(path, home) {
		return fmt.Errorf("refusing to remove unsafe path: %s", path)
	}

	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}

	time.Sleep(150 * time.Millisecond)
	return os.RemoveAll(path)
}
