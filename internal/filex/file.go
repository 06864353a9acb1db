// Package filex holds the filesystem helpers used while preparing the
// database location.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirPerm keeps vault files private to the owning user.
const DirPerm os.FileMode = 0o700

// EnsureParentDir creates the directory that will contain path. A bare file
// name needs nothing.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
