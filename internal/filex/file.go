// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold path, so a database
// file such as "data/register.db" can be opened on first start. SQLite
// special names (":memory:", "file:" URIs) and bare file names are left
// alone.
func EnsureParentDir(path string) (string, error) {
	if path == "" || strings.HasPrefix(path, ":") || strings.HasPrefix(path, "file:") {
		return "", nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
