// Package config provides configuration file parsing and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ResolveRoot validates a mods or saves root path and returns it cleaned.
// It returns an error if:
//   - The path is empty
//   - The path is not absolute after home expansion
//   - The path contains parent directory traversal (..)
//   - The path exists but is not a directory
//
// A path that does not exist yet is accepted.
func ResolveRoot(path, label string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s is not configured", label)
	}

	path = ExpandHome(path)
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%s must be absolute: %s", label, path)
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("%s contains invalid traversal: %s", label, path)
		}
	}

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %s", label, path)
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("checking %s: %w", label, err)
	}

	return filepath.Clean(path), nil
}
