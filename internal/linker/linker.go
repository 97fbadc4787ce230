// Package linker exposes pooled directories inside profiles without duplicating them.
package linker

import (
	"fmt"
	"strings"
)

// Method selects how directory links are represented on disk.
type Method string

const (
	// MethodSymlink uses native directory symlinks.
	MethodSymlink Method = "symlink"
	// MethodMarker uses a plain directory holding a marker file that records the target.
	// For filesystems without directory links.
	MethodMarker Method = "marker"
)

// ParseMethod converts a config value to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodSymlink:
		return MethodSymlink, nil
	case MethodMarker:
		return MethodMarker, nil
	default:
		return "", fmt.Errorf("unknown link method %q (want symlink or marker)", s)
	}
}

// DirLinker creates, inspects and removes directory links.
type DirLinker interface {
	// Link makes link resolve to target. link must not exist.
	Link(target, link string) error
	// Unlink removes the link at path. It refuses to remove a real directory.
	Unlink(path string) error
	// IsLink reports whether path is a link created by this method.
	IsLink(path string) bool
	// Target returns the directory a link points at.
	Target(path string) (string, error)
	// Resolve returns the directory holding path's real content.
	Resolve(path string) string
	Method() Method
}

// New creates a linker for the given method
func New(method Method) DirLinker {
	switch method {
	case MethodMarker:
		return NewMarker()
	default:
		return NewSymlink()
	}
}
