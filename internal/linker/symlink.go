package linker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
)

// SymlinkLinker links directories using symbolic links
type SymlinkLinker struct{}

// NewSymlink creates a new symlink linker
func NewSymlink() *SymlinkLinker {
	return &SymlinkLinker{}
}

// Link creates a symlink at link pointing to target
func (l *SymlinkLinker) Link(target, link string) error {
	if _, err := os.Lstat(link); err == nil {
		return domain.WrapError(domain.KindConflict, "link", link, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return domain.WrapError(domain.KindLinkFailure, "link", link, fmt.Errorf("creating parent dir: %w", err))
	}
	if err := os.Symlink(target, link); err != nil {
		return domain.WrapError(domain.KindLinkFailure, "link", link, err)
	}
	return nil
}

// Unlink removes the symlink at path
func (l *SymlinkLinker) Unlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Already removed
		}
		return domain.WrapError(domain.KindLinkFailure, "unlink", path, err)
	}

	// Only remove if it's a symlink
	if info.Mode()&os.ModeSymlink == 0 {
		return domain.WrapError(domain.KindLinkFailure, "unlink", path, fmt.Errorf("not a symlink"))
	}
	if err := os.Remove(path); err != nil {
		return domain.WrapError(domain.KindLinkFailure, "unlink", path, err)
	}
	return nil
}

// IsLink checks if path is a symlink
func (l *SymlinkLinker) IsLink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// Target returns the absolute symlink target
func (l *SymlinkLinker) Target(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", domain.WrapError(domain.KindLinkFailure, "read link", path, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}

// Resolve returns the link target, or path itself when it is not a link
func (l *SymlinkLinker) Resolve(path string) string {
	if !l.IsLink(path) {
		return path
	}
	target, err := l.Target(path)
	if err != nil {
		return path
	}
	return target
}

// Method returns the link method
func (l *SymlinkLinker) Method() Method {
	return MethodSymlink
}
