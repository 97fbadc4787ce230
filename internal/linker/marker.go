package linker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
)

// MarkerFile is the file inside a marker link that records the target path.
const MarkerFile = ".pmm-link"

// MarkerLinker represents a link as a directory containing only a marker file.
// Callers read content through Resolve since the game does not follow markers.
type MarkerLinker struct{}

// NewMarker creates a new marker linker
func NewMarker() *MarkerLinker {
	return &MarkerLinker{}
}

// Link creates a marker directory at link recording target
func (l *MarkerLinker) Link(target, link string) error {
	if _, err := os.Lstat(link); err == nil {
		return domain.WrapError(domain.KindConflict, "link", link, os.ErrExist)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return domain.WrapError(domain.KindLinkFailure, "link", link, err)
	}
	if err := os.MkdirAll(link, 0755); err != nil {
		return domain.WrapError(domain.KindLinkFailure, "link", link, err)
	}
	if err := os.WriteFile(filepath.Join(link, MarkerFile), []byte(abs+"\n"), 0644); err != nil {
		_ = os.Remove(link)
		return domain.WrapError(domain.KindLinkFailure, "link", link, err)
	}
	return nil
}

// Unlink removes a marker directory
func (l *MarkerLinker) Unlink(path string) error {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return nil
	}
	if !l.IsLink(path) {
		return domain.WrapError(domain.KindLinkFailure, "unlink", path, fmt.Errorf("not a link marker"))
	}
	if err := os.RemoveAll(path); err != nil {
		return domain.WrapError(domain.KindLinkFailure, "unlink", path, err)
	}
	return nil
}

// IsLink reports whether path is a directory holding only a marker file
func (l *MarkerLinker) IsLink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	if err != nil || len(entries) != 1 {
		return false
	}
	return entries[0].Name() == MarkerFile && entries[0].Type().IsRegular()
}

// Target reads the recorded target path
func (l *MarkerLinker) Target(path string) (string, error) {
	if !l.IsLink(path) {
		return "", domain.WrapError(domain.KindLinkFailure, "read link", path, fmt.Errorf("not a link marker"))
	}
	data, err := os.ReadFile(filepath.Join(path, MarkerFile))
	if err != nil {
		return "", domain.WrapError(domain.KindLinkFailure, "read link", path, err)
	}
	target := strings.TrimSpace(string(data))
	if target == "" {
		return "", domain.WrapError(domain.KindLinkFailure, "read link", path, fmt.Errorf("empty marker"))
	}
	return filepath.Clean(target), nil
}

// Resolve returns the recorded target, or path itself when it is not a marker
func (l *MarkerLinker) Resolve(path string) string {
	target, err := l.Target(path)
	if err != nil {
		return path
	}
	return target
}

// Method returns the link method
func (l *MarkerLinker) Method() Method {
	return MethodMarker
}
