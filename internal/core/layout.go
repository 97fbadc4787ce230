package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
)

// Layout resolves every on-disk location the core manipulates.
type Layout struct {
	ModsRoot     string
	SavesRoot    string
	SettingsFile string // Per-mod settings file copied into snapshots
}

// NewLayout returns a Layout with the default settings file name when settingsFile is empty.
func NewLayout(modsRoot, savesRoot, settingsFile string) Layout {
	if settingsFile == "" {
		settingsFile = domain.SettingsFile
	}
	return Layout{ModsRoot: modsRoot, SavesRoot: savesRoot, SettingsFile: settingsFile}
}

func (l Layout) ActiveModsDir(profile string) string {
	return filepath.Join(l.ModsRoot, naming.ActiveModsFolderName(profile))
}

func (l Layout) InactiveModsDir(profile string) string {
	return filepath.Join(l.ModsRoot, naming.InactiveModsFolderName(profile))
}

func (l Layout) ActiveSavesDir() string {
	return filepath.Join(l.SavesRoot, naming.ActiveSavesFolder)
}

func (l Layout) InactiveSavesDir(profile string) string {
	return filepath.Join(l.SavesRoot, naming.InactiveSavesFolderName(profile))
}

// PoolDir is the shared pool root.
func (l Layout) PoolDir() string {
	return filepath.Join(l.ModsRoot, naming.PoolFolder)
}

// PoolEntry is the real content of a shared mod or collection.
func (l Layout) PoolEntry(shared string) string {
	return filepath.Join(l.PoolDir(), shared)
}

// SnapshotsDir holds the snapshot subtree of every profile.
func (l Layout) SnapshotsDir() string {
	return filepath.Join(l.PoolDir(), naming.SnapshotsFolder)
}

// ProfileSnapshotsDir holds every snapshot of one profile.
func (l Layout) ProfileSnapshotsDir(profile string) string {
	return filepath.Join(l.SnapshotsDir(), profile)
}

// SnapshotDir holds one profile's settings for one shared entry.
func (l Layout) SnapshotDir(profile, shared string) string {
	return filepath.Join(l.ProfileSnapshotsDir(profile), shared)
}

// exists reports whether anything (including a dangling link) is at path.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// isDir follows links.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// move renames src to dst and fails with a conflict when dst exists.
// os.Rename would silently replace an empty directory.
func move(op, src, dst string) error {
	if exists(dst) {
		return domain.WrapError(domain.KindConflict, op, dst, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return domain.WrapError(domain.KindFilesystem, op, filepath.Dir(dst), err)
	}
	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, os.ErrNotExist) {
			return domain.WrapError(domain.KindNotFound, op, src, err)
		}
		return domain.WrapError(domain.KindFilesystem, op, src, err)
	}
	return nil
}

// makeDir creates path and its parents.
func makeDir(op, path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return domain.WrapError(domain.KindFilesystem, op, path, err)
	}
	return nil
}

// removeTree deletes path recursively; a missing path is not an error.
func removeTree(op, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return domain.WrapError(domain.KindFilesystem, op, path, err)
	}
	return nil
}

// bestEffort runs a cleanup step whose failure must not fail the caller.
// Failures are logged at warn level and dropped.
func bestEffort(logger zerolog.Logger, action, path string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn().Err(err).Str("action", action).Str("path", path).Msg("Cleanup step failed, continuing")
	}
}

func subdirs(path string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	dirs := entries[:0]
	for _, e := range entries {
		if isDir(filepath.Join(path, e.Name())) {
			dirs = append(dirs, e)
		}
	}
	return dirs, nil
}

func validateProfileName(name string) error {
	if err := naming.ValidateName(name, "profile name"); err != nil {
		return &domain.Error{Kind: domain.KindValidation, Op: "validate", Msg: err.Error()}
	}
	return nil
}

func errProfileNotFound(op, name string) error {
	return &domain.Error{Kind: domain.KindNotFound, Op: op, Msg: fmt.Sprintf("profile %q", name), Err: domain.ErrProfileNotFound}
}
