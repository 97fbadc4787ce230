package core

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
)

// ProfileManager moves profile mod and save directories between their active
// and inactive forms. Every step is a plain directory move with no rollback.
type ProfileManager struct {
	layout Layout
	log    zerolog.Logger
}

// NewProfileManager creates a new profile manager
func NewProfileManager(layout Layout, logger zerolog.Logger) *ProfileManager {
	return &ProfileManager{layout: layout, log: logger}
}

// Layout returns the paths the manager operates on
func (pm *ProfileManager) Layout() Layout {
	return pm.layout
}

// State reports which mod directory forms exist for a profile
func (pm *ProfileManager) State(name string) domain.ProfileState {
	active := isDir(pm.layout.ActiveModsDir(name))
	inactive := isDir(pm.layout.InactiveModsDir(name))
	switch {
	case active && inactive:
		return domain.StateConflicted
	case active:
		return domain.StateActive
	case inactive:
		return domain.StateInactive
	default:
		return domain.StateMissing
	}
}

// Exists reports whether either mod directory form exists
func (pm *ProfileManager) Exists(name string) bool {
	return pm.State(name) != domain.StateMissing
}

// ModDir returns the profile's mod directory, preferring the active form
func (pm *ProfileManager) ModDir(name string) (string, bool) {
	if dir := pm.layout.ActiveModsDir(name); isDir(dir) {
		return dir, true
	}
	if dir := pm.layout.InactiveModsDir(name); isDir(dir) {
		return dir, true
	}
	return "", false
}

// HasSaves reports whether the profile's saves exist: the active saves directory
// for the active profile, its own slot otherwise
func (pm *ProfileManager) HasSaves(name string, active bool) bool {
	if active {
		return isDir(pm.layout.ActiveSavesDir())
	}
	return isDir(pm.layout.InactiveSavesDir(name))
}

// Create allocates both directories in inactive form
func (pm *ProfileManager) Create(name string) error {
	if err := validateProfileName(name); err != nil {
		return err
	}
	if pm.Exists(name) {
		return domain.NewError(domain.KindConflict, "create profile", "profile directory already exists: "+name)
	}

	if err := makeDir("create profile", pm.layout.InactiveModsDir(name)); err != nil {
		return err
	}
	if err := makeDir("create profile", pm.layout.InactiveSavesDir(name)); err != nil {
		return err
	}

	pm.log.Info().Str("profile", name).Msg("Created profile directories")
	return nil
}

// Delete removes both mod directory forms and the inactive save slot.
// The active save directory is never touched.
func (pm *ProfileManager) Delete(name string) error {
	if err := validateProfileName(name); err != nil {
		return err
	}

	for _, dir := range []string{
		pm.layout.ActiveModsDir(name),
		pm.layout.InactiveModsDir(name),
		pm.layout.InactiveSavesDir(name),
	} {
		if err := removeTree("delete profile", dir); err != nil {
			return err
		}
	}

	pm.log.Info().Str("profile", name).Msg("Deleted profile directories")
	return nil
}

// Rename moves whichever mod directory form exists, and the inactive save slot if present
func (pm *ProfileManager) Rename(oldName, newName string) error {
	if err := validateProfileName(oldName); err != nil {
		return err
	}
	if err := validateProfileName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}

	var src, dst string
	switch pm.State(oldName) {
	case domain.StateActive:
		src, dst = pm.layout.ActiveModsDir(oldName), pm.layout.ActiveModsDir(newName)
	case domain.StateInactive:
		src, dst = pm.layout.InactiveModsDir(oldName), pm.layout.InactiveModsDir(newName)
	case domain.StateConflicted:
		return domain.NewError(domain.KindConflict, "rename profile", "both active and inactive directories exist for "+oldName)
	default:
		return errProfileNotFound("rename profile", oldName)
	}

	// A case-only rename is allowed to land on a case-insensitive match of itself.
	if !domain.SameName(oldName, newName) && pm.Exists(newName) {
		return domain.NewError(domain.KindConflict, "rename profile", "profile directory already exists: "+newName)
	}

	if err := move("rename profile", src, dst); err != nil {
		return err
	}

	if oldSaves := pm.layout.InactiveSavesDir(oldName); isDir(oldSaves) {
		if err := move("rename profile saves", oldSaves, pm.layout.InactiveSavesDir(newName)); err != nil {
			return err
		}
	}

	pm.log.Info().Str("from", oldName).Str("to", newName).Msg("Renamed profile")
	return nil
}

// Deactivate moves the active saves into the profile's save slot, replacing any
// previous slot, and moves its mod directory to inactive form. Repeating it is a no-op.
func (pm *ProfileManager) Deactivate(name string) error {
	if err := validateProfileName(name); err != nil {
		return err
	}

	active := pm.layout.ActiveSavesDir()
	if isDir(active) {
		slot := pm.layout.InactiveSavesDir(name)
		if err := removeTree("deactivate profile", slot); err != nil {
			return err
		}
		if err := move("deactivate profile", active, slot); err != nil {
			return err
		}
	}

	switch pm.State(name) {
	case domain.StateActive:
		if err := move("deactivate profile", pm.layout.ActiveModsDir(name), pm.layout.InactiveModsDir(name)); err != nil {
			return err
		}
	case domain.StateConflicted:
		return domain.NewError(domain.KindConflict, "deactivate profile", "both active and inactive directories exist for "+name)
	}

	pm.log.Debug().Str("profile", name).Msg("Deactivated profile")
	return nil
}

// Activate brings the profile's save slot and mod directory into active form,
// creating empty ones when absent. Repeating it is a no-op.
func (pm *ProfileManager) Activate(name string) error {
	if err := validateProfileName(name); err != nil {
		return err
	}

	active := pm.layout.ActiveSavesDir()
	if !exists(active) {
		if slot := pm.layout.InactiveSavesDir(name); isDir(slot) {
			if err := move("activate profile", slot, active); err != nil {
				return err
			}
		} else if err := makeDir("activate profile", active); err != nil {
			return err
		}
	}

	switch pm.State(name) {
	case domain.StateInactive:
		if err := move("activate profile", pm.layout.InactiveModsDir(name), pm.layout.ActiveModsDir(name)); err != nil {
			return err
		}
	case domain.StateMissing:
		if err := makeDir("activate profile", pm.layout.ActiveModsDir(name)); err != nil {
			return err
		}
	case domain.StateConflicted:
		return domain.NewError(domain.KindConflict, "activate profile", "both active and inactive directories exist for "+name)
	}

	pm.log.Debug().Str("profile", name).Msg("Activated profile")
	return nil
}

// Switch deactivates from (when set) and activates to
func (pm *ProfileManager) Switch(from, to string) error {
	if from != "" {
		if err := pm.Deactivate(from); err != nil {
			return err
		}
	}
	if err := pm.Activate(to); err != nil {
		return err
	}

	pm.log.Info().Str("from", from).Str("to", to).Msg("Switched profile")
	return nil
}

// MigrateLegacy moves directories named by the pre-prefix scheme ("name" and ".name")
// into the current convention. Existing destinations are never overwritten.
// Returns the number of directories moved.
func (pm *ProfileManager) MigrateLegacy(names []string) (int, error) {
	moved := 0
	for _, name := range names {
		if naming.ValidateName(name, "profile name") != nil {
			continue
		}

		pairs := [][2]string{
			{naming.LegacyActiveName(name), naming.ActiveModsFolderName(name)},
			{naming.LegacyInactiveName(name), naming.InactiveModsFolderName(name)},
		}
		for _, p := range pairs {
			src := filepath.Join(pm.layout.ModsRoot, p[0])
			dst := filepath.Join(pm.layout.ModsRoot, p[1])
			if !isDir(src) || exists(dst) {
				continue
			}
			if err := move("migrate legacy profile", src, dst); err != nil {
				return moved, err
			}
			moved++
			pm.log.Info().Str("from", p[0]).Str("to", p[1]).Msg("Migrated legacy profile folder")
		}
	}
	return moved, nil
}
