// Package naming encodes enabled state and profile identity into folder names.
// Every function here is pure and never touches the filesystem.
package naming

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DisabledPrefix marks a folder as disabled or inactive.
	DisabledPrefix = "."
	// ProfilePrefix precedes the profile name in a profile folder.
	ProfilePrefix = "[PROFILE] "
	// PoolFolder is the shared pool directory under the mods root.
	PoolFolder = ".[SHARED]"
	// SnapshotsFolder is the settings-snapshot subtree inside the pool.
	SnapshotsFolder = ".snapshots"
	// ActiveSavesFolder holds the active profile's saves.
	ActiveSavesFolder = "Saves"
)

// invalidChars are illegal in a path component on at least one supported platform.
const invalidChars = `/\:*?"<>|`

// ToDisabled returns name with exactly one disabled prefix.
func ToDisabled(name string) string {
	return DisabledPrefix + strings.TrimLeft(name, DisabledPrefix)
}

// ToEnabled returns name with all disabled prefixes removed.
func ToEnabled(name string) string {
	return strings.TrimLeft(name, DisabledPrefix)
}

// IsDisabled reports whether name carries the disabled prefix.
func IsDisabled(name string) bool {
	return strings.HasPrefix(name, DisabledPrefix)
}

// IsEnabled reports whether name carries no disabled prefix.
func IsEnabled(name string) bool {
	return !IsDisabled(name)
}

// ProfileFolderName maps a profile name to its enabled folder name.
func ProfileFolderName(profile string) string {
	return ProfilePrefix + profile
}

// ParseProfileName inverts ProfileFolderName. Disabled prefixes are ignored.
// ok is false when folder is not a profile folder.
func ParseProfileName(folder string) (string, bool) {
	name, found := strings.CutPrefix(ToEnabled(folder), ProfilePrefix)
	if !found || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

// ValidateName checks input is usable as a single path component.
// label names the thing being validated in the returned message.
func ValidateName(input, label string) error {
	if label == "" {
		label = "name"
	}
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%s cannot be empty", label)
	}
	if input == "." || input == ".." {
		return fmt.Errorf("%s cannot be %q", label, input)
	}
	for _, r := range input {
		if strings.ContainsRune(invalidChars, r) {
			return fmt.Errorf("%s contains invalid character %q", label, r)
		}
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%s contains a control character", label)
		}
	}
	if strings.TrimRight(input, ". ") != input {
		return fmt.Errorf("%s cannot end with a dot or space", label)
	}
	return nil
}

// ActiveModsFolderName is the folder name of an active profile's mod directory.
func ActiveModsFolderName(profile string) string {
	return ProfileFolderName(profile)
}

// InactiveModsFolderName is the folder name of an inactive profile's mod directory.
func InactiveModsFolderName(profile string) string {
	return ToDisabled(ProfileFolderName(profile))
}

// InactiveSavesFolderName is the save slot of an inactive profile.
func InactiveSavesFolderName(profile string) string {
	return DisabledPrefix + profile + ActiveSavesFolder
}

// ParseInactiveSavesName inverts InactiveSavesFolderName.
func ParseInactiveSavesName(folder string) (string, bool) {
	if !IsDisabled(folder) {
		return "", false
	}
	name, found := strings.CutSuffix(ToEnabled(folder), ActiveSavesFolder)
	if !found || name == "" {
		return "", false
	}
	return name, true
}

// LegacyActiveName is the active folder name used before profile prefixes existed.
func LegacyActiveName(profile string) string {
	return profile
}

// LegacyInactiveName is the inactive folder name used before profile prefixes existed.
func LegacyInactiveName(profile string) string {
	return DisabledPrefix + profile
}
