package domain

import (
	"slices"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// SameName compares two profile or folder names case-insensitively using Unicode case folding.
func SameName(a, b string) bool {
	return folder.String(a) == folder.String(b)
}

// ContainsName reports whether names holds name, ignoring case.
func ContainsName(names []string, name string) bool {
	return IndexName(names, name) >= 0
}

// IndexName returns the index of name in names ignoring case, or -1.
func IndexName(names []string, name string) int {
	return slices.IndexFunc(names, func(n string) bool { return SameName(n, name) })
}

// RemoveName returns names without any entry equal to name (ignoring case).
func RemoveName(names []string, name string) []string {
	return slices.DeleteFunc(names, func(n string) bool { return SameName(n, name) })
}

// ProfileState is the activation state of a profile's mod directory.
type ProfileState int

const (
	StateMissing    ProfileState = iota // Neither active nor inactive directory exists
	StateInactive                       // Only the dot-prefixed directory exists
	StateActive                         // Only the unprefixed directory exists
	StateConflicted                     // Both forms exist (external interference or crash)
)

func (s ProfileState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateConflicted:
		return "conflicted"
	default:
		return "missing"
	}
}

// Profile represents a named mod configuration
type Profile struct {
	Name        string   // Unique, case-insensitive
	Active      bool     // Derived from the registry's active profile
	Vanilla     bool     // No mods should be loaded
	Collections []string // Collection folder names owned by this profile
}
