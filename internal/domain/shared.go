package domain

import (
	"maps"
	"slices"
)

// SubModFingerprint identifies one sub-mod inside a collection.
type SubModFingerprint struct {
	UniqueID     string `yaml:"unique_id"`
	Version      string `yaml:"version"`
	ManifestHash string `yaml:"manifest_hash"`
}

// Fingerprint maps sub-mod folder name to its identity.
type Fingerprint map[string]SubModFingerprint

// SharedMod is the registry record for a mod stored once in the shared pool.
type SharedMod struct {
	FolderName string
	UniqueID   string
	Version    string
	Profiles   []string // Consuming profiles, in registration order
}

// SharedCollection is the registry record for a collection stored once in the shared pool.
type SharedCollection struct {
	FolderName  string
	Profiles    []string
	Fingerprint Fingerprint // Captured at share time
}

// Registry is the mutable state shared by every profile and pool operation.
// It is loaded and saved by the persistence layer around each top-level operation.
type Registry struct {
	Profiles           []string
	ActiveProfile      string
	VanillaProfiles    []string
	ProfileCollections map[string][]string
	CommonCollections  []string
	SharedMods         map[string]*SharedMod
	SharedCollections  map[string]*SharedCollection
	SavedCommonEnabled []string // Common folders that were enabled before a vanilla profile became active
}

// NewRegistry returns an empty registry with initialized maps.
func NewRegistry() *Registry {
	return &Registry{
		ProfileCollections: make(map[string][]string),
		SharedMods:         make(map[string]*SharedMod),
		SharedCollections:  make(map[string]*SharedCollection),
	}
}

// HasProfile reports whether name is registered (case-insensitive).
func (r *Registry) HasProfile(name string) bool {
	return ContainsName(r.Profiles, name)
}

// ProfileName returns the registered spelling of name.
func (r *Registry) ProfileName(name string) (string, bool) {
	if i := IndexName(r.Profiles, name); i >= 0 {
		return r.Profiles[i], true
	}
	return "", false
}

// IsActive reports whether name is the active profile.
func (r *Registry) IsActive(name string) bool {
	return r.ActiveProfile != "" && SameName(r.ActiveProfile, name)
}

// IsVanilla reports whether name is flagged as a no-mods profile.
func (r *Registry) IsVanilla(name string) bool {
	return name != "" && ContainsName(r.VanillaProfiles, name)
}

// CollectionsFor returns the collection names owned by a profile.
func (r *Registry) CollectionsFor(profile string) []string {
	for name, cols := range r.ProfileCollections {
		if SameName(name, profile) {
			return cols
		}
	}
	return nil
}

// SharedModNames returns shared mod folder names in lexicographic order.
func (r *Registry) SharedModNames() []string {
	return slices.Sorted(maps.Keys(r.SharedMods))
}

// SharedCollectionNames returns shared collection folder names in lexicographic order.
func (r *Registry) SharedCollectionNames() []string {
	return slices.Sorted(maps.Keys(r.SharedCollections))
}

// Profile builds the view of a single registered profile.
func (r *Registry) Profile(name string) (Profile, bool) {
	registered, ok := r.ProfileName(name)
	if !ok {
		return Profile{}, false
	}
	return Profile{
		Name:        registered,
		Active:      r.IsActive(registered),
		Vanilla:     r.IsVanilla(registered),
		Collections: r.CollectionsFor(registered),
	}, true
}

// RenameProfile rewrites every reference to oldName.
func (r *Registry) RenameProfile(oldName, newName string) {
	if i := IndexName(r.Profiles, oldName); i >= 0 {
		r.Profiles[i] = newName
	}
	if r.IsActive(oldName) {
		r.ActiveProfile = newName
	}
	if i := IndexName(r.VanillaProfiles, oldName); i >= 0 {
		r.VanillaProfiles[i] = newName
	}
	for name, cols := range r.ProfileCollections {
		if SameName(name, oldName) {
			delete(r.ProfileCollections, name)
			r.ProfileCollections[newName] = cols
			break
		}
	}
	for _, info := range r.SharedMods {
		if i := IndexName(info.Profiles, oldName); i >= 0 {
			info.Profiles[i] = newName
		}
	}
	for _, info := range r.SharedCollections {
		if i := IndexName(info.Profiles, oldName); i >= 0 {
			info.Profiles[i] = newName
		}
	}
}

// ForgetProfile removes a profile from the profile list, vanilla list and collection map.
// Shared entries are handled by the pool manager.
func (r *Registry) ForgetProfile(name string) {
	r.Profiles = RemoveName(r.Profiles, name)
	r.VanillaProfiles = RemoveName(r.VanillaProfiles, name)
	for n := range r.ProfileCollections {
		if SameName(n, name) {
			delete(r.ProfileCollections, n)
		}
	}
	if r.IsActive(name) {
		r.ActiveProfile = ""
	}
}
