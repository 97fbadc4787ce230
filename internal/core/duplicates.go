package core

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/fingerprint"
	"github.com/DonovanMods/profile-mod-manager/internal/manifest"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
)

// ModInstance is one real copy of a mod inside a profile.
type ModInstance struct {
	Profile    string
	FolderName string
	Path       string
	Version    string
}

// DuplicateMods is a group of real copies sharing a unique ID.
type DuplicateMods struct {
	UniqueID  string
	Name      string
	Instances []ModInstance
}

// CollectionInstance is one real copy of a collection inside a profile.
type CollectionInstance struct {
	Profile     string
	Path        string
	Fingerprint domain.Fingerprint
	Differences []fingerprint.Difference // Against the first instance
}

// DuplicateCollections is a collection name with real copies in several profiles.
type DuplicateCollections struct {
	Name       string
	Instances  []CollectionInstance
	Mismatched bool
}

// DetectDuplicateMods scans the given profiles (all registered profiles when empty)
// for real mod folders and groups them by unique ID. Only groups with at least two
// instances are returned, sorted by unique ID. Nothing is modified.
func (sp *SharedPool) DetectDuplicateMods(reg *domain.Registry, profiles []string) []DuplicateMods {
	if len(profiles) == 0 {
		profiles = reg.Profiles
	}

	groups := make(map[string]*DuplicateMods)
	for _, profile := range profiles {
		dir, ok := sp.profiles.ModDir(profile)
		if !ok {
			continue
		}
		entries, err := subdirs(dir)
		if err != nil {
			sp.log.Warn().Err(err).Str("profile", profile).Msg("Could not scan profile")
			continue
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if sp.linker.IsLink(path) || !manifest.Has(path) {
				continue
			}
			m, err := manifest.ReadBasic(path)
			if err != nil || m.UniqueID == "" {
				continue
			}
			key := strings.ToLower(m.UniqueID)
			g, ok := groups[key]
			if !ok {
				g = &DuplicateMods{UniqueID: m.UniqueID, Name: m.Name}
				groups[key] = g
			}
			g.Instances = append(g.Instances, ModInstance{
				Profile:    profile,
				FolderName: e.Name(),
				Path:       path,
				Version:    m.Version,
			})
		}
	}

	var out []DuplicateMods
	for _, g := range groups {
		if len(g.Instances) >= 2 {
			out = append(out, *g)
		}
	}
	slices.SortFunc(out, func(a, b DuplicateMods) int { return strings.Compare(a.UniqueID, b.UniqueID) })
	return out
}

// DetectDuplicateCollections fingerprints every collection owned by two or more
// profiles. Instances are taken in registry profile order and compared against the
// first one; groups are sorted by name. Already shared collections are skipped.
func (sp *SharedPool) DetectDuplicateCollections(reg *domain.Registry) []DuplicateCollections {
	owners := make(map[string][]string)
	var names []string
	for _, profile := range reg.Profiles {
		for _, col := range reg.CollectionsFor(profile) {
			name := naming.ToEnabled(col)
			if _, shared := reg.SharedCollections[name]; shared {
				continue
			}
			if _, seen := owners[name]; !seen {
				names = append(names, name)
			}
			if !domain.ContainsName(owners[name], profile) {
				owners[name] = append(owners[name], profile)
			}
		}
	}
	slices.Sort(names)

	var out []DuplicateCollections
	for _, name := range names {
		if len(owners[name]) < 2 {
			continue
		}
		group := DuplicateCollections{Name: name}
		for _, profile := range owners[name] {
			path, ok := sp.realCopy(profile, name)
			if !ok {
				continue
			}
			fp, err := fingerprint.Collection(path)
			if err != nil {
				sp.log.Warn().Err(err).Str("profile", profile).Str("collection", name).Msg("Could not fingerprint collection")
				continue
			}
			inst := CollectionInstance{Profile: profile, Path: path, Fingerprint: fp}
			if len(group.Instances) > 0 {
				res := fingerprint.Compare(group.Instances[0].Fingerprint, fp)
				if !res.Match {
					inst.Differences = res.Differences
					group.Mismatched = true
				}
			}
			group.Instances = append(group.Instances, inst)
		}
		if len(group.Instances) >= 2 {
			out = append(out, group)
		}
	}
	return out
}

// isCollectionDir reports whether dir has no manifest but holds at least one sub-mod with one.
func isCollectionDir(dir string) bool {
	if manifest.Has(dir) {
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		sub := filepath.Join(dir, e.Name())
		if isDir(sub) && manifest.Has(sub) {
			return true
		}
	}
	return false
}
