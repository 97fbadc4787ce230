package core

import (
	"fmt"
	"os"
	"slices"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/fingerprint"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
)

// BrokenEntry is a shared entry whose pool directory or links are not intact.
type BrokenEntry struct {
	Name    string
	Kind    EntryKind
	Reasons []string
}

// Drift is a shared collection whose pooled content no longer matches its share-time fingerprint.
type Drift struct {
	Name        string
	Differences []fingerprint.Difference
}

// ValidatePool reports entries whose pool directory is missing or whose consuming
// profiles lack a link resolving into the pool.
func (sp *SharedPool) ValidatePool(reg *domain.Registry) []BrokenEntry {
	var broken []BrokenEntry
	check := func(kind EntryKind, name string, profiles []string) {
		var reasons []string
		if !isDir(sp.layout.PoolEntry(name)) {
			reasons = append(reasons, "pool directory missing")
		}
		for _, p := range profiles {
			if _, ok := sp.profiles.ModDir(p); !ok {
				reasons = append(reasons, fmt.Sprintf("profile %s has no mod directory", p))
				continue
			}
			if !sp.validLink(p, name) {
				reasons = append(reasons, fmt.Sprintf("profile %s has no link into the pool", p))
			}
		}
		if len(profiles) < 2 {
			reasons = append(reasons, fmt.Sprintf("only %d consuming profile(s)", len(profiles)))
		}
		if len(reasons) > 0 {
			broken = append(broken, BrokenEntry{Name: name, Kind: kind, Reasons: reasons})
		}
	}

	for _, name := range reg.SharedModNames() {
		check(EntryMod, name, reg.SharedMods[name].Profiles)
	}
	for _, name := range reg.SharedCollectionNames() {
		check(EntryCollection, name, reg.SharedCollections[name].Profiles)
	}
	return broken
}

// ValidateCollections recomputes every shared collection's fingerprint and reports drift.
// Collections whose pool directory is missing are left to ValidatePool.
func (sp *SharedPool) ValidateCollections(reg *domain.Registry) []Drift {
	var drifted []Drift
	for _, name := range reg.SharedCollectionNames() {
		pool := sp.layout.PoolEntry(name)
		if !isDir(pool) {
			continue
		}
		current, err := fingerprint.Collection(pool)
		if err != nil {
			sp.log.Warn().Err(err).Str("collection", name).Msg("Could not fingerprint shared collection")
			continue
		}
		res := fingerprint.Compare(reg.SharedCollections[name].Fingerprint, current)
		if !res.Match {
			drifted = append(drifted, Drift{Name: name, Differences: res.Differences})
		}
	}
	return drifted
}

// Repair reconciles one shared entry with the filesystem. A missing pool directory
// drops the entry. Otherwise missing links are recreated, profiles that are gone or
// that hold an independent copy are dropped, and the entry is dissolved when fewer
// than two profiles remain.
func (sp *SharedPool) Repair(reg *domain.Registry, name string) error {
	const op = "repair"
	kind, ok := sp.Lookup(reg, name)
	if !ok {
		return errSharedNotFound(op, name)
	}
	targets, _ := sp.targets(reg, kind, name)
	pool := sp.layout.PoolEntry(name)

	if !isDir(pool) {
		for _, p := range targets {
			if link, ok := sp.linkIn(p, name); ok {
				bestEffort(sp.log, "remove dangling link", link, func() error { return sp.linker.Unlink(link) })
			}
			sp.dropSnapshot(p, name)
		}
		sp.dropEntry(reg, kind, name)
		sp.log.Info().Str(kind.String(), name).Msg("Pool entry missing, registry entry removed")
		return nil
	}

	kept := make([]string, 0, len(targets))
	for _, p := range targets {
		enabled, _, ok := sp.forms(p, name)
		if !ok {
			sp.log.Info().Str("profile", p).Str("shared", name).Msg("Profile directory gone, dropping from shared entry")
			sp.dropSnapshot(p, name)
			continue
		}
		if sp.validLink(p, name) {
			kept = append(kept, p)
			continue
		}
		if stale, ok := sp.linkIn(p, name); ok {
			if err := sp.linker.Unlink(stale); err != nil {
				return err
			}
		}
		if _, ok := sp.realCopy(p, name); ok {
			sp.log.Info().Str("profile", p).Str("shared", name).Msg("Profile holds an independent copy, dropping from shared entry")
			sp.dropSnapshot(p, name)
			continue
		}
		if err := sp.linker.Link(pool, enabled); err != nil {
			return err
		}
		kept = append(kept, p)
	}
	sp.setTargets(reg, kind, name, kept)

	if len(kept) < 2 {
		return sp.UnshareAll(reg, name)
	}
	return nil
}

// Prune removes pool folders and snapshot slots that no registry entry references.
// Removal is best-effort; the names that were removed are returned.
func (sp *SharedPool) Prune(reg *domain.Registry) []string {
	var removed []string

	entries, err := os.ReadDir(sp.layout.PoolDir())
	if err != nil {
		return nil
	}
	for _, e := range entries {
		name := e.Name()
		if name == naming.SnapshotsFolder {
			continue
		}
		if _, ok := sp.Lookup(reg, name); ok {
			continue
		}
		path := sp.layout.PoolEntry(name)
		bestEffort(sp.log, "prune pool entry", path, func() error {
			if err := removeTree("prune", path); err != nil {
				return err
			}
			removed = append(removed, name)
			return nil
		})
	}

	snapshots, err := os.ReadDir(sp.layout.SnapshotsDir())
	if err != nil {
		return removed
	}
	for _, e := range snapshots {
		profile := e.Name()
		if !reg.HasProfile(profile) {
			path := sp.layout.ProfileSnapshotsDir(profile)
			bestEffort(sp.log, "prune snapshots", path, func() error { return removeTree("prune", path) })
			continue
		}
		shared, err := os.ReadDir(sp.layout.ProfileSnapshotsDir(profile))
		if err != nil {
			continue
		}
		refs := sp.entriesFor(reg, profile)
		for _, s := range shared {
			if slices.ContainsFunc(refs, func(r entryRef) bool { return r.name == s.Name() }) {
				continue
			}
			path := sp.layout.SnapshotDir(profile, s.Name())
			bestEffort(sp.log, "prune snapshot", path, func() error { return removeTree("prune", path) })
		}
	}
	return removed
}
