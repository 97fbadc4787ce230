package core

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/fingerprint"
	"github.com/DonovanMods/profile-mod-manager/internal/linker"
	"github.com/DonovanMods/profile-mod-manager/internal/manifest"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
)

// EntryKind distinguishes shared mods from shared collections.
type EntryKind int

const (
	EntryMod EntryKind = iota
	EntryCollection
)

func (k EntryKind) String() string {
	if k == EntryCollection {
		return "collection"
	}
	return "mod"
}

// SharedPool keeps one real copy of shared content under the pool directory and
// exposes it to consuming profiles through directory links.
type SharedPool struct {
	layout   Layout
	profiles *ProfileManager
	linker   linker.DirLinker
	log      zerolog.Logger
}

// NewSharedPool creates a shared pool manager
func NewSharedPool(profiles *ProfileManager, lnk linker.DirLinker, logger zerolog.Logger) *SharedPool {
	return &SharedPool{
		layout:   profiles.Layout(),
		profiles: profiles,
		linker:   lnk,
		log:      logger,
	}
}

// Linker returns the directory linker in use
func (sp *SharedPool) Linker() linker.DirLinker {
	return sp.linker
}

// Lookup returns the kind of a registered shared entry. Mods are checked first.
func (sp *SharedPool) Lookup(reg *domain.Registry, name string) (EntryKind, bool) {
	if _, ok := reg.SharedMods[name]; ok {
		return EntryMod, true
	}
	if _, ok := reg.SharedCollections[name]; ok {
		return EntryCollection, true
	}
	return 0, false
}

func (sp *SharedPool) targets(reg *domain.Registry, kind EntryKind, name string) ([]string, bool) {
	if kind == EntryCollection {
		if e, ok := reg.SharedCollections[name]; ok {
			return e.Profiles, true
		}
		return nil, false
	}
	if e, ok := reg.SharedMods[name]; ok {
		return e.Profiles, true
	}
	return nil, false
}

func (sp *SharedPool) setTargets(reg *domain.Registry, kind EntryKind, name string, profiles []string) {
	if kind == EntryCollection {
		if e, ok := reg.SharedCollections[name]; ok {
			e.Profiles = profiles
		}
		return
	}
	if e, ok := reg.SharedMods[name]; ok {
		e.Profiles = profiles
	}
}

func (sp *SharedPool) dropEntry(reg *domain.Registry, kind EntryKind, name string) {
	if kind == EntryCollection {
		delete(reg.SharedCollections, name)
	} else {
		delete(reg.SharedMods, name)
	}
}

// entriesFor lists the shared entries a profile consumes, mods first, each sorted by name.
func (sp *SharedPool) entriesFor(reg *domain.Registry, profile string) []entryRef {
	var refs []entryRef
	for _, name := range reg.SharedModNames() {
		if domain.ContainsName(reg.SharedMods[name].Profiles, profile) {
			refs = append(refs, entryRef{EntryMod, name})
		}
	}
	for _, name := range reg.SharedCollectionNames() {
		if domain.ContainsName(reg.SharedCollections[name].Profiles, profile) {
			refs = append(refs, entryRef{EntryCollection, name})
		}
	}
	return refs
}

type entryRef struct {
	kind EntryKind
	name string
}

// forms returns the enabled and disabled paths of folder inside a profile.
func (sp *SharedPool) forms(profile, folder string) (enabled, disabled string, ok bool) {
	dir, ok := sp.profiles.ModDir(profile)
	if !ok {
		return "", "", false
	}
	return filepath.Join(dir, naming.ToEnabled(folder)), filepath.Join(dir, naming.ToDisabled(folder)), true
}

// realCopy finds a non-linked copy of folder in a profile, enabled form first.
func (sp *SharedPool) realCopy(profile, folder string) (string, bool) {
	enabled, disabled, ok := sp.forms(profile, folder)
	if !ok {
		return "", false
	}
	for _, p := range []string{enabled, disabled} {
		if isDir(p) && !sp.linker.IsLink(p) {
			return p, true
		}
	}
	return "", false
}

// linkIn finds a link for folder in a profile, enabled form first.
func (sp *SharedPool) linkIn(profile, folder string) (string, bool) {
	enabled, disabled, ok := sp.forms(profile, folder)
	if !ok {
		return "", false
	}
	for _, p := range []string{enabled, disabled} {
		if sp.linker.IsLink(p) {
			return p, true
		}
	}
	return "", false
}

// validLink reports whether the profile holds a link for folder that resolves into the pool.
func (sp *SharedPool) validLink(profile, folder string) bool {
	link, ok := sp.linkIn(profile, folder)
	if !ok {
		return false
	}
	target, err := sp.linker.Target(link)
	if err != nil {
		return false
	}
	return filepath.Clean(target) == filepath.Clean(sp.layout.PoolEntry(folder))
}

// resolveTargets maps requested names to registered spellings, dropping duplicates.
func resolveTargets(reg *domain.Registry, op string, requested []string) ([]string, error) {
	var targets []string
	for _, name := range requested {
		registered, ok := reg.ProfileName(name)
		if !ok {
			return nil, errProfileNotFound(op, name)
		}
		if !domain.ContainsName(targets, registered) {
			targets = append(targets, registered)
		}
	}
	if len(targets) < 2 {
		return nil, domain.NewError(domain.KindValidation, op, "at least two target profiles are required")
	}
	return targets, nil
}

// ShareMod moves the first real copy of folder found among targets into the pool and
// links it into every target. Each target's settings are snapshotted first.
func (sp *SharedPool) ShareMod(reg *domain.Registry, folder string, targets []string) error {
	const op = "share mod"
	name := naming.ToEnabled(folder)
	targets, err := sp.checkShare(reg, op, name, targets)
	if err != nil {
		return err
	}

	source, err := sp.findSource(op, name, targets)
	if err != nil {
		return err
	}
	m, err := manifest.ReadBasic(source)
	if err != nil {
		return err
	}

	if err := sp.promote(reg, EntryMod, name, source, targets); err != nil {
		return err
	}

	reg.SharedMods[name] = &domain.SharedMod{
		FolderName: name,
		UniqueID:   m.UniqueID,
		Version:    m.Version,
		Profiles:   targets,
	}
	sp.log.Info().Str("mod", name).Strs("profiles", targets).Msg("Shared mod")
	return nil
}

// ShareCollection shares a collection folder. Every target's existing copy must
// fingerprint-match the source copy; otherwise nothing is changed and the error
// carries the itemized differences.
func (sp *SharedPool) ShareCollection(reg *domain.Registry, folder string, targets []string) error {
	const op = "share collection"
	name := naming.ToEnabled(folder)
	targets, err := sp.checkShare(reg, op, name, targets)
	if err != nil {
		return err
	}

	source, err := sp.findSource(op, name, targets)
	if err != nil {
		return err
	}
	sourceFP, err := fingerprint.Collection(source)
	if err != nil {
		return domain.WrapError(domain.KindFilesystem, op, source, err)
	}
	if len(sourceFP) == 0 {
		return domain.NewError(domain.KindValidation, op, fmt.Sprintf("%s contains no mods", name))
	}

	var details []string
	for _, target := range targets {
		copyPath, ok := sp.realCopy(target, name)
		if !ok || copyPath == source {
			continue
		}
		fp, err := fingerprint.Collection(copyPath)
		if err != nil {
			return domain.WrapError(domain.KindFilesystem, op, copyPath, err)
		}
		res := fingerprint.Compare(sourceFP, fp)
		for _, d := range res.Strings() {
			details = append(details, target+": "+d)
		}
	}
	if len(details) > 0 {
		return domain.NewError(domain.KindIdentityMismatch, op, fmt.Sprintf("%s differs between profiles", name)).WithDetails(details...)
	}

	if err := sp.promote(reg, EntryCollection, name, source, targets); err != nil {
		return err
	}

	reg.SharedCollections[name] = &domain.SharedCollection{
		FolderName:  name,
		Profiles:    targets,
		Fingerprint: sourceFP,
	}
	for _, target := range targets {
		addCollection(reg, target, name)
	}
	sp.log.Info().Str("collection", name).Strs("profiles", targets).Msg("Shared collection")
	return nil
}

func (sp *SharedPool) checkShare(reg *domain.Registry, op, name string, requested []string) ([]string, error) {
	if err := naming.ValidateName(name, "folder name"); err != nil {
		return nil, &domain.Error{Kind: domain.KindValidation, Op: op, Msg: err.Error()}
	}
	if name == naming.ToEnabled(naming.PoolFolder) {
		return nil, domain.NewError(domain.KindValidation, op, "the pool folder cannot be shared")
	}
	if _, shared := sp.Lookup(reg, name); shared {
		return nil, domain.NewError(domain.KindConflict, op, name+" is already shared")
	}
	if exists(sp.layout.PoolEntry(name)) {
		return nil, domain.WrapError(domain.KindConflict, op, sp.layout.PoolEntry(name), fmt.Errorf("pool entry exists"))
	}
	return resolveTargets(reg, op, requested)
}

func (sp *SharedPool) findSource(op, name string, targets []string) (string, error) {
	for _, target := range targets {
		if p, ok := sp.realCopy(target, name); ok {
			return p, nil
		}
	}
	return "", &domain.Error{Kind: domain.KindNotFound, Op: op, Msg: "no target profile holds a copy of " + name, Err: domain.ErrSourceNotFound}
}

// promote snapshots every target, moves source into the pool, replaces remaining
// copies with links and restores the active profile's settings onto the pool.
func (sp *SharedPool) promote(reg *domain.Registry, kind EntryKind, name, source string, targets []string) error {
	op := "share " + kind.String()
	for _, target := range targets {
		if p, ok := sp.realCopy(target, name); ok {
			if err := sp.capture(kind, p, target, name); err != nil {
				return err
			}
		}
	}

	pool := sp.layout.PoolEntry(name)
	if err := move(op, source, pool); err != nil {
		return err
	}

	for _, target := range targets {
		enabled, disabled, ok := sp.forms(target, name)
		if !ok {
			if err := makeDir(op, sp.layout.InactiveModsDir(target)); err != nil {
				return err
			}
			enabled, disabled, _ = sp.forms(target, name)
		}
		for _, p := range []string{enabled, disabled} {
			if isDir(p) && !sp.linker.IsLink(p) {
				if err := removeTree(op, p); err != nil {
					return err
				}
			}
		}
		if sp.validLink(target, name) {
			continue
		}
		if stale, ok := sp.linkIn(target, name); ok {
			if err := sp.linker.Unlink(stale); err != nil {
				return err
			}
		}
		if err := sp.linker.Link(pool, enabled); err != nil {
			return err
		}
	}

	if reg.ActiveProfile != "" && domain.ContainsName(targets, reg.ActiveProfile) {
		if err := sp.apply(kind, pool, reg.ActiveProfile, name); err != nil {
			return err
		}
	}
	return nil
}

// Unshare gives profile an independent copy of a shared mod or collection.
func (sp *SharedPool) Unshare(reg *domain.Registry, name, profile string) error {
	kind, ok := sp.Lookup(reg, name)
	if !ok {
		return errSharedNotFound("unshare", name)
	}
	return sp.unshare(reg, kind, name, profile)
}

// UnshareMod gives profile an independent copy of a shared mod.
func (sp *SharedPool) UnshareMod(reg *domain.Registry, name, profile string) error {
	if _, ok := reg.SharedMods[name]; !ok {
		return errSharedNotFound("unshare mod", name)
	}
	return sp.unshare(reg, EntryMod, name, profile)
}

// UnshareCollection gives profile an independent copy of a shared collection.
func (sp *SharedPool) UnshareCollection(reg *domain.Registry, name, profile string) error {
	if _, ok := reg.SharedCollections[name]; !ok {
		return errSharedNotFound("unshare collection", name)
	}
	return sp.unshare(reg, EntryCollection, name, profile)
}

// unshare replaces the profile's link with a real copy carrying its snapshot, and
// dissolves the entry once fewer than two profiles remain.
func (sp *SharedPool) unshare(reg *domain.Registry, kind EntryKind, name, profile string) error {
	op := "unshare " + kind.String()
	targets, ok := sp.targets(reg, kind, name)
	if !ok {
		return errSharedNotFound(op, name)
	}
	idx := domain.IndexName(targets, profile)
	if idx < 0 {
		return domain.NewError(domain.KindValidation, op, fmt.Sprintf("profile %q does not use %s", profile, name))
	}
	profile = targets[idx]
	pool := sp.layout.PoolEntry(name)

	enabled, _, ok := sp.forms(profile, name)
	if ok && !isDir(pool) {
		// Nothing to copy back; drop the dangling link and detach.
		if link, found := sp.linkIn(profile, name); found {
			if err := sp.linker.Unlink(link); err != nil {
				return err
			}
		}
		sp.log.Warn().Str(kind.String(), name).Str("profile", profile).Msg("Pool entry missing, detaching without a copy")
		ok = false
	}
	if ok {
		dest := enabled
		if link, ok := sp.linkIn(profile, name); ok {
			dest = link
			if err := sp.linker.Unlink(link); err != nil {
				return err
			}
		}
		if exists(dest) {
			return domain.WrapError(domain.KindConflict, op, dest, fmt.Errorf("a real copy already exists"))
		}
		if err := linker.CopyDir(pool, dest); err != nil {
			return domain.WrapError(domain.KindFilesystem, op, dest, err)
		}
		if err := sp.apply(kind, dest, profile, name); err != nil {
			return err
		}
	}
	sp.dropSnapshot(profile, name)

	remaining := slices.Delete(slices.Clone(targets), idx, idx+1)
	sp.setTargets(reg, kind, name, remaining)
	sp.log.Info().Str(kind.String(), name).Str("profile", profile).Msg("Unshared")

	return sp.settle(reg, kind, name, remaining)
}

// settle dissolves an entry left with fewer than two consumers.
func (sp *SharedPool) settle(reg *domain.Registry, kind EntryKind, name string, remaining []string) error {
	switch len(remaining) {
	case 0:
		pool := sp.layout.PoolEntry(name)
		bestEffort(sp.log, "remove pool entry", pool, func() error { return removeTree("dissolve", pool) })
		sp.dropEntry(reg, kind, name)
		sp.log.Info().Str(kind.String(), name).Msg("Dissolved shared entry")
	case 1:
		return sp.unshare(reg, kind, name, remaining[0])
	}
	return nil
}

// UnshareAll returns every consuming profile to an independent copy and removes the entry.
func (sp *SharedPool) UnshareAll(reg *domain.Registry, name string) error {
	kind, ok := sp.Lookup(reg, name)
	if !ok {
		return errSharedNotFound("unshare all", name)
	}
	targets, _ := sp.targets(reg, kind, name)
	for _, profile := range slices.Clone(targets) {
		current, ok := sp.targets(reg, kind, name)
		if !ok {
			break
		}
		if !domain.ContainsName(current, profile) {
			continue
		}
		if err := sp.unshare(reg, kind, name, profile); err != nil {
			return err
		}
	}
	// An entry registered with no consumers never reaches settle through unshare.
	if current, ok := sp.targets(reg, kind, name); ok && len(current) == 0 {
		return sp.settle(reg, kind, name, current)
	}
	return nil
}

// CleanupProfile detaches a profile that is being deleted from every shared entry.
// Its links are removed without copying content back.
func (sp *SharedPool) CleanupProfile(reg *domain.Registry, profile string) error {
	for _, ref := range sp.entriesFor(reg, profile) {
		if link, ok := sp.linkIn(profile, ref.name); ok {
			if err := sp.linker.Unlink(link); err != nil {
				return err
			}
		}
		sp.dropSnapshot(profile, ref.name)

		targets, _ := sp.targets(reg, ref.kind, ref.name)
		remaining := domain.RemoveName(slices.Clone(targets), profile)
		sp.setTargets(reg, ref.kind, ref.name, remaining)
		if err := sp.settle(reg, ref.kind, ref.name, remaining); err != nil {
			return err
		}
	}

	dir := sp.layout.ProfileSnapshotsDir(profile)
	bestEffort(sp.log, "remove profile snapshots", dir, func() error { return removeTree("cleanup profile", dir) })
	return nil
}

// RenameProfile moves the profile's snapshot slot and rewrites every registry reference.
func (sp *SharedPool) RenameProfile(reg *domain.Registry, oldName, newName string) error {
	src := sp.layout.ProfileSnapshotsDir(oldName)
	dst := sp.layout.ProfileSnapshotsDir(newName)
	if oldName != newName && isDir(src) {
		if err := move("rename profile snapshots", src, dst); err != nil {
			return err
		}
	}
	reg.RenameProfile(oldName, newName)
	return nil
}

func addCollection(reg *domain.Registry, profile, name string) {
	for key, cols := range reg.ProfileCollections {
		if domain.SameName(key, profile) {
			if !slices.Contains(cols, name) {
				reg.ProfileCollections[key] = append(cols, name)
			}
			return
		}
	}
	reg.ProfileCollections[profile] = []string{name}
}

func errSharedNotFound(op, name string) error {
	return &domain.Error{Kind: domain.KindNotFound, Op: op, Msg: fmt.Sprintf("shared entry %q", name), Err: domain.ErrSharedNotFound}
}
