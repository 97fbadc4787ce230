package core

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/manifest"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
)

// ModList is the content of a profile or of the common root.
type ModList struct {
	Mods        []domain.ModFolder
	Collections []domain.Collection
}

// ListProfileMods lists the mods and collections inside a profile's mod directory.
// Folders named in collections are read as collections; other folders need a manifest.
func (sp *SharedPool) ListProfileMods(reg *domain.Registry, profile string) (*ModList, error) {
	dir, ok := sp.profiles.ModDir(profile)
	if !ok {
		return nil, errProfileNotFound("list mods", profile)
	}
	return sp.listDir(dir, reg.CollectionsFor(profile), false)
}

// ListCommonMods lists mods at the mods root that belong to no profile.
func (sp *SharedPool) ListCommonMods(reg *domain.Registry) (*ModList, error) {
	return sp.listDir(sp.layout.ModsRoot, reg.CommonCollections, true)
}

func (sp *SharedPool) listDir(dir string, collections []string, common bool) (*ModList, error) {
	entries, err := subdirs(dir)
	if err != nil {
		return nil, domain.WrapError(domain.KindFilesystem, "list mods", dir, err)
	}

	list := &ModList{}
	for _, e := range entries {
		name := e.Name()
		if common && (strings.EqualFold(name, naming.PoolFolder) || isProfileFolder(name)) {
			continue
		}
		path := filepath.Join(dir, name)

		if slices.ContainsFunc(collections, func(c string) bool { return strings.EqualFold(c, naming.ToEnabled(name)) }) {
			col := domain.Collection{
				FolderName: name,
				Path:       path,
				Enabled:    naming.IsEnabled(name),
				Common:     common,
			}
			col.Shared, col.SharedFolderName = sp.linkState(path)
			col.SubMods = readSubMods(sp.linker.Resolve(path), common)
			list.Collections = append(list.Collections, col)
			continue
		}

		content := sp.linker.Resolve(path)
		if !manifest.Has(content) {
			continue
		}
		m, err := manifest.Read(content)
		if err != nil {
			sp.log.Debug().Err(err).Str("path", path).Msg("Skipping folder with unreadable manifest")
			continue
		}
		mod := domain.ModFolder{
			FolderName: name,
			Path:       path,
			Manifest:   *m,
			Enabled:    naming.IsEnabled(name),
			Common:     common,
		}
		mod.Shared, mod.SharedFolderName = sp.linkState(path)
		list.Mods = append(list.Mods, mod)
	}

	slices.SortFunc(list.Mods, func(a, b domain.ModFolder) int { return cmp.Compare(a.Manifest.Name, b.Manifest.Name) })
	slices.SortFunc(list.Collections, func(a, b domain.Collection) int { return cmp.Compare(a.FolderName, b.FolderName) })
	return list, nil
}

func (sp *SharedPool) linkState(path string) (bool, string) {
	if !sp.linker.IsLink(path) {
		return false, ""
	}
	target, err := sp.linker.Target(path)
	if err != nil {
		return true, ""
	}
	return true, filepath.Base(target)
}

func readSubMods(dir string, common bool) []domain.ModFolder {
	entries, err := subdirs(dir)
	if err != nil {
		return nil
	}
	var subs []domain.ModFolder
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		m, err := manifest.Read(path)
		if err != nil {
			continue
		}
		subs = append(subs, domain.ModFolder{
			FolderName: e.Name(),
			Path:       path,
			Manifest:   *m,
			Enabled:    naming.IsEnabled(e.Name()),
			Common:     common,
		})
	}
	slices.SortFunc(subs, func(a, b domain.ModFolder) int { return cmp.Compare(a.Manifest.Name, b.Manifest.Name) })
	return subs
}

func isProfileFolder(name string) bool {
	_, ok := naming.ParseProfileName(name)
	return ok
}

// SetEnabled renames a mod or collection folder into its enabled or disabled form
// and returns the new path. Links are renamed like any other folder.
func SetEnabled(path string, enabled bool) (string, error) {
	current := filepath.Base(path)
	next := naming.ToDisabled(current)
	if enabled {
		next = naming.ToEnabled(current)
	}
	if next == current {
		return path, nil
	}
	dst := filepath.Join(filepath.Dir(path), next)
	if err := move("toggle mod", path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// FindFolder locates folder (either form) inside dir.
func FindFolder(dir, folder string) (string, bool) {
	for _, name := range []string{naming.ToEnabled(folder), naming.ToDisabled(folder)} {
		if p := filepath.Join(dir, name); exists(p) {
			return p, true
		}
	}
	return "", false
}
