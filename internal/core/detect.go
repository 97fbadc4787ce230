package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/manifest"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
)

// Scenario classifies an unmanaged mods directory.
type Scenario int

const (
	NoModsFolder Scenario = iota
	ModsExistNoProfiles
	ProfilesDetected
	ProfilesAndSaves
)

func (s Scenario) String() string {
	switch s {
	case ModsExistNoProfiles:
		return "mods-exist-no-profiles"
	case ProfilesDetected:
		return "profiles-detected"
	case ProfilesAndSaves:
		return "profiles-and-saves"
	default:
		return "no-mods-folder"
	}
}

// DetectedFolder is one top-level folder of the mods root.
type DetectedFolder struct {
	FolderName     string
	Path           string
	DotPrefixed    bool
	LikelyProfile  bool
	LikelyDisabled bool // Dot-prefixed folder with its own manifest
	SubModCount    int
}

// Detection is the result of DetectLayout.
type Detection struct {
	Scenario        Scenario
	DotPrefixed     []DetectedFolder
	MultiMod        []DetectedFolder // Folders holding several mods, i.e. likely profiles
	ProfileNames    []string
	SaveFolders     []string // Folders inside the active saves directory
	LooseModsAtRoot bool
}

// modDepth is how deep below a candidate profile folder mods are counted.
const modDepth = 2

// DetectLayout inspects an unmanaged mods root and saves root and classifies what it finds.
// It never modifies anything.
func DetectLayout(modsRoot, savesRoot string) (*Detection, error) {
	res := &Detection{}
	if !isDir(modsRoot) {
		res.Scenario = NoModsFolder
		return res, nil
	}

	dirs, err := subdirs(modsRoot)
	if err != nil {
		return nil, domain.WrapError(domain.KindFilesystem, "detect layout", modsRoot, err)
	}

	for _, d := range dirs {
		name := d.Name()
		if strings.EqualFold(name, naming.PoolFolder) {
			continue
		}
		path := filepath.Join(modsRoot, name)

		if naming.IsDisabled(name) {
			f := DetectedFolder{FolderName: name, Path: path, DotPrefixed: true}
			if manifest.Has(path) {
				f.LikelyDisabled = true
			} else {
				f.SubModCount = countMods(path, modDepth)
				f.LikelyProfile = f.SubModCount > 0
			}
			res.DotPrefixed = append(res.DotPrefixed, f)
			if f.LikelyProfile {
				res.MultiMod = append(res.MultiMod, f)
			}
			continue
		}

		if manifest.Has(path) {
			res.LooseModsAtRoot = true
			continue
		}
		if n := countMods(path, modDepth); n > 0 {
			res.MultiMod = append(res.MultiMod, DetectedFolder{
				FolderName:    name,
				Path:          path,
				LikelyProfile: true,
				SubModCount:   n,
			})
		}
	}

	if len(res.MultiMod) == 0 {
		if res.LooseModsAtRoot || len(dirs) > 0 {
			res.Scenario = ModsExistNoProfiles
		} else {
			res.Scenario = NoModsFolder
		}
		return res, nil
	}

	for _, f := range res.MultiMod {
		name, ok := naming.ParseProfileName(f.FolderName)
		if !ok {
			name = naming.ToEnabled(f.FolderName)
		}
		if !domain.ContainsName(res.ProfileNames, name) {
			res.ProfileNames = append(res.ProfileNames, name)
		}
	}

	if !isDir(savesRoot) {
		res.Scenario = ProfilesDetected
		return res, nil
	}

	var matched []string
	saveDirs, err := subdirs(savesRoot)
	if err != nil {
		return nil, domain.WrapError(domain.KindFilesystem, "detect layout", savesRoot, err)
	}
	for _, d := range saveDirs {
		profile, ok := naming.ParseInactiveSavesName(d.Name())
		if ok && domain.ContainsName(res.ProfileNames, profile) && !domain.ContainsName(matched, profile) {
			matched = append(matched, profile)
		}
	}

	active := filepath.Join(savesRoot, naming.ActiveSavesFolder)
	if isDir(active) {
		saves, err := subdirs(active)
		if err == nil {
			for _, s := range saves {
				res.SaveFolders = append(res.SaveFolders, s.Name())
			}
		}
		// The one profile without a save slot owns the active saves.
		if len(matched) == len(res.ProfileNames)-1 && len(res.SaveFolders) > 0 {
			matched = append(matched, res.ProfileNames...)
		}
	}

	if len(res.ProfileNames) > 0 && allMatched(res.ProfileNames, matched) {
		res.Scenario = ProfilesAndSaves
	} else {
		res.Scenario = ProfilesDetected
	}
	return res, nil
}

func allMatched(names, matched []string) bool {
	for _, n := range names {
		if !domain.ContainsName(matched, n) {
			return false
		}
	}
	return true
}

// countMods counts folders with a manifest below dir, descending into folders
// without one up to depth levels.
func countMods(dir string, depth int) int {
	if depth <= 0 {
		return 0
	}
	entries, err := subdirs(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		sub := filepath.Join(dir, e.Name())
		if manifest.Has(sub) {
			count++
		} else {
			count += countMods(sub, depth-1)
		}
	}
	return count
}

// DetectCollections lists the collection folders directly inside dir: folders with no
// manifest that hold at least one sub-mod with one. Names are returned without the
// disabled prefix.
func DetectCollections(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.KindFilesystem, "detect collections", dir, err)
	}

	var names []string
	for _, e := range entries {
		if strings.EqualFold(e.Name(), naming.PoolFolder) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !isDir(path) || !isCollectionDir(path) {
			continue
		}
		if _, isProfile := naming.ParseProfileName(e.Name()); isProfile {
			continue
		}
		names = append(names, naming.ToEnabled(e.Name()))
	}
	return names, nil
}
