package core_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/profile-mod-manager/internal/core"
	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/linker"
)

type fixture struct {
	layout   core.Layout
	profiles *core.ProfileManager
	pool     *core.SharedPool
	reg      *domain.Registry
}

func newFixture(t *testing.T, method linker.Method) *fixture {
	t.Helper()
	dir := t.TempDir()
	layout := core.NewLayout(filepath.Join(dir, "Mods"), filepath.Join(dir, "Saves"), "")
	require.NoError(t, os.MkdirAll(layout.ModsRoot, 0755))
	require.NoError(t, os.MkdirAll(layout.SavesRoot, 0755))

	profiles := core.NewProfileManager(layout, zerolog.Nop())
	return &fixture{
		layout:   layout,
		profiles: profiles,
		pool:     core.NewSharedPool(profiles, linker.New(method), zerolog.Nop()),
		reg:      domain.NewRegistry(),
	}
}

// addProfiles creates and registers profiles; the first one becomes active.
func (f *fixture) addProfiles(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, f.profiles.Create(name))
		f.reg.Profiles = append(f.reg.Profiles, name)
	}
	if f.reg.ActiveProfile == "" && len(names) > 0 {
		require.NoError(t, f.profiles.Activate(names[0]))
		f.reg.ActiveProfile = names[0]
	}
}

func (f *fixture) modDir(t *testing.T, profile string) string {
	t.Helper()
	dir, ok := f.profiles.ModDir(profile)
	require.True(t, ok, "profile %s has no mod dir", profile)
	return dir
}

// writeMod creates a mod folder with a manifest and optional settings file.
func writeMod(t *testing.T, parent, folder, uniqueID, version, settings string) string {
	t.Helper()
	dir := filepath.Join(parent, folder)
	require.NoError(t, os.MkdirAll(dir, 0755))
	manifest := `{"Name": "` + folder + `", "UniqueID": "` + uniqueID + `", "Version": "` + version + `"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.dll"), []byte("binary-"+uniqueID), 0644))
	if settings != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(settings), 0644))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// tree maps every path below root (links not followed) to its content or kind.
func tree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			out[rel] = "link:" + target
		case d.IsDir():
			out[rel] = "dir"
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out[rel] = string(data)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

var linkMethods = []linker.Method{linker.MethodSymlink, linker.MethodMarker}
