package core_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/linker"
)

func TestProfileManager_Create(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)

	require.NoError(t, f.profiles.Create("Farm1"))
	assert.Equal(t, domain.StateInactive, f.profiles.State("Farm1"))
	assert.DirExists(t, f.layout.InactiveModsDir("Farm1"))
	assert.DirExists(t, f.layout.InactiveSavesDir("Farm1"))
	assert.NoDirExists(t, f.layout.ActiveSavesDir())
	assert.True(t, f.profiles.HasSaves("Farm1", false))
	assert.False(t, f.profiles.HasSaves("Farm1", true))
}

func TestProfileManager_Create_Invalid(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)

	for _, name := range []string{"", "  ", "a/b", "x:y"} {
		err := f.profiles.Create(name)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, domain.ErrValidation), name)
	}
}

func TestProfileManager_Create_Duplicate(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	require.NoError(t, f.profiles.Create("Farm1"))

	err := f.profiles.Create("Farm1")
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestProfileManager_CreateThenDelete_LeavesNoTrace(t *testing.T) {
	for _, name := range []string{"Farm1", "My Farm", "Ünïcode"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, linker.MethodSymlink)
			modsBefore := tree(t, f.layout.ModsRoot)
			savesBefore := tree(t, f.layout.SavesRoot)

			require.NoError(t, f.profiles.Create(name))
			require.NoError(t, f.profiles.Delete(name))

			assert.Equal(t, modsBefore, tree(t, f.layout.ModsRoot))
			assert.Equal(t, savesBefore, tree(t, f.layout.SavesRoot))
		})
	}
}

func TestProfileManager_Delete_KeepsActiveSaves(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	f.addProfiles(t, "Farm1", "Farm2")
	save := filepath.Join(f.layout.ActiveSavesDir(), "Farm_123", "Farm_123")
	require.NoError(t, os.MkdirAll(filepath.Dir(save), 0755))
	require.NoError(t, os.WriteFile(save, []byte("save"), 0644))

	require.NoError(t, f.profiles.Delete("Farm2"))

	assert.FileExists(t, save)
	assert.Equal(t, domain.StateMissing, f.profiles.State("Farm2"))
	assert.NoDirExists(t, f.layout.InactiveSavesDir("Farm2"))
}

func TestProfileManager_SwitchRoundTrip(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	f.addProfiles(t, "A", "B")

	writeMod(t, f.modDir(t, "A"), "ModA", "a.mod", "1.0", `{"x":1}`)
	writeMod(t, f.modDir(t, "B"), ".ModB", "b.mod", "2.0", "")
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.ActiveSavesDir(), "SaveA"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.ActiveSavesDir(), "SaveA", "data"), []byte("a"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.InactiveSavesDir("B"), "SaveB"), 0755))

	modsBefore := tree(t, f.layout.ModsRoot)
	savesBefore := tree(t, f.layout.SavesRoot)

	require.NoError(t, f.profiles.Switch("A", "B"))
	assert.Equal(t, domain.StateActive, f.profiles.State("B"))
	assert.Equal(t, domain.StateInactive, f.profiles.State("A"))
	assert.DirExists(t, filepath.Join(f.layout.ActiveSavesDir(), "SaveB"))
	assert.FileExists(t, filepath.Join(f.layout.InactiveSavesDir("A"), "SaveA", "data"))

	require.NoError(t, f.profiles.Switch("B", "A"))

	assert.Equal(t, modsBefore, tree(t, f.layout.ModsRoot))
	assert.Equal(t, savesBefore, tree(t, f.layout.SavesRoot))
}

func TestProfileManager_TransitionsAreIdempotent(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	f.addProfiles(t, "A", "B")

	require.NoError(t, f.profiles.Deactivate("A"))
	after := tree(t, f.layout.ModsRoot)
	savesAfter := tree(t, f.layout.SavesRoot)
	require.NoError(t, f.profiles.Deactivate("A"))
	assert.Equal(t, after, tree(t, f.layout.ModsRoot))
	assert.Equal(t, savesAfter, tree(t, f.layout.SavesRoot))

	require.NoError(t, f.profiles.Activate("B"))
	after = tree(t, f.layout.ModsRoot)
	savesAfter = tree(t, f.layout.SavesRoot)
	require.NoError(t, f.profiles.Activate("B"))
	assert.Equal(t, after, tree(t, f.layout.ModsRoot))
	assert.Equal(t, savesAfter, tree(t, f.layout.SavesRoot))
}

func TestProfileManager_Activate_CreatesMissingDirs(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)

	require.NoError(t, f.profiles.Switch("", "Fresh"))
	assert.DirExists(t, f.layout.ActiveModsDir("Fresh"))
	assert.DirExists(t, f.layout.ActiveSavesDir())
}

func TestProfileManager_Deactivate_ReplacesSaveSlot(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	f.addProfiles(t, "A")
	require.NoError(t, os.MkdirAll(f.layout.InactiveSavesDir("A"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.InactiveSavesDir("A"), "stale"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.ActiveSavesDir(), "fresh"), []byte("new"), 0644))

	require.NoError(t, f.profiles.Deactivate("A"))

	assert.NoFileExists(t, filepath.Join(f.layout.InactiveSavesDir("A"), "stale"))
	assert.Equal(t, "new", readFile(t, filepath.Join(f.layout.InactiveSavesDir("A"), "fresh")))
	assert.NoDirExists(t, f.layout.ActiveSavesDir())
}

func TestProfileManager_Conflicted(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	f.addProfiles(t, "A")
	require.NoError(t, os.MkdirAll(f.layout.InactiveModsDir("A"), 0755))

	assert.Equal(t, domain.StateConflicted, f.profiles.State("A"))
	assert.True(t, errors.Is(f.profiles.Deactivate("A"), domain.ErrConflict))
	assert.True(t, errors.Is(f.profiles.Activate("A"), domain.ErrConflict))
}

func TestProfileManager_Rename(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	f.addProfiles(t, "Active", "Idle")
	writeMod(t, f.modDir(t, "Idle"), "Mod", "m", "1", "")

	require.NoError(t, f.profiles.Rename("Idle", "Renamed"))
	assert.Equal(t, domain.StateInactive, f.profiles.State("Renamed"))
	assert.Equal(t, domain.StateMissing, f.profiles.State("Idle"))
	assert.DirExists(t, filepath.Join(f.layout.InactiveModsDir("Renamed"), "Mod"))
	assert.DirExists(t, f.layout.InactiveSavesDir("Renamed"))
	assert.NoDirExists(t, f.layout.InactiveSavesDir("Idle"))

	require.NoError(t, f.profiles.Rename("Active", "Main"))
	assert.Equal(t, domain.StateActive, f.profiles.State("Main"))
	assert.DirExists(t, f.layout.ActiveSavesDir())
}

func TestProfileManager_Rename_Errors(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	f.addProfiles(t, "A", "B")

	assert.True(t, errors.Is(f.profiles.Rename("A", "B"), domain.ErrConflict))
	assert.True(t, errors.Is(f.profiles.Rename("Missing", "C"), domain.ErrProfileNotFound))
	assert.True(t, errors.Is(f.profiles.Rename("A", "bad/name"), domain.ErrValidation))
	assert.NoError(t, f.profiles.Rename("A", "A"))
}

func TestProfileManager_MigrateLegacy(t *testing.T) {
	f := newFixture(t, linker.MethodSymlink)
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.ModsRoot, "Farm1"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.ModsRoot, ".Farm2"), 0755))
	// Destination exists: never overwritten
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.ModsRoot, ".Farm3"), 0755))
	require.NoError(t, os.MkdirAll(f.layout.InactiveModsDir("Farm3"), 0755))

	moved, err := f.profiles.MigrateLegacy([]string{"Farm1", "Farm2", "Farm3", "Absent"})
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	assert.Equal(t, domain.StateActive, f.profiles.State("Farm1"))
	assert.Equal(t, domain.StateInactive, f.profiles.State("Farm2"))
	assert.DirExists(t, filepath.Join(f.layout.ModsRoot, ".Farm3"))

	moved, err = f.profiles.MigrateLegacy([]string{"Farm1", "Farm2"})
	require.NoError(t, err)
	assert.Zero(t, moved)
}
