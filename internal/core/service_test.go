package core_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/profile-mod-manager/internal/core"
	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/storage/config"
	"github.com/DonovanMods/profile-mod-manager/internal/storage/db"
)

type serviceEnv struct {
	cfg     core.ServiceConfig
	mods    string
	saves   string
	dataDir string
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	dir := t.TempDir()
	env := &serviceEnv{
		mods:    filepath.Join(dir, "Mods"),
		saves:   filepath.Join(dir, "Saves"),
		dataDir: filepath.Join(dir, "data"),
	}
	require.NoError(t, os.MkdirAll(env.mods, 0755))
	require.NoError(t, os.MkdirAll(env.saves, 0755))
	env.cfg = core.ServiceConfig{
		ConfigDir: filepath.Join(dir, "config"),
		DataDir:   env.dataDir,
		Config: &config.Config{
			ModsPath:     env.mods,
			SavesPath:    env.saves,
			LinkMethod:   "symlink",
			SettingsFile: "config.json",
		},
	}
	return env
}

func (e *serviceEnv) open(t *testing.T) *core.Service {
	t.Helper()
	svc, err := core.NewService(e.cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func modDir(t *testing.T, svc *core.Service, profile string) string {
	t.Helper()
	l := svc.Layout()
	for _, dir := range []string{l.ActiveModsDir(profile), l.InactiveModsDir(profile)} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	t.Fatalf("no mod directory for %s", profile)
	return ""
}

func TestNewService_InvalidConfig(t *testing.T) {
	env := newServiceEnv(t)
	env.cfg.Config.ModsPath = "relative/mods"

	_, err := core.NewService(env.cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mods_path")
}

func TestService_CreateProfile(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)

	require.NoError(t, svc.CreateProfile("Farm1"))
	require.NoError(t, svc.CreateProfile("Farm2"))

	assert.Equal(t, "Farm1", svc.Registry().ActiveProfile)
	assert.Equal(t, domain.StateActive, svc.ProfileState("Farm1"))
	assert.Equal(t, domain.StateInactive, svc.ProfileState("Farm2"))
	assert.DirExists(t, svc.Layout().ActiveSavesDir())

	err := svc.CreateProfile("farm1")
	assert.True(t, errors.Is(err, domain.ErrConflict))

	profiles := svc.ListProfiles()
	require.Len(t, profiles, 2)
	assert.True(t, profiles[0].Active)
	assert.False(t, profiles[1].Active)
}

func TestService_StatePersists(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("Farm1"))
	require.NoError(t, svc.CreateProfile("Farm2"))
	require.NoError(t, svc.RenameProfile("Farm2", "Barn"))
	require.NoError(t, svc.Close())

	reopened := env.open(t)
	assert.Equal(t, []string{"Farm1", "Barn"}, reopened.Registry().Profiles)
	assert.Equal(t, "Farm1", reopened.Registry().ActiveProfile)
	assert.Equal(t, domain.StateInactive, reopened.ProfileState("Barn"))
}

func TestService_History(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("Farm1"))
	require.Error(t, svc.CreateProfile("bad/name"))

	entries, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "bad/name", entries[0].Subject)
	assert.Equal(t, db.OutcomeFailed, entries[0].Outcome)
	assert.NotEmpty(t, entries[0].Detail)

	assert.Equal(t, "Farm1", entries[1].Subject)
	assert.Equal(t, db.OutcomeOK, entries[1].Outcome)
	assert.Equal(t, []string{"Farm1"}, entries[1].Profiles)
	assert.NotEmpty(t, entries[1].OpID)
}

func TestService_SwitchProfile_SharedSettings(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("A"))
	require.NoError(t, svc.CreateProfile("B"))
	writeMod(t, modDir(t, svc, "A"), "Tractor", "a.tractor", "1.0", `{"v":"a"}`)
	writeMod(t, modDir(t, svc, "B"), "Tractor", "a.tractor", "1.0", `{"v":"b"}`)
	require.NoError(t, svc.ShareMod("Tractor", []string{"A", "B"}))
	live := filepath.Join(svc.Layout().PoolEntry("Tractor"), "config.json")

	require.NoError(t, svc.SwitchProfile(context.Background(), "b"))
	assert.Equal(t, "B", svc.Registry().ActiveProfile)
	assert.Equal(t, domain.StateActive, svc.ProfileState("B"))
	assert.Equal(t, `{"v":"b"}`, readFile(t, live))

	require.NoError(t, svc.SwitchProfile(context.Background(), "A"))
	assert.Equal(t, `{"v":"a"}`, readFile(t, live))
	assert.True(t, svc.Verify().Clean())

	err := svc.SwitchProfile(context.Background(), "Nope")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
	assert.Equal(t, "A", svc.Registry().ActiveProfile)
}

func TestService_SwitchProfile_Hooks(t *testing.T) {
	env := newServiceEnv(t)
	marker := filepath.Join(t.TempDir(), "after.txt")
	env.cfg.Config.Hooks.AfterSwitch = writeScript(t, `echo "$PMM_FROM_PROFILE->$PMM_TO_PROFILE" > "`+marker+`"`)
	env.cfg.Config.Hooks.BeforeSwitch = writeScript(t, `[ "$PMM_TO_PROFILE" != "Locked" ]`)
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("A"))
	require.NoError(t, svc.CreateProfile("B"))
	require.NoError(t, svc.CreateProfile("Locked"))

	require.NoError(t, svc.SwitchProfile(context.Background(), "B"))
	assert.Equal(t, "A->B\n", readFile(t, marker))

	err := svc.SwitchProfile(context.Background(), "Locked")
	require.Error(t, err)
	assert.Equal(t, "B", svc.Registry().ActiveProfile)
	assert.Equal(t, domain.StateActive, svc.ProfileState("B"))
	assert.Equal(t, domain.StateInactive, svc.ProfileState("Locked"))
}

func TestService_DeleteProfile(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)
	for _, p := range []string{"A", "B", "C"} {
		require.NoError(t, svc.CreateProfile(p))
	}
	writeMod(t, modDir(t, svc, "A"), "Tractor", "a.tractor", "1.0", "")
	require.NoError(t, svc.ShareMod("Tractor", []string{"A", "B"}))

	require.NoError(t, svc.DeleteProfile("A"))

	reg := svc.Registry()
	assert.Equal(t, []string{"B", "C"}, reg.Profiles)
	assert.Equal(t, "B", reg.ActiveProfile)
	assert.Equal(t, domain.StateActive, svc.ProfileState("B"))
	assert.Equal(t, domain.StateMissing, svc.ProfileState("A"))
	assert.Empty(t, reg.SharedMods)
	assert.FileExists(t, filepath.Join(modDir(t, svc, "B"), "Tractor", "manifest.json"))
	assert.True(t, svc.Verify().Clean())

	assert.True(t, errors.Is(svc.DeleteProfile("A"), domain.ErrProfileNotFound))
}

func TestService_Bootstrap_Vanilla(t *testing.T) {
	env := newServiceEnv(t)
	writeMod(t, env.mods, "Common", "a.common", "1.0", "")
	writeMod(t, filepath.Join(env.mods, "Farm1"), "Tractor", "a.tractor", "1.0", "")
	writeMod(t, filepath.Join(env.mods, ".Farm2"), "Plough", "a.plough", "1.0", "")
	writeCollection(t, filepath.Join(env.mods, "Farm1"), "Farming", "1.0", "x")
	svc := env.open(t)

	det, err := svc.Bootstrap()
	require.NoError(t, err)
	assert.Equal(t, core.ProfilesDetected, det.Scenario)

	reg := svc.Registry()
	assert.Equal(t, []string{"Vanilla", "Farm2", "Farm1"}, reg.Profiles)
	assert.True(t, reg.IsVanilla("Vanilla"))
	assert.Equal(t, "Farm1", reg.ActiveProfile)
	assert.Equal(t, domain.StateActive, svc.ProfileState("Farm1"))
	assert.Equal(t, domain.StateInactive, svc.ProfileState("Farm2"))
	assert.Equal(t, []string{"Farming"}, reg.CollectionsFor("Farm1"))
	assert.True(t, svc.Verify().Clean())

	// Vanilla disables common mods and the next profile restores them
	require.NoError(t, svc.SwitchProfile(context.Background(), "Vanilla"))
	assert.DirExists(t, filepath.Join(env.mods, ".Common"))
	assert.Equal(t, []string{"Common"}, reg.SavedCommonEnabled)

	require.NoError(t, svc.SwitchProfile(context.Background(), "Farm2"))
	assert.DirExists(t, filepath.Join(env.mods, "Common"))
	assert.Empty(t, reg.SavedCommonEnabled)

	_, err = svc.Bootstrap()
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestService_Bootstrap_SeveralActiveFolders(t *testing.T) {
	env := newServiceEnv(t)
	writeMod(t, filepath.Join(env.mods, "Farm1"), "Tractor", "a.tractor", "1.0", "")
	writeMod(t, filepath.Join(env.mods, "Farm2"), "Plough", "a.plough", "1.0", "")
	svc := env.open(t)

	_, err := svc.Bootstrap()
	require.NoError(t, err)

	reg := svc.Registry()
	require.ElementsMatch(t, []string{"Vanilla", "Farm1", "Farm2"}, reg.Profiles)
	require.Contains(t, []string{"Farm1", "Farm2"}, reg.ActiveProfile)

	active := 0
	for _, name := range reg.Profiles {
		if svc.ProfileState(name) == domain.StateActive {
			active++
			assert.Equal(t, reg.ActiveProfile, name)
		}
	}
	assert.Equal(t, 1, active)
	assert.Empty(t, svc.Verify().Issues)
}

func TestService_SetVanilla(t *testing.T) {
	env := newServiceEnv(t)
	writeMod(t, env.mods, "Common", "a.common", "1.0", "")
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("A"))

	require.NoError(t, svc.SetVanilla("A", true))
	assert.DirExists(t, filepath.Join(env.mods, ".Common"))

	require.NoError(t, svc.SetVanilla("A", false))
	assert.DirExists(t, filepath.Join(env.mods, "Common"))
	assert.False(t, svc.Registry().IsVanilla("A"))
}

func TestService_SetModEnabled(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("A"))
	writeMod(t, modDir(t, svc, "A"), "Tractor", "a.tractor", "1.0", "")
	writeMod(t, env.mods, "Common", "a.common", "1.0", "")

	require.NoError(t, svc.SetModEnabled("A", "Tractor", false))
	list, err := svc.ListMods("A")
	require.NoError(t, err)
	require.Len(t, list.Mods, 1)
	assert.False(t, list.Mods[0].Enabled)

	require.NoError(t, svc.SetModEnabled("", "Common", false))
	assert.DirExists(t, filepath.Join(env.mods, ".Common"))

	err = svc.SetModEnabled("A", "Missing", true)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestService_RepairAndStartup(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("Vanilla"))
	require.NoError(t, svc.CreateProfile("Farm1"))
	writeMod(t, modDir(t, svc, "Farm1"), "Tractor", "a.tractor", "1.0", "")
	writeMod(t, modDir(t, svc, "Farm1"), "Plough", "a.plough", "1.0", "")
	require.NoError(t, svc.ShareMod("Tractor", []string{"Vanilla", "Farm1"}))
	require.NoError(t, svc.ShareMod("Plough", []string{"Vanilla", "Farm1"}))
	require.True(t, svc.Verify().Clean())

	require.NoError(t, os.RemoveAll(svc.Layout().PoolEntry("Tractor")))
	report := svc.Verify()
	require.Len(t, report.Broken, 1)
	assert.Equal(t, "Tractor", report.Broken[0].Name)

	after, err := svc.Repair()
	require.NoError(t, err)
	assert.True(t, after.Clean())
	assert.NotContains(t, svc.Registry().SharedMods, "Tractor")
	assert.Contains(t, svc.Registry().SharedMods, "Plough")

	require.NoError(t, os.RemoveAll(svc.Layout().PoolEntry("Plough")))
	startup, err := svc.Startup()
	require.NoError(t, err)
	assert.Equal(t, []string{"Plough"}, startup.Repaired)
	assert.Empty(t, startup.Issues)
	assert.Empty(t, svc.Registry().SharedMods)
}

func TestService_Prune(t *testing.T) {
	env := newServiceEnv(t)
	svc := env.open(t)
	require.NoError(t, svc.CreateProfile("A"))
	require.NoError(t, os.MkdirAll(svc.Layout().PoolEntry("Leftover"), 0755))

	removed, err := svc.Prune()
	require.NoError(t, err)
	assert.Equal(t, []string{"Leftover"}, removed)
}
