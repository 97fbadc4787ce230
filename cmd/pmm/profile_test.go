package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCmd_Structure(t *testing.T) {
	assert.Equal(t, "profile", profileCmd.Use)
	assert.NotEmpty(t, profileCmd.Short)

	var subCmds []string
	for _, cmd := range profileCmd.Commands() {
		subCmds = append(subCmds, cmd.Name())
	}

	assert.Contains(t, subCmds, "list")
	assert.Contains(t, subCmds, "create")
	assert.Contains(t, subCmds, "delete")
	assert.Contains(t, subCmds, "rename")
	assert.Contains(t, subCmds, "switch")
	assert.Contains(t, subCmds, "vanilla")
}

func TestProfileCreateCmd_NoName(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run(t, "profile", "create")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestProfileDeleteCmd_HasYesFlag(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"profile", "delete"})
	require.NoError(t, err)

	flag := cmd.Flags().Lookup("yes")
	require.NotNil(t, flag)
	assert.Equal(t, "y", flag.Shorthand)
}

func TestProfileCmd_CreateListSwitch(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun(t, "profile", "create", "Farm1")
	assert.Contains(t, out, "Created profile: Farm1")
	assert.Contains(t, out, "now the active profile")

	out = e.mustRun(t, "profile", "create", "Farm2")
	assert.NotContains(t, out, "active profile")

	assert.DirExists(t, filepath.Join(e.mods, "[PROFILE] Farm1"))
	assert.DirExists(t, filepath.Join(e.mods, ".[PROFILE] Farm2"))

	out = e.mustRun(t, "profile", "list", "--json")
	var profiles []profileJSON
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 2)
	assert.Equal(t, "Farm1", profiles[0].Name)
	assert.True(t, profiles[0].Active)
	assert.Equal(t, "active", profiles[0].State)
	assert.Equal(t, "inactive", profiles[1].State)

	out = e.mustRun(t, "profile", "switch", "Farm2")
	assert.Contains(t, out, "Active profile: Farm2")
	assert.DirExists(t, filepath.Join(e.mods, ".[PROFILE] Farm1"))
	assert.DirExists(t, filepath.Join(e.mods, "[PROFILE] Farm2"))
	assert.DirExists(t, filepath.Join(e.saves, ".Farm1Saves"))
	assert.DirExists(t, filepath.Join(e.saves, "Saves"))
}

func TestProfileCmd_List_Saves(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "profile", "create", "Farm1")
	e.mustRun(t, "profile", "create", "Farm2")
	require.NoError(t, os.RemoveAll(filepath.Join(e.saves, ".Farm2Saves")))

	out := e.mustRun(t, "profile", "list", "--json")
	var profiles []profileJSON
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 2)
	assert.True(t, profiles[0].HasSaves)
	assert.False(t, profiles[1].HasSaves)

	out = e.mustRun(t, "profile", "list")
	assert.Contains(t, out, "SAVES")
	assert.Contains(t, out, "missing")
}

func TestProfileCmd_List_Empty(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun(t, "profile", "list")
	assert.Contains(t, out, "No profiles found.")

	out = e.mustRun(t, "profile", "list", "--json")
	assert.JSONEq(t, "[]", out)
}

func TestProfileCmd_Switch_Unknown(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "profile", "create", "Farm1")

	_, err := e.run(t, "profile", "switch", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "switching profile")
}

func TestProfileCmd_RenameAndDelete(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "profile", "create", "Farm1")
	e.mustRun(t, "profile", "create", "Farm2")

	out := e.mustRun(t, "profile", "rename", "Farm2", "Ranch")
	assert.Contains(t, out, "Farm2 -> Ranch")
	assert.DirExists(t, filepath.Join(e.mods, ".[PROFILE] Ranch"))
	assert.NoDirExists(t, filepath.Join(e.mods, ".[PROFILE] Farm2"))

	out = e.mustRun(t, "profile", "delete", "Ranch", "--yes")
	assert.Contains(t, out, "Deleted profile: Ranch")
	assert.Contains(t, out, "Active profile: Farm1")
	assert.NoDirExists(t, filepath.Join(e.mods, ".[PROFILE] Ranch"))
}

func TestProfileCmd_Vanilla(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "profile", "create", "Plain")

	out := e.mustRun(t, "profile", "vanilla", "Plain")
	assert.Contains(t, out, "Plain is vanilla")

	out = e.mustRun(t, "profile", "list", "--json")
	var profiles []profileJSON
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 1)
	assert.True(t, profiles[0].Vanilla)

	out = e.mustRun(t, "profile", "vanilla", "Plain", "--off")
	assert.Contains(t, out, "no longer vanilla")
}
