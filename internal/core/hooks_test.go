package core_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/profile-mod-manager/internal/core"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hook.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestHookRunner_Success(t *testing.T) {
	script := writeScript(t, `echo "from=$PMM_FROM_PROFILE to=$PMM_TO_PROFILE hook=$PMM_HOOK"
echo "stderr message" >&2
`)

	runner := core.NewHookRunner(time.Minute)
	result, err := runner.Run(context.Background(), script, core.HookContext{
		From:     "Farm1",
		To:       "Farm2",
		HookName: core.HookBeforeSwitch,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "from=Farm1 to=Farm2 hook=before_switch")
	assert.Contains(t, result.Stderr, "stderr message")
	assert.Equal(t, 0, result.ExitCode)
}

func TestHookRunner_NonZeroExit(t *testing.T) {
	script := writeScript(t, "echo \"error occurred\" >&2\nexit 42\n")

	result, err := core.NewHookRunner(time.Minute).Run(context.Background(), script, core.HookContext{})
	require.Error(t, err)
	assert.Equal(t, 42, result.ExitCode)
	assert.Contains(t, result.Stderr, "error occurred")
}

func TestHookRunner_Timeout(t *testing.T) {
	script := writeScript(t, "sleep 10\n")

	_, err := core.NewHookRunner(100*time.Millisecond).Run(context.Background(), script, core.HookContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestHookRunner_NotRunnable(t *testing.T) {
	runner := core.NewHookRunner(0)

	_, err := runner.Run(context.Background(), "/nonexistent/hook.sh", core.HookContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	path := filepath.Join(t.TempDir(), "plain.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0644))
	_, err = runner.Run(context.Background(), path, core.HookContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not executable")
}
