package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Hook names exported to scripts as PMM_HOOK
const (
	HookBeforeSwitch = "before_switch"
	HookAfterSwitch  = "after_switch"
)

// DefaultHookTimeout applies when no timeout is configured
const DefaultHookTimeout = 60 * time.Second

// HookContext provides environment information for hook scripts
type HookContext struct {
	From      string // Empty when no profile was active
	To        string
	ModsPath  string
	SavesPath string
	HookName  string
}

// HookResult contains the output from running a hook
type HookResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// HookRunner executes hook scripts with timeout and environment
type HookRunner struct {
	timeout time.Duration
}

// NewHookRunner creates a new hook runner with the given timeout
func NewHookRunner(timeout time.Duration) *HookRunner {
	if timeout <= 0 {
		timeout = DefaultHookTimeout
	}
	return &HookRunner{timeout: timeout}
}

// Run executes a hook script and returns its output
func (r *HookRunner) Run(ctx context.Context, scriptPath string, hc HookContext) (*HookResult, error) {
	result := &HookResult{}

	info, err := os.Stat(scriptPath)
	if os.IsNotExist(err) {
		return result, fmt.Errorf("hook script not found: %s", scriptPath)
	}
	if err != nil {
		return result, fmt.Errorf("checking hook script: %w", err)
	}
	if info.Mode()&0111 == 0 {
		return result, fmt.Errorf("hook script not executable: %s", scriptPath)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, scriptPath)
	cmd.WaitDelay = 100 * time.Millisecond
	cmd.Env = append(os.Environ(),
		"PMM_FROM_PROFILE="+hc.From,
		"PMM_TO_PROFILE="+hc.To,
		"PMM_MODS_PATH="+hc.ModsPath,
		"PMM_SAVES_PATH="+hc.SavesPath,
		"PMM_HOOK="+hc.HookName,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("hook timed out after %v: %s", r.timeout, scriptPath)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("hook failed with exit code %d: %s", result.ExitCode, scriptPath)
		}
		return result, fmt.Errorf("running hook: %w", err)
	}

	return result, nil
}
