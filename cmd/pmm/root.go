package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/profile-mod-manager/internal/core"
	"github.com/DonovanMods/profile-mod-manager/internal/logging"
	"github.com/DonovanMods/profile-mod-manager/internal/storage/config"
)

// ErrCancelled is returned when the user cancels an operation (e.g. prompt declined).
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.3.0"

	// Global flags
	configDir  string
	dataDir    string
	verbosity  int
	jsonOutput bool
	noColor    bool

	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pmm",
	Short: "Profile Mod Manager - isolated mod profiles with a shared mod pool",
	Long: `pmm keeps several isolated mod configurations ("profiles") for one game and
switches between them by moving directories. Mods and collections used by more than
one profile can be moved into a shared pool and linked into each profile, so their
content exists on disk only once.

Use subcommands for operations. Run 'pmm --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: $XDG_CONFIG_HOME/pmm)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: $XDG_DATA_HOME/pmm)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "verbose output (repeat for more detail)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format (list, status, pool, detect, history)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled.
// When --json is set and an error occurs, prints {"error":"..."} to stdout before exiting.
func Execute() {
	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			os.Exit(2)
		}
		if jsonOutput {
			fmt.Printf(`{"error":%q}`+"\n", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "%s %v\n", colorRed("Error:"), err)
		}
		os.Exit(1)
	}
}

// setupLogging configures the global logger from the flags and the configured log file.
func setupLogging() {
	logFile := ""
	if cfg, err := config.Load(getServiceConfig().ConfigDir); err == nil {
		logFile = cfg.LogFile
	}
	logCloser = logging.Setup(verbosity, logFile, !colorEnabled())
}

// getServiceConfig returns the service configuration with defaults
func getServiceConfig() core.ServiceConfig {
	cfg := core.ServiceConfig{
		ConfigDir: configDir,
		DataDir:   dataDir,
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = config.DefaultConfigDir()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir()
	}
	return cfg
}

// initService creates the core service and runs the startup checks
func initService(cmd *cobra.Command) (*core.Service, error) {
	cfg := getServiceConfig()

	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	svc, err := core.NewService(cfg)
	if err != nil {
		return nil, err
	}

	report, err := svc.Startup()
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("startup checks: %w", err)
	}
	printStartupReport(cmd.ErrOrStderr(), report)

	return svc, nil
}

func printStartupReport(w io.Writer, report *core.StartupReport) {
	if report.Migrated > 0 {
		fmt.Fprintf(w, "%s migrated %d legacy profile folder(s)\n", colorYellow("!"), report.Migrated)
	}
	for _, name := range report.Repaired {
		fmt.Fprintf(w, "%s repaired shared entry %s\n", colorYellow("!"), name)
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "%s profile %s: %s\n", colorYellow("!"), issue.Profile, issue.Kind)
	}
	if len(report.Issues) > 0 {
		fmt.Fprintln(w, "  Run 'pmm pool verify --fix' to repair profile folders.")
	}
}

// activeOr returns profile, or the active profile when profile is empty
func activeOr(svc *core.Service, profile string) (string, error) {
	if profile != "" {
		return profile, nil
	}
	if active := svc.Registry().ActiveProfile; active != "" {
		return active, nil
	}
	return "", fmt.Errorf("no active profile; use --profile or create one with 'pmm profile create <name>'")
}

// confirm asks a yes/no question on stdin; anything but y/Y is a no.
func confirm(w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N] ", prompt)
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}
