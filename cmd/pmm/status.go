package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long: `Show the configured folders, the active profile and a summary of the shared pool.

Examples:
  pmm status
  pmm status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusJSON struct {
	ModsPath          string     `json:"mods_path"`
	SavesPath         string     `json:"saves_path"`
	LinkMethod        string     `json:"link_method"`
	ActiveProfile     string     `json:"active_profile"`
	Profiles          int        `json:"profiles"`
	SharedMods        int        `json:"shared_mods"`
	SharedCollections int        `json:"shared_collections"`
	Report            reportJSON `json:"report"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	reg := svc.Registry()
	layout := svc.Layout()
	report := svc.Verify()
	out := cmd.OutOrStdout()

	if jsonOutput {
		return printJSON(out, statusJSON{
			ModsPath:          layout.ModsRoot,
			SavesPath:         layout.SavesRoot,
			LinkMethod:        string(svc.LinkMethod()),
			ActiveProfile:     reg.ActiveProfile,
			Profiles:          len(reg.Profiles),
			SharedMods:        len(reg.SharedMods),
			SharedCollections: len(reg.SharedCollections),
			Report:            toReportJSON(report),
		})
	}

	fmt.Fprintf(out, "Mods folder:  %s\n", layout.ModsRoot)
	fmt.Fprintf(out, "Saves folder: %s\n", layout.SavesRoot)
	fmt.Fprintf(out, "Link method:  %s\n", svc.LinkMethod())
	fmt.Fprintln(out)

	if len(reg.Profiles) == 0 {
		fmt.Fprintln(out, "No profiles registered.")
		fmt.Fprintln(out, "\nUse 'pmm init' to adopt existing folders.")
		return nil
	}

	active := reg.ActiveProfile
	if active == "" {
		active = colorYellow("(none)")
	} else if reg.IsVanilla(active) {
		active += colorDim(" (vanilla)")
	}
	fmt.Fprintf(out, "Active profile: %s\n", active)
	fmt.Fprintf(out, "Profiles:       %d\n", len(reg.Profiles))
	fmt.Fprintf(out, "Shared:         %d mod(s), %d collection(s)\n", len(reg.SharedMods), len(reg.SharedCollections))
	fmt.Fprintln(out)
	printReport(out, report)
	return nil
}
