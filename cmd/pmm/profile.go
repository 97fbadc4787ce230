package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	profileDeleteYes  bool
	profileVanillaOff bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage mod profiles",
	Long: `Manage mod profiles.

Each profile owns a mod folder and a save folder. Exactly one profile is active at a
time; its folders are the ones the game loads.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Long: `List all registered profiles in registry order.

Examples:
  pmm profile list
  pmm profile list --json`,
	RunE: runProfileList,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Long: `Create a new empty profile. The first profile created becomes the active one.

Examples:
  pmm profile create Farm1`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Long: `Delete a profile together with its mod folder and save folder.

The profile is detached from every shared mod and collection first. Deleting the
active profile activates the first remaining one.

Examples:
  pmm profile delete Farm1
  pmm profile delete Farm1 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileDelete,
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a profile",
	Long: `Rename a profile's folders, settings snapshots and shared-pool references.

Examples:
  pmm profile rename Farm1 "Main Farm"`,
	Args: cobra.ExactArgs(2),
	RunE: runProfileRename,
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch to a different profile",
	Long: `Make another profile active.

The current profile's shared-mod settings are snapshotted, its folders are moved to
their inactive form, and the target's folders and settings are brought back.

Examples:
  pmm profile switch Farm2`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileSwitch,
}

var profileVanillaCmd = &cobra.Command{
	Use:   "vanilla <name>",
	Short: "Mark a profile as vanilla",
	Long: `Mark a profile as vanilla. While a vanilla profile is active every common mod
(mods at the top of the mods folder) is disabled; they are restored when a
non-vanilla profile becomes active.

Examples:
  pmm profile vanilla Clean
  pmm profile vanilla Clean --off`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileVanilla,
}

func init() {
	profileDeleteCmd.Flags().BoolVarP(&profileDeleteYes, "yes", "y", false, "skip confirmation prompt")
	profileVanillaCmd.Flags().BoolVar(&profileVanillaOff, "off", false, "clear the vanilla flag")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileRenameCmd)
	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileVanillaCmd)

	rootCmd.AddCommand(profileCmd)
}

type profileJSON struct {
	Name        string   `json:"name"`
	State       string   `json:"state"`
	Active      bool     `json:"active"`
	Vanilla     bool     `json:"vanilla"`
	HasSaves    bool     `json:"has_saves"`
	Collections []string `json:"collections"`
}

func runProfileList(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	profiles := svc.ListProfiles()

	if jsonOutput {
		items := make([]profileJSON, 0, len(profiles))
		for _, p := range profiles {
			cols := p.Collections
			if cols == nil {
				cols = []string{}
			}
			items = append(items, profileJSON{
				Name:        p.Name,
				State:       svc.ProfileState(p.Name).String(),
				Active:      p.Active,
				Vanilla:     p.Vanilla,
				HasSaves:    svc.ProfileHasSaves(p.Name),
				Collections: cols,
			})
		}
		return printJSON(out, items)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(out, "No profiles found.")
		fmt.Fprintln(out, "\nUse 'pmm init' to adopt existing folders or 'pmm profile create <name>' to start.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tACTIVE\tVANILLA\tSAVES\tCOLLECTIONS")
	fmt.Fprintln(w, "----\t-----\t------\t-------\t-----\t-----------")
	for _, p := range profiles {
		active := ""
		if p.Active {
			active = "*"
		}
		vanilla := ""
		if p.Vanilla {
			vanilla = "yes"
		}
		saves := "missing"
		if svc.ProfileHasSaves(p.Name) {
			saves = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.Name, svc.ProfileState(p.Name), active, vanilla, saves, len(p.Collections))
	}
	return w.Flush()
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	if err := svc.CreateProfile(args[0]); err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}

	check(cmd.OutOrStdout(), "Created profile: %s", args[0])
	if svc.Registry().IsActive(args[0]) {
		fmt.Fprintln(cmd.OutOrStdout(), "  It is now the active profile.")
	}
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	name := args[0]
	if !profileDeleteYes {
		if !confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete profile %s with all of its mods and saves?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return ErrCancelled
		}
	}

	if err := svc.DeleteProfile(name); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	check(cmd.OutOrStdout(), "Deleted profile: %s", name)
	if active := svc.Registry().ActiveProfile; active != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  Active profile: %s\n", active)
	}
	return nil
}

func runProfileRename(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	if err := svc.RenameProfile(args[0], args[1]); err != nil {
		return fmt.Errorf("renaming profile: %w", err)
	}

	check(cmd.OutOrStdout(), "Renamed profile: %s -> %s", args[0], args[1])
	return nil
}

func runProfileSwitch(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	if err := svc.SwitchProfile(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("switching profile: %w", err)
	}

	check(cmd.OutOrStdout(), "Active profile: %s", svc.Registry().ActiveProfile)
	return nil
}

func runProfileVanilla(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	if err := svc.SetVanilla(args[0], !profileVanillaOff); err != nil {
		return fmt.Errorf("setting vanilla flag: %w", err)
	}

	if profileVanillaOff {
		check(cmd.OutOrStdout(), "%s is no longer vanilla", args[0])
	} else {
		check(cmd.OutOrStdout(), "%s is vanilla", args[0])
	}
	return nil
}
