package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/profile-mod-manager/internal/core"
	"github.com/DonovanMods/profile-mod-manager/internal/domain"
)

var (
	modProfile string
	modCommon  bool
)

var modCmd = &cobra.Command{
	Use:   "mod",
	Short: "List and toggle mods",
	Long: `List and toggle the mods and collections of a profile, or the common mods at the
top of the mods folder. A disabled mod's folder carries a leading dot.`,
}

var modListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mods and collections",
	Long: `List the mods and collections of a profile (the active one by default).

Examples:
  pmm mod list
  pmm mod list --profile Farm2
  pmm mod list --common`,
	RunE: runModList,
}

var modEnableCmd = &cobra.Command{
	Use:   "enable <folder>",
	Short: "Enable a mod or collection",
	Long: `Enable a mod or collection folder by removing its leading dot.

Examples:
  pmm mod enable ContentPatcher
  pmm mod enable ContentPatcher --profile Farm2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error { return runModToggle(cmd, args[0], true) },
}

var modDisableCmd = &cobra.Command{
	Use:   "disable <folder>",
	Short: "Disable a mod or collection",
	Long: `Disable a mod or collection folder by adding a leading dot.

Examples:
  pmm mod disable ContentPatcher
  pmm mod disable SpaceCore --common`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error { return runModToggle(cmd, args[0], false) },
}

func init() {
	for _, c := range []*cobra.Command{modListCmd, modEnableCmd, modDisableCmd} {
		c.Flags().StringVarP(&modProfile, "profile", "p", "", "profile to operate on (default: active profile)")
		c.Flags().BoolVar(&modCommon, "common", false, "operate on common mods instead of a profile")
		c.MarkFlagsMutuallyExclusive("profile", "common")
	}

	modCmd.AddCommand(modListCmd)
	modCmd.AddCommand(modEnableCmd)
	modCmd.AddCommand(modDisableCmd)

	rootCmd.AddCommand(modCmd)
}

type modJSON struct {
	Folder   string `json:"folder"`
	Name     string `json:"name"`
	UniqueID string `json:"unique_id"`
	Version  string `json:"version"`
	Enabled  bool   `json:"enabled"`
	Shared   bool   `json:"shared"`
}

type collectionJSON struct {
	Folder  string    `json:"folder"`
	Enabled bool      `json:"enabled"`
	Shared  bool      `json:"shared"`
	Mods    []modJSON `json:"mods"`
}

type modListJSON struct {
	Profile     string           `json:"profile,omitempty"`
	Mods        []modJSON        `json:"mods"`
	Collections []collectionJSON `json:"collections"`
}

func toModJSON(m domain.ModFolder) modJSON {
	return modJSON{
		Folder:   m.FolderName,
		Name:     m.Manifest.Name,
		UniqueID: m.Manifest.UniqueID,
		Version:  m.Manifest.Version,
		Enabled:  m.Enabled,
		Shared:   m.Shared,
	}
}

// modTarget resolves the --profile/--common flags to a profile name, empty for common mods
func modTarget(svc *core.Service) (string, error) {
	if modCommon {
		return "", nil
	}
	return activeOr(svc, modProfile)
}

func runModList(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	profile, err := modTarget(svc)
	if err != nil {
		return err
	}
	list, err := svc.ListMods(profile)
	if err != nil {
		return fmt.Errorf("listing mods: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		result := modListJSON{Profile: profile, Mods: []modJSON{}, Collections: []collectionJSON{}}
		for _, m := range list.Mods {
			result.Mods = append(result.Mods, toModJSON(m))
		}
		for _, c := range list.Collections {
			cj := collectionJSON{Folder: c.FolderName, Enabled: c.Enabled, Shared: c.Shared, Mods: []modJSON{}}
			for _, m := range c.SubMods {
				cj.Mods = append(cj.Mods, toModJSON(m))
			}
			result.Collections = append(result.Collections, cj)
		}
		return printJSON(out, result)
	}

	title := "Common mods"
	if profile != "" {
		title = "Profile: " + profile
	}
	fmt.Fprintln(out, header(title))

	if len(list.Mods) == 0 && len(list.Collections) == 0 {
		fmt.Fprintln(out, "No mods found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tNAME\tVERSION\tENABLED\tSHARED")
	fmt.Fprintln(w, "------\t----\t-------\t-------\t------")
	for _, m := range list.Mods {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.FolderName, m.Manifest.Name, m.Manifest.Version, yesNo(m.Enabled), yesNo(m.Shared))
	}
	for _, c := range list.Collections {
		fmt.Fprintf(w, "%s/\t%s\t\t%s\t%s\n", c.FolderName, colorDim(fmt.Sprintf("collection, %d mod(s)", len(c.SubMods))), yesNo(c.Enabled), yesNo(c.Shared))
		for _, m := range c.SubMods {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t\n", m.FolderName, m.Manifest.Name, m.Manifest.Version, yesNo(m.Enabled))
		}
	}
	return w.Flush()
}

func runModToggle(cmd *cobra.Command, folder string, enabled bool) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	profile, err := modTarget(svc)
	if err != nil {
		return err
	}
	if err := svc.SetModEnabled(profile, folder, enabled); err != nil {
		return err
	}

	state := "Disabled"
	if enabled {
		state = "Enabled"
	}
	where := "common mods"
	if profile != "" {
		where = profile
	}
	check(cmd.OutOrStdout(), "%s %s (%s)", state, folder, where)
	return nil
}
