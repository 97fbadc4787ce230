package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/profile-mod-manager/internal/core"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Inspect the mods and saves folders",
	Long: `Classify the configured mods and saves folders: loose mods, dot-prefixed folders,
folders that look like profiles and save folders that match them. Nothing is changed.

Examples:
  pmm detect`,
	RunE: runDetect,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Adopt existing folders as profiles",
	Long: `Register the profile folders found in the mods folder, rename them to the managed
naming scheme and add a Vanilla profile. Collections inside each profile are recorded.

Examples:
  pmm init`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(initCmd)
}

type folderJSON struct {
	Folder         string `json:"folder"`
	LikelyProfile  bool   `json:"likely_profile"`
	LikelyDisabled bool   `json:"likely_disabled"`
	Mods           int    `json:"mods"`
}

type detectionJSON struct {
	Scenario    string       `json:"scenario"`
	Profiles    []string     `json:"profiles"`
	Folders     []folderJSON `json:"folders"`
	SaveFolders []string     `json:"save_folders"`
	LooseMods   bool         `json:"loose_mods"`
}

func toDetectionJSON(d *core.Detection) detectionJSON {
	out := detectionJSON{
		Scenario:    d.Scenario.String(),
		Profiles:    d.ProfileNames,
		Folders:     []folderJSON{},
		SaveFolders: d.SaveFolders,
		LooseMods:   d.LooseModsAtRoot,
	}
	if out.Profiles == nil {
		out.Profiles = []string{}
	}
	if out.SaveFolders == nil {
		out.SaveFolders = []string{}
	}
	seen := map[string]bool{}
	for _, f := range append(append([]core.DetectedFolder{}, d.DotPrefixed...), d.MultiMod...) {
		if seen[f.FolderName] {
			continue
		}
		seen[f.FolderName] = true
		out.Folders = append(out.Folders, folderJSON{
			Folder:         f.FolderName,
			LikelyProfile:  f.LikelyProfile,
			LikelyDisabled: f.LikelyDisabled,
			Mods:           f.SubModCount,
		})
	}
	return out
}

func printDetection(w io.Writer, d *core.Detection) error {
	fmt.Fprintf(w, "Layout: %s\n", header(d.Scenario.String()))
	if d.LooseModsAtRoot {
		fmt.Fprintln(w, "  Loose mods found at the top of the mods folder.")
	}
	if len(d.SaveFolders) > 0 {
		fmt.Fprintf(w, "  %d save folder(s) in the active saves folder.\n", len(d.SaveFolders))
	}

	data := toDetectionJSON(d)
	if len(data.Folders) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOLDER\tMODS\tLOOKS LIKE")
	fmt.Fprintln(tw, "------\t----\t----------")
	for _, f := range data.Folders {
		kind := ""
		switch {
		case f.LikelyProfile:
			kind = "profile"
		case f.LikelyDisabled:
			kind = "disabled mod"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Folder, f.Mods, kind)
	}
	return tw.Flush()
}

func runDetect(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	det, err := svc.Detect()
	if err != nil {
		return fmt.Errorf("detecting layout: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), toDetectionJSON(det))
	}
	return printDetection(cmd.OutOrStdout(), det)
}

func runInit(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	det, err := svc.Bootstrap()
	if err != nil {
		return fmt.Errorf("initializing profiles: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, toDetectionJSON(det))
	}
	if err := printDetection(out, det); err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, p := range svc.ListProfiles() {
		check(out, "Registered profile: %s", p.Name)
	}
	fmt.Fprintf(out, "\nActive profile: %s\n", svc.Registry().ActiveProfile)
	return nil
}
