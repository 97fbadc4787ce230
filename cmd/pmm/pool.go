package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/profile-mod-manager/internal/core"
)

var poolVerifyFix bool

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Inspect and maintain the shared pool",
}

var poolVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check shared entries and profile folders",
	Long: `Check that every shared entry has its pool folder and a working link in each
profile, that shared collections still match their fingerprint, and that every
profile's folders are in the expected form.

With --fix, broken shared entries are repaired (or removed when their pool folder is
gone) and profile folders left behind by an interrupted operation are fixed.

Examples:
  pmm pool verify
  pmm pool verify --fix`,
	RunE: runPoolVerify,
}

var poolDuplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Find mods and collections that could be shared",
	Long: `List mods that exist as separate copies in several profiles, grouped by unique ID,
and collections owned by several profiles with their differences. Nothing is changed.

Examples:
  pmm pool duplicates`,
	RunE: runPoolDuplicates,
}

var poolPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove unreferenced pool folders and snapshots",
	RunE:  runPoolPrune,
}

func init() {
	poolVerifyCmd.Flags().BoolVar(&poolVerifyFix, "fix", false, "repair what can be repaired")

	poolCmd.AddCommand(poolVerifyCmd)
	poolCmd.AddCommand(poolDuplicatesCmd)
	poolCmd.AddCommand(poolPruneCmd)

	rootCmd.AddCommand(poolCmd)
}

type brokenJSON struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Reasons []string `json:"reasons"`
}

type driftJSON struct {
	Name        string   `json:"name"`
	Differences []string `json:"differences"`
}

type issueJSON struct {
	Profile string `json:"profile"`
	Issue   string `json:"issue"`
}

type reportJSON struct {
	Clean  bool         `json:"clean"`
	Broken []brokenJSON `json:"broken"`
	Drift  []driftJSON  `json:"drift"`
	Issues []issueJSON  `json:"issues"`
}

func toReportJSON(r *core.Report) reportJSON {
	out := reportJSON{Clean: r.Clean(), Broken: []brokenJSON{}, Drift: []driftJSON{}, Issues: []issueJSON{}}
	for _, b := range r.Broken {
		out.Broken = append(out.Broken, brokenJSON{Name: b.Name, Kind: b.Kind.String(), Reasons: b.Reasons})
	}
	for _, d := range r.Drift {
		dj := driftJSON{Name: d.Name}
		for _, diff := range d.Differences {
			dj.Differences = append(dj.Differences, diff.String())
		}
		out.Drift = append(out.Drift, dj)
	}
	for _, i := range r.Issues {
		out.Issues = append(out.Issues, issueJSON{Profile: i.Profile, Issue: string(i.Kind)})
	}
	return out
}

func printReport(w io.Writer, r *core.Report) {
	if r.Clean() {
		fmt.Fprintf(w, "%s Shared pool and profile folders are consistent.\n", colorGreen("✓"))
		return
	}
	for _, b := range r.Broken {
		fmt.Fprintf(w, "%s %s %s\n", colorRed("✗"), b.Kind, b.Name)
		for _, reason := range b.Reasons {
			fmt.Fprintf(w, "    %s\n", reason)
		}
	}
	for _, d := range r.Drift {
		fmt.Fprintf(w, "%s collection %s changed since it was shared\n", colorYellow("!"), d.Name)
		for _, diff := range d.Differences {
			fmt.Fprintf(w, "    %s\n", diff)
		}
	}
	for _, i := range r.Issues {
		fmt.Fprintf(w, "%s profile %s: %s\n", colorRed("✗"), i.Profile, i.Kind)
	}
}

func runPoolVerify(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	var report *core.Report
	if poolVerifyFix {
		if report, err = svc.Repair(); err != nil {
			return fmt.Errorf("repairing: %w", err)
		}
	} else {
		report = svc.Verify()
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, toReportJSON(report)); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}

	if !report.Clean() {
		if !poolVerifyFix && !jsonOutput {
			fmt.Fprintln(out, "\nRun 'pmm pool verify --fix' to repair.")
		}
		return fmt.Errorf("%d problem(s) found", len(report.Broken)+len(report.Drift)+len(report.Issues))
	}
	return nil
}

type duplicateModJSON struct {
	UniqueID  string            `json:"unique_id"`
	Name      string            `json:"name"`
	Instances []modInstanceJSON `json:"instances"`
}

type modInstanceJSON struct {
	Profile string `json:"profile"`
	Folder  string `json:"folder"`
	Version string `json:"version"`
}

type duplicateCollectionJSON struct {
	Name       string                   `json:"name"`
	Mismatched bool                     `json:"mismatched"`
	Instances  []collectionInstanceJSON `json:"instances"`
}

type collectionInstanceJSON struct {
	Profile     string   `json:"profile"`
	Differences []string `json:"differences"`
}

func runPoolDuplicates(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	mods, cols := svc.Duplicates()
	out := cmd.OutOrStdout()

	if jsonOutput {
		result := struct {
			Mods        []duplicateModJSON        `json:"mods"`
			Collections []duplicateCollectionJSON `json:"collections"`
		}{Mods: []duplicateModJSON{}, Collections: []duplicateCollectionJSON{}}
		for _, d := range mods {
			dj := duplicateModJSON{UniqueID: d.UniqueID, Name: d.Name}
			for _, i := range d.Instances {
				dj.Instances = append(dj.Instances, modInstanceJSON{Profile: i.Profile, Folder: i.FolderName, Version: i.Version})
			}
			result.Mods = append(result.Mods, dj)
		}
		for _, d := range cols {
			dj := duplicateCollectionJSON{Name: d.Name, Mismatched: d.Mismatched}
			for _, i := range d.Instances {
				ij := collectionInstanceJSON{Profile: i.Profile, Differences: []string{}}
				for _, diff := range i.Differences {
					ij.Differences = append(ij.Differences, diff.String())
				}
				dj.Instances = append(dj.Instances, ij)
			}
			result.Collections = append(result.Collections, dj)
		}
		return printJSON(out, result)
	}

	if len(mods) == 0 && len(cols) == 0 {
		fmt.Fprintln(out, "No duplicates found.")
		return nil
	}

	if len(mods) > 0 {
		fmt.Fprintln(out, header("Mods"))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "UNIQUE ID\tPROFILE\tFOLDER\tVERSION")
		fmt.Fprintln(w, "---------\t-------\t------\t-------")
		for _, d := range mods {
			for i, inst := range d.Instances {
				id := d.UniqueID
				if i > 0 {
					id = ""
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, inst.Profile, inst.FolderName, inst.Version)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(cols) > 0 {
		if len(mods) > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, header("Collections"))
		for _, d := range cols {
			marker := colorGreen("identical")
			if d.Mismatched {
				marker = colorYellow("differs")
			}
			fmt.Fprintf(out, "%s (%s)\n", d.Name, marker)
			for _, inst := range d.Instances {
				fmt.Fprintf(out, "  %s\n", inst.Profile)
				for _, diff := range inst.Differences {
					fmt.Fprintf(out, "    %s\n", diff)
				}
			}
		}
	}
	return nil
}

func runPoolPrune(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	removed, err := svc.Prune()
	if err != nil {
		return fmt.Errorf("pruning: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if removed == nil {
			removed = []string{}
		}
		return printJSON(out, map[string][]string{"removed": removed})
	}
	if len(removed) == 0 {
		fmt.Fprintln(out, "Nothing to prune.")
		return nil
	}
	for _, name := range removed {
		check(out, "Removed %s", name)
	}
	return nil
}
