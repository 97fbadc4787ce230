package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
)

var (
	unshareProfile string
	unshareAll     bool
	unshareYes     bool
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Share a mod or collection between profiles",
	Long: `Move one copy of a mod or collection into the shared pool and link it into every
target profile. Each profile keeps its own settings, which are swapped in when it
becomes active.`,
}

var shareModCmd = &cobra.Command{
	Use:   "mod <folder> <profile> <profile>...",
	Short: "Share a mod",
	Long: `Share a mod folder between two or more profiles. The first target profile that
holds a real copy provides the content; other copies are replaced by links.

Examples:
  pmm share mod ContentPatcher Farm1 Farm2`,
	Args: cobra.MinimumNArgs(3),
	RunE: runShareMod,
}

var shareCollectionCmd = &cobra.Command{
	Use:   "collection <folder> <profile> <profile>...",
	Short: "Share a collection",
	Long: `Share a collection folder between two or more profiles. Every existing copy must
hold the same mods at the same versions; otherwise nothing is changed and the
differences are listed.

Examples:
  pmm share collection "Farm Expansion" Farm1 Farm2`,
	Args: cobra.MinimumNArgs(3),
	RunE: runShareCollection,
}

var unshareCmd = &cobra.Command{
	Use:   "unshare <name>",
	Short: "Give profiles independent copies of a shared entry",
	Long: `Replace a profile's link to a shared mod or collection with a real copy carrying
that profile's own settings. When fewer than two profiles remain the entry is dissolved.

Examples:
  pmm unshare ContentPatcher --profile Farm2
  pmm unshare ContentPatcher --all`,
	Args: cobra.ExactArgs(1),
	RunE: runUnshare,
}

func init() {
	unshareCmd.Flags().StringVarP(&unshareProfile, "profile", "p", "", "profile to detach")
	unshareCmd.Flags().BoolVar(&unshareAll, "all", false, "detach every profile and remove the entry")
	unshareCmd.Flags().BoolVarP(&unshareYes, "yes", "y", false, "skip confirmation prompt for --all")
	unshareCmd.MarkFlagsMutuallyExclusive("profile", "all")
	unshareCmd.MarkFlagsOneRequired("profile", "all")

	shareCmd.AddCommand(shareModCmd)
	shareCmd.AddCommand(shareCollectionCmd)

	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(unshareCmd)
}

func runShareMod(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	if err := svc.ShareMod(args[0], args[1:]); err != nil {
		return fmt.Errorf("sharing mod: %w", err)
	}

	check(cmd.OutOrStdout(), "Shared %s with %s", args[0], strings.Join(args[1:], ", "))
	return nil
}

func runShareCollection(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	if err := svc.ShareCollection(args[0], args[1:]); err != nil {
		if errors.Is(err, domain.ErrIdentityMismatch) {
			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "%s %s differs between profiles:\n", colorRed("✗"), args[0])
			for _, d := range domain.DetailsOf(err) {
				fmt.Fprintf(out, "  - %s\n", d)
			}
			return fmt.Errorf("sharing collection: copies of %s do not match", args[0])
		}
		return fmt.Errorf("sharing collection: %w", err)
	}

	check(cmd.OutOrStdout(), "Shared collection %s with %s", args[0], strings.Join(args[1:], ", "))
	return nil
}

func runUnshare(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	name := args[0]
	out := cmd.OutOrStdout()

	if unshareAll {
		if !unshareYes && !confirm(out, fmt.Sprintf("Give every profile its own copy of %s and remove it from the pool?", name)) {
			fmt.Fprintln(out, "Aborted.")
			return ErrCancelled
		}
		if err := svc.UnshareAll(name); err != nil {
			return fmt.Errorf("unsharing: %w", err)
		}
		check(out, "Unshared %s from every profile", name)
		return nil
	}

	if err := svc.Unshare(name, unshareProfile); err != nil {
		return fmt.Errorf("unsharing: %w", err)
	}
	check(out, "%s now has its own copy of %s", unshareProfile, name)
	return nil
}
