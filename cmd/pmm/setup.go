package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/profile-mod-manager/internal/linker"
	"github.com/DonovanMods/profile-mod-manager/internal/steam"
	"github.com/DonovanMods/profile-mod-manager/internal/storage/config"
)

var (
	setupModsPath   string
	setupSavesPath  string
	setupLinkMethod string
	setupAppID      string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the mods and saves folders",
	Long: `Write the mods and saves folders to the config file. Folders not given as flags are
taken from the game's Steam install (Stardew Valley unless --app-id says otherwise).
Additional games can be described in steam-games.yaml in the config directory.

Examples:
  pmm setup
  pmm setup --mods ~/Games/Stardew/Mods --saves ~/.config/StardewValley
  pmm setup --link-method marker`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupModsPath, "mods", "", "mods folder")
	setupCmd.Flags().StringVar(&setupSavesPath, "saves", "", "folder holding the game's Saves directory")
	setupCmd.Flags().StringVar(&setupLinkMethod, "link-method", "", "how profiles link to the shared pool (symlink, marker)")
	setupCmd.Flags().StringVar(&setupAppID, "app-id", steam.StardewValleyAppID, "Steam App ID used to find the game")

	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfgDir := getServiceConfig().ConfigDir
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if setupLinkMethod != "" {
		method, err := linker.ParseMethod(setupLinkMethod)
		if err != nil {
			return err
		}
		cfg.LinkMethod = string(method)
	}

	mods, saves := setupModsPath, setupSavesPath
	if mods == "" || saves == "" {
		locator, err := steam.NewLocator(cfgDir)
		if err != nil {
			return fmt.Errorf("loading known games: %w", err)
		}
		game, err := locator.Locate(setupAppID)
		if err != nil {
			if errors.Is(err, steam.ErrNotInstalled) {
				return fmt.Errorf("%w; pass --mods and --saves", err)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found %s in %s\n", game.Name, game.InstallPath)
		if mods == "" {
			mods = game.ModsPath
		}
		if saves == "" {
			saves = game.SavesPath
		}
	}

	if cfg.ModsPath, err = config.ResolveRoot(mods, "mods_path"); err != nil {
		return err
	}
	if cfg.SavesPath, err = config.ResolveRoot(saves, "saves_path"); err != nil {
		return err
	}
	if err := cfg.Save(cfgDir); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	check(out, "Mods folder:  %s", cfg.ModsPath)
	check(out, "Saves folder: %s", cfg.SavesPath)
	check(out, "Link method:  %s", cfg.LinkMethod)
	fmt.Fprintln(out, "\nRun 'pmm detect' to inspect the folders, then 'pmm init' to adopt existing profiles.")
	return nil
}
