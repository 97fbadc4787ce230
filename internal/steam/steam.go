// Package steam finds installed games in local Steam libraries so the mods and saves
// folders can be configured without typing paths.
package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

// StardewValleyAppID is the default game.
const StardewValleyAppID = "413150"

// ErrNotInstalled is returned when no Steam library holds the requested game.
var ErrNotInstalled = errors.New("game not found in any Steam library")

// Game is an installed game with the folders pmm manages.
type Game struct {
	AppID       string
	Name        string
	InstallPath string
	ModsPath    string
	SavesPath   string // Folder that holds the game's Saves directory
}

// Locator searches Steam roots for installed games.
type Locator struct {
	Roots      []string // Steam installation roots in search order
	ConfigHome string   // Base for GameInfo.SavesDir
	Games      map[string]GameInfo
}

// NewLocator returns a Locator over the default Steam roots and known games.
func NewLocator(configDir string) (*Locator, error) {
	games, err := LoadKnownGames(configDir)
	if err != nil {
		return nil, err
	}
	return &Locator{Roots: FindSteamRoots(), ConfigHome: xdg.ConfigHome, Games: games}, nil
}

// FindSteamRoots returns existing Steam installation roots in search order. STEAM_ROOT,
// when set, is searched first.
func FindSteamRoots() []string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		os.Getenv("STEAM_ROOT"),
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
	}

	var roots []string
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			continue
		}
		// ~/.steam/steam is usually a link to ~/.local/share/Steam
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			p = resolved
		}
		if !slices.Contains(roots, p) {
			roots = append(roots, p)
		}
	}
	return roots
}

// LibraryPaths returns the Steam library folders listed in a root's libraryfolders.vdf,
// or the root itself when the file is absent or lists nothing.
func LibraryPaths(steamRoot string) ([]string, error) {
	vdfPath := filepath.Join(steamRoot, "steamapps", "libraryfolders.vdf")
	f, err := os.Open(vdfPath)
	if errors.Is(err, os.ErrNotExist) {
		return []string{steamRoot}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading libraryfolders: %w", err)
	}
	defer f.Close()

	root, err := ParseVDF(f)
	if err != nil {
		return nil, fmt.Errorf("parsing libraryfolders: %w", err)
	}
	paths := libraryPaths(root)
	if len(paths) == 0 {
		return []string{steamRoot}, nil
	}
	return paths, nil
}

// libraryPaths reads libraryfolders -> "0", "1", ... -> path, in numeric key order.
// Gaps in the numbering are tolerated.
func libraryPaths(root KeyValues) []string {
	lf, ok := root.Block("libraryfolders")
	if !ok {
		return nil
	}

	type entry struct {
		index int
		path  string
	}
	var entries []entry
	for key := range lf {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		folder, ok := lf.Block(key)
		if !ok {
			continue
		}
		if p, ok := folder.String("path"); ok && p != "" {
			entries = append(entries, entry{n, p})
		}
	}
	slices.SortFunc(entries, func(a, b entry) int { return a.index - b.index })

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.path)
	}
	return paths
}

// AppManifest holds the fields pmm reads from an appmanifest_<id>.acf file.
type AppManifest struct {
	AppID      string
	Name       string
	InstallDir string
}

// ParseAppManifest parses appmanifest_*.acf content.
func ParseAppManifest(data string) (AppManifest, error) {
	root, err := ParseVDF(strings.NewReader(data))
	if err != nil {
		return AppManifest{}, err
	}
	state, ok := root.Block("AppState")
	if !ok {
		return AppManifest{}, fmt.Errorf("%w: missing AppState", ErrMalformedVDF)
	}
	var m AppManifest
	m.AppID, _ = state.String("appid")
	m.Name, _ = state.String("name")
	m.InstallDir, _ = state.String("installdir")
	return m, nil
}

// Locate finds the install of appID in the first library that has it.
func (l *Locator) Locate(appID string) (*Game, error) {
	info, ok := l.Games[appID]
	if !ok {
		return nil, fmt.Errorf("unknown Steam app %s", appID)
	}

	for _, root := range l.Roots {
		libraries, err := LibraryPaths(root)
		if err != nil {
			continue
		}
		for _, lib := range libraries {
			data, err := os.ReadFile(filepath.Join(lib, "steamapps", "appmanifest_"+appID+".acf"))
			if err != nil {
				continue
			}
			manifest, err := ParseAppManifest(string(data))
			if err != nil || manifest.InstallDir == "" {
				continue
			}
			install := filepath.Join(lib, "steamapps", "common", manifest.InstallDir)
			if st, err := os.Stat(install); err != nil || !st.IsDir() {
				continue
			}

			game := &Game{
				AppID:       appID,
				Name:        info.Name,
				InstallPath: install,
				ModsPath:    install,
			}
			if info.ModsDir != "" {
				game.ModsPath = filepath.Join(install, info.ModsDir)
			}
			if info.SavesDir != "" {
				game.SavesPath = filepath.Join(l.ConfigHome, info.SavesDir)
			}
			return game, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", info.Name, ErrNotInstalled)
}
