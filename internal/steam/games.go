package steam

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed data/games.yaml
var defaultGamesFS embed.FS

const defaultGamesPath = "data/games.yaml"

// OverrideFile is read from the config directory and merged over the embedded list.
const OverrideFile = "steam-games.yaml"

// GameInfo describes where a supported game keeps its mods and saves.
type GameInfo struct {
	Name     string `yaml:"name"`
	ModsDir  string `yaml:"mods_dir"`  // Relative to the install directory
	SavesDir string `yaml:"saves_dir"` // Relative to $XDG_CONFIG_HOME
}

// LoadKnownGames returns the Steam App ID -> GameInfo map: the embedded list, then
// configDir/steam-games.yaml when present.
func LoadKnownGames(configDir string) (map[string]GameInfo, error) {
	data, err := defaultGamesFS.ReadFile(defaultGamesPath)
	if err != nil {
		return nil, fmt.Errorf("reading embedded games: %w", err)
	}
	games := make(map[string]GameInfo)
	if err := yaml.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("parsing embedded games: %w", err)
	}

	overridePath := filepath.Join(configDir, OverrideFile)
	overrideData, err := os.ReadFile(overridePath)
	if errors.Is(err, os.ErrNotExist) {
		return games, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", overridePath, err)
	}
	var override map[string]GameInfo
	if err := yaml.Unmarshal(overrideData, &override); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", overridePath, err)
	}
	for appID, info := range override {
		if info.ModsDir == "" {
			info.ModsDir = games[appID].ModsDir
		}
		if info.SavesDir == "" {
			info.SavesDir = games[appID].SavesDir
		}
		games[appID] = info
	}
	return games, nil
}
