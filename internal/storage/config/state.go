package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
)

// StateFile is the registry document inside the data directory.
const StateFile = "state.yaml"

// StateConfig is the YAML representation of the registry
type StateConfig struct {
	Profiles           []string                          `yaml:"profiles"`
	ActiveProfile      string                            `yaml:"active_profile,omitempty"`
	VanillaProfiles    []string                          `yaml:"vanilla_profiles,omitempty"`
	ProfileCollections map[string][]string               `yaml:"profile_collections,omitempty"`
	CommonCollections  []string                          `yaml:"common_collections,omitempty"`
	SharedMods         map[string]SharedModConfig        `yaml:"shared_mods,omitempty"`
	SharedCollections  map[string]SharedCollectionConfig `yaml:"shared_collections,omitempty"`
	SavedCommonEnabled []string                          `yaml:"saved_common_enabled,omitempty"`
}

// SharedModConfig is the YAML representation of a shared mod
type SharedModConfig struct {
	UniqueID string   `yaml:"unique_id"`
	Version  string   `yaml:"version,omitempty"`
	Profiles []string `yaml:"profiles"`
}

// SharedCollectionConfig is the YAML representation of a shared collection
type SharedCollectionConfig struct {
	Profiles    []string           `yaml:"profiles"`
	Fingerprint domain.Fingerprint `yaml:"fingerprint"`
}

// LoadState reads the registry from dataDir. A missing file yields an empty registry.
func LoadState(dataDir string) (*domain.Registry, error) {
	reg := domain.NewRegistry()

	data, err := os.ReadFile(filepath.Join(dataDir, StateFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return reg, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var cfg StateConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}

	reg.Profiles = cfg.Profiles
	reg.ActiveProfile = cfg.ActiveProfile
	reg.VanillaProfiles = cfg.VanillaProfiles
	reg.CommonCollections = cfg.CommonCollections
	reg.SavedCommonEnabled = cfg.SavedCommonEnabled
	for name, cols := range cfg.ProfileCollections {
		reg.ProfileCollections[name] = cols
	}
	for name, m := range cfg.SharedMods {
		reg.SharedMods[name] = &domain.SharedMod{
			FolderName: name,
			UniqueID:   m.UniqueID,
			Version:    m.Version,
			Profiles:   m.Profiles,
		}
	}
	for name, c := range cfg.SharedCollections {
		reg.SharedCollections[name] = &domain.SharedCollection{
			FolderName:  name,
			Profiles:    c.Profiles,
			Fingerprint: c.Fingerprint,
		}
	}

	return reg, nil
}

// SaveState writes the registry to dataDir, replacing the previous document atomically
func SaveState(dataDir string, reg *domain.Registry) error {
	cfg := StateConfig{
		Profiles:           reg.Profiles,
		ActiveProfile:      reg.ActiveProfile,
		VanillaProfiles:    reg.VanillaProfiles,
		ProfileCollections: reg.ProfileCollections,
		CommonCollections:  reg.CommonCollections,
		SavedCommonEnabled: reg.SavedCommonEnabled,
		SharedMods:         make(map[string]SharedModConfig, len(reg.SharedMods)),
		SharedCollections:  make(map[string]SharedCollectionConfig, len(reg.SharedCollections)),
	}
	for name, m := range reg.SharedMods {
		cfg.SharedMods[name] = SharedModConfig{UniqueID: m.UniqueID, Version: m.Version, Profiles: m.Profiles}
	}
	for name, c := range reg.SharedCollections {
		cfg.SharedCollections[name] = SharedCollectionConfig{Profiles: c.Profiles, Fingerprint: c.Fingerprint}
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, StateFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing state: %w", err)
	}

	return nil
}
