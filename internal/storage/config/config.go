package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/linker"
)

// AppName names the XDG subdirectories.
const AppName = "pmm"

// Config holds global application settings
type Config struct {
	ModsPath     string `yaml:"mods_path" env:"PMM_MODS_PATH"`
	SavesPath    string `yaml:"saves_path" env:"PMM_SAVES_PATH"`
	LinkMethod   string `yaml:"link_method" env:"PMM_LINK_METHOD"`
	SettingsFile string `yaml:"settings_file,omitempty"`
	LogFile      string `yaml:"log_file,omitempty" env:"PMM_LOG_FILE"`
	HookTimeout  int    `yaml:"hook_timeout,omitempty"` // Seconds; 0 means the default
	HistorySize  int    `yaml:"history_size,omitempty"` // Activity entries kept; 0 means the default
	Hooks        Hooks  `yaml:"hooks,omitempty"`
}

// Hooks names scripts run around a profile switch
type Hooks struct {
	BeforeSwitch string `yaml:"before_switch,omitempty"` // A failure aborts the switch
	AfterSwitch  string `yaml:"after_switch,omitempty"`
}

// DefaultConfigDir is $XDG_CONFIG_HOME/pmm
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDataDir is $XDG_DATA_HOME/pmm
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultLogFile is $XDG_STATE_HOME/pmm/pmm.log
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, AppName, AppName+".log")
}

// Load reads configuration from the given directory, then applies environment overrides
func Load(configDir string) (*Config, error) {
	cfg := &Config{
		LinkMethod:   string(linker.MethodSymlink),
		SettingsFile: domain.SettingsFile,
		LogFile:      DefaultLogFile(),
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := linker.ParseMethod(cfg.LinkMethod); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = domain.SettingsFile
	}
	cfg.ModsPath = ExpandHome(cfg.ModsPath)
	cfg.SavesPath = ExpandHome(cfg.SavesPath)
	cfg.LogFile = ExpandHome(cfg.LogFile)
	cfg.Hooks.BeforeSwitch = ExpandHome(cfg.Hooks.BeforeSwitch)
	cfg.Hooks.AfterSwitch = ExpandHome(cfg.Hooks.AfterSwitch)

	return cfg, nil
}

// DefaultHistorySize is the number of activity entries kept when history_size is unset.
const DefaultHistorySize = 1000

// Retention returns how many activity entries to keep
func (c *Config) Retention() int {
	if c.HistorySize > 0 {
		return c.HistorySize
	}
	return DefaultHistorySize
}

// Method returns the configured link method
func (c *Config) Method() linker.Method {
	m, err := linker.ParseMethod(c.LinkMethod)
	if err != nil {
		return linker.MethodSymlink
	}
	return m
}

// Roots validates and returns the mods and saves roots
func (c *Config) Roots() (mods, saves string, err error) {
	if mods, err = ResolveRoot(c.ModsPath, "mods_path"); err != nil {
		return "", "", err
	}
	if saves, err = ResolveRoot(c.SavesPath, "saves_path"); err != nil {
		return "", "", err
	}
	return mods, saves, nil
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
