package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/linker"
	"github.com/DonovanMods/profile-mod-manager/internal/logging"
	"github.com/DonovanMods/profile-mod-manager/internal/naming"
	"github.com/DonovanMods/profile-mod-manager/internal/storage/config"
	"github.com/DonovanMods/profile-mod-manager/internal/storage/db"
)

// VanillaProfile is created by Bootstrap as the first, mod-free profile.
const VanillaProfile = "Vanilla"

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir string         // Directory for configuration files
	DataDir   string         // Directory for the registry document and activity log
	Config    *config.Config // Loaded from ConfigDir when nil
}

// Service is the main orchestrator. Each top-level operation works on the
// in-memory registry and saves it afterward, whether or not the operation succeeded.
type Service struct {
	config   *config.Config
	db       *db.DB
	reg      *domain.Registry
	profiles *ProfileManager
	pool     *SharedPool
	hooks    *HookRunner
	log      zerolog.Logger

	dataDir string
}

// NewService creates a new core service instance
func NewService(cfg ServiceConfig) (*Service, error) {
	appConfig := cfg.Config
	if appConfig == nil {
		var err error
		if appConfig, err = config.Load(cfg.ConfigDir); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	modsRoot, savesRoot, err := appConfig.Roots()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	reg, err := config.LoadState(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "pmm.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	layout := NewLayout(modsRoot, savesRoot, appConfig.SettingsFile)
	profiles := NewProfileManager(layout, logging.Get("profiles"))
	pool := NewSharedPool(profiles, linker.New(appConfig.Method()), logging.Get("pool"))

	return &Service{
		config:   appConfig,
		db:       database,
		reg:      reg,
		profiles: profiles,
		pool:     pool,
		hooks:    NewHookRunner(time.Duration(appConfig.HookTimeout) * time.Second),
		log:      logging.Get("service"),
		dataDir:  cfg.DataDir,
	}, nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Registry returns the live registry. Callers must not modify it.
func (s *Service) Registry() *domain.Registry {
	return s.reg
}

// Layout returns the resolved on-disk locations
func (s *Service) Layout() Layout {
	return s.profiles.Layout()
}

// LinkMethod returns the directory link method in use
func (s *Service) LinkMethod() linker.Method {
	return s.pool.Linker().Method()
}

// History returns the most recent recorded operations
func (s *Service) History(limit int) ([]db.Activity, error) {
	return s.db.Recent(limit)
}

// run executes a mutating operation, then saves the registry and records the outcome.
func (s *Service) run(action, subject string, profiles []string, fn func() error) error {
	done := logging.OperationTimer(s.log, action)
	defer done()

	start := time.Now()
	err := fn()
	if saveErr := config.SaveState(s.dataDir, s.reg); saveErr != nil {
		err = errors.Join(err, saveErr)
	}

	entry := &db.Activity{
		Action:   action,
		Subject:  subject,
		Profiles: profiles,
		Outcome:  db.OutcomeOK,
		Duration: time.Since(start),
	}
	if err != nil {
		entry.Outcome = db.OutcomeFailed
		entry.Detail = err.Error()
	}
	bestEffort(s.log, "record activity", action, func() error {
		if err := s.db.Record(entry); err != nil {
			return err
		}
		_, err := s.db.Trim(s.config.Retention())
		return err
	})

	if err != nil {
		s.log.Error().Err(err).Str("action", action).Str("subject", subject).Msg("Operation failed")
	}
	return err
}

func (s *Service) requireProfile(op, name string) (string, error) {
	registered, ok := s.reg.ProfileName(name)
	if !ok {
		return "", errProfileNotFound(op, name)
	}
	return registered, nil
}

// ListProfiles returns every registered profile in registry order
func (s *Service) ListProfiles() []domain.Profile {
	out := make([]domain.Profile, 0, len(s.reg.Profiles))
	for _, name := range s.reg.Profiles {
		p, _ := s.reg.Profile(name)
		out = append(out, p)
	}
	return out
}

// ProfileState reports the directory state of a profile
func (s *Service) ProfileState(name string) domain.ProfileState {
	return s.profiles.State(name)
}

// ProfileHasSaves reports whether the profile's saves directory exists in the form its state expects
func (s *Service) ProfileHasSaves(name string) bool {
	return s.profiles.HasSaves(name, s.reg.IsActive(name))
}

// CreateProfile allocates and registers a new profile. The first profile becomes active.
func (s *Service) CreateProfile(name string) error {
	return s.run("create", name, []string{name}, func() error {
		if err := validateProfileName(name); err != nil {
			return err
		}
		if s.reg.HasProfile(name) {
			return domain.NewError(domain.KindConflict, "create profile", fmt.Sprintf("profile %q already exists", name))
		}
		if err := s.profiles.Create(name); err != nil {
			return err
		}
		s.reg.Profiles = append(s.reg.Profiles, name)

		if s.reg.ActiveProfile == "" {
			return s.activate(false, name)
		}
		return nil
	})
}

// DeleteProfile deactivates the profile if active, detaches it from the shared pool,
// removes its directories and activates the first remaining profile in its place.
func (s *Service) DeleteProfile(name string) error {
	return s.run("delete", name, []string{name}, func() error {
		registered, err := s.requireProfile("delete profile", name)
		if err != nil {
			return err
		}

		wasActive := s.reg.IsActive(registered)
		wasVanilla := s.reg.IsVanilla(registered)
		if wasActive {
			if err := s.profiles.Deactivate(registered); err != nil {
				return err
			}
			s.reg.ActiveProfile = ""
		}
		if err := s.pool.CleanupProfile(s.reg, registered); err != nil {
			return err
		}
		if err := s.profiles.Delete(registered); err != nil {
			return err
		}
		s.reg.ForgetProfile(registered)

		if wasActive && len(s.reg.Profiles) > 0 {
			return s.activate(wasVanilla, s.reg.Profiles[0])
		}
		return nil
	})
}

// RenameProfile renames a profile's directories, snapshots and registry references
func (s *Service) RenameProfile(oldName, newName string) error {
	return s.run("rename", oldName, []string{oldName, newName}, func() error {
		registered, err := s.requireProfile("rename profile", oldName)
		if err != nil {
			return err
		}
		if err := validateProfileName(newName); err != nil {
			return err
		}
		if !domain.SameName(registered, newName) && s.reg.HasProfile(newName) {
			return domain.NewError(domain.KindConflict, "rename profile", fmt.Sprintf("profile %q already exists", newName))
		}
		if err := s.profiles.Rename(registered, newName); err != nil {
			return err
		}
		return s.pool.RenameProfile(s.reg, registered, newName)
	})
}

// SwitchProfile makes name the active profile. A failing before_switch hook
// aborts the switch; an after_switch failure is only logged.
func (s *Service) SwitchProfile(ctx context.Context, name string) error {
	from := s.reg.ActiveProfile
	var switched bool
	err := s.run("switch", name, []string{from, name}, func() error {
		to, err := s.requireProfile("switch profile", name)
		if err != nil {
			return err
		}
		if s.reg.IsActive(to) {
			return nil
		}
		if err := s.runHook(ctx, HookBeforeSwitch, s.config.Hooks.BeforeSwitch, from, to); err != nil {
			return err
		}
		if from != "" && !s.reg.IsVanilla(from) {
			if err := s.pool.SaveSnapshots(s.reg, from); err != nil {
				return err
			}
		}
		if from != "" {
			if err := s.profiles.Deactivate(from); err != nil {
				return err
			}
			s.reg.ActiveProfile = ""
		}
		if err := s.activate(s.reg.IsVanilla(from), to); err != nil {
			return err
		}
		switched = true
		return nil
	})
	if err == nil && switched {
		if hookErr := s.runHook(ctx, HookAfterSwitch, s.config.Hooks.AfterSwitch, from, s.reg.ActiveProfile); hookErr != nil {
			s.log.Warn().Err(hookErr).Msg("after_switch hook failed")
		}
	}
	return err
}

func (s *Service) runHook(ctx context.Context, hook, script, from, to string) error {
	if script == "" {
		return nil
	}
	l := s.profiles.Layout()
	result, err := s.hooks.Run(ctx, script, HookContext{
		From:      from,
		To:        to,
		ModsPath:  l.ModsRoot,
		SavesPath: l.SavesRoot,
		HookName:  hook,
	})
	if result != nil && result.Stdout != "" {
		s.log.Debug().Str("hook", hook).Str("stdout", result.Stdout).Msg("Hook output")
	}
	if err != nil {
		return domain.WrapError(domain.KindValidation, hook, script, err)
	}
	return nil
}

// activate brings to into active form, restores its snapshots and applies the
// vanilla transition from the previously active profile.
func (s *Service) activate(fromVanilla bool, to string) error {
	if err := s.profiles.Activate(to); err != nil {
		return err
	}
	s.reg.ActiveProfile = to

	toVanilla := s.reg.IsVanilla(to)
	if !toVanilla {
		if err := s.pool.RestoreSnapshots(s.reg, to); err != nil {
			return err
		}
	}

	switch {
	case toVanilla && !fromVanilla:
		return s.disableCommonMods()
	case fromVanilla && !toVanilla:
		return s.restoreCommonMods()
	}
	return nil
}

// SetVanilla flags a profile as loading no mods. When the profile is active the
// common mods are disabled or restored immediately.
func (s *Service) SetVanilla(name string, vanilla bool) error {
	return s.run("vanilla", name, []string{name}, func() error {
		registered, err := s.requireProfile("set vanilla", name)
		if err != nil {
			return err
		}
		if s.reg.IsVanilla(registered) == vanilla {
			return nil
		}
		if vanilla {
			s.reg.VanillaProfiles = append(s.reg.VanillaProfiles, registered)
		} else {
			s.reg.VanillaProfiles = domain.RemoveName(s.reg.VanillaProfiles, registered)
		}

		if !s.reg.IsActive(registered) {
			return nil
		}
		if vanilla {
			return s.disableCommonMods()
		}
		return s.restoreCommonMods()
	})
}

// disableCommonMods disables every enabled common mod and collection and remembers them.
func (s *Service) disableCommonMods() error {
	list, err := s.pool.ListCommonMods(s.reg)
	if err != nil {
		return err
	}

	var paths []string
	for _, m := range list.Mods {
		if m.Enabled {
			paths = append(paths, m.Path)
		}
	}
	for _, c := range list.Collections {
		if c.Enabled {
			paths = append(paths, c.Path)
		}
	}

	for _, p := range paths {
		if _, err := SetEnabled(p, false); err != nil {
			return err
		}
		s.reg.SavedCommonEnabled = append(s.reg.SavedCommonEnabled, filepath.Base(p))
	}
	return nil
}

// restoreCommonMods re-enables the common mods disabled on entering a vanilla profile.
func (s *Service) restoreCommonMods() error {
	root := s.profiles.Layout().ModsRoot
	saved := s.reg.SavedCommonEnabled
	for i, name := range saved {
		path, ok := FindFolder(root, name)
		if !ok {
			s.log.Warn().Str("mod", name).Msg("Common mod disappeared while a vanilla profile was active")
			continue
		}
		if _, err := SetEnabled(path, true); err != nil {
			s.reg.SavedCommonEnabled = saved[i:]
			return err
		}
	}
	s.reg.SavedCommonEnabled = nil
	return nil
}

// ListMods returns the mods of a profile, or of the common root when profile is empty
func (s *Service) ListMods(profile string) (*ModList, error) {
	if profile == "" {
		return s.pool.ListCommonMods(s.reg)
	}
	registered, err := s.requireProfile("list mods", profile)
	if err != nil {
		return nil, err
	}
	return s.pool.ListProfileMods(s.reg, registered)
}

// SetModEnabled enables or disables a mod or collection folder inside a profile,
// or at the common root when profile is empty.
func (s *Service) SetModEnabled(profile, folder string, enabled bool) error {
	action := "disable"
	if enabled {
		action = "enable"
	}
	return s.run(action, folder, nonEmpty(profile), func() error {
		dir := s.profiles.Layout().ModsRoot
		if profile != "" {
			registered, err := s.requireProfile(action+" mod", profile)
			if err != nil {
				return err
			}
			var ok bool
			if dir, ok = s.profiles.ModDir(registered); !ok {
				return errProfileNotFound(action+" mod", registered)
			}
		}
		path, ok := FindFolder(dir, folder)
		if !ok {
			return domain.NewError(domain.KindNotFound, action+" mod", fmt.Sprintf("no folder named %q", folder))
		}
		_, err := SetEnabled(path, enabled)
		return err
	})
}

// ShareMod shares a mod folder between the target profiles
func (s *Service) ShareMod(folder string, targets []string) error {
	return s.run("share-mod", folder, targets, func() error {
		return s.pool.ShareMod(s.reg, folder, targets)
	})
}

// ShareCollection shares a collection folder between the target profiles
func (s *Service) ShareCollection(folder string, targets []string) error {
	return s.run("share-collection", folder, targets, func() error {
		return s.pool.ShareCollection(s.reg, folder, targets)
	})
}

// Unshare gives one profile an independent copy of a shared entry
func (s *Service) Unshare(name, profile string) error {
	return s.run("unshare", name, []string{profile}, func() error {
		return s.pool.Unshare(s.reg, name, profile)
	})
}

// UnshareAll dissolves a shared entry completely
func (s *Service) UnshareAll(name string) error {
	return s.run("unshare-all", name, nil, func() error {
		return s.pool.UnshareAll(s.reg, name)
	})
}

// Report summarizes the consistency of the pool and the profile directories.
type Report struct {
	Broken []BrokenEntry
	Drift  []Drift
	Issues []ProfileIssue
}

// Clean reports whether nothing was found.
func (r *Report) Clean() bool {
	return len(r.Broken) == 0 && len(r.Drift) == 0 && len(r.Issues) == 0
}

// Verify checks the pool, shared collection fingerprints and profile directories
func (s *Service) Verify() *Report {
	return &Report{
		Broken: s.pool.ValidatePool(s.reg),
		Drift:  s.pool.ValidateCollections(s.reg),
		Issues: s.profiles.CheckProfiles(s.reg),
	}
}

// Repair repairs every broken shared entry and fixes profile directories,
// then returns what is still wrong.
func (s *Service) Repair() (*Report, error) {
	err := s.run("repair", "", nil, func() error {
		for _, b := range s.pool.ValidatePool(s.reg) {
			if err := s.pool.Repair(s.reg, b.Name); err != nil {
				return fmt.Errorf("repairing %s: %w", b.Name, err)
			}
		}
		_, err := s.profiles.FixProfiles(s.reg)
		return err
	})
	return s.Verify(), err
}

// Prune removes unreferenced pool folders and snapshots
func (s *Service) Prune() ([]string, error) {
	var removed []string
	err := s.run("prune", "", nil, func() error {
		removed = s.pool.Prune(s.reg)
		return nil
	})
	return removed, err
}

// Duplicates reports sharing candidates
func (s *Service) Duplicates() ([]DuplicateMods, []DuplicateCollections) {
	return s.pool.DetectDuplicateMods(s.reg, nil), s.pool.DetectDuplicateCollections(s.reg)
}

// Detect classifies the configured mods and saves roots
func (s *Service) Detect() (*Detection, error) {
	l := s.profiles.Layout()
	return DetectLayout(l.ModsRoot, l.SavesRoot)
}

// Bootstrap registers the profiles found in an unmanaged mods root, migrates their
// folders to the current naming scheme, records their collections and adds a
// Vanilla profile in first position.
func (s *Service) Bootstrap() (*Detection, error) {
	var det *Detection
	err := s.run("init", "", nil, func() error {
		if len(s.reg.Profiles) > 0 {
			return domain.NewError(domain.KindConflict, "init", "profiles are already registered")
		}

		var err error
		if det, err = s.Detect(); err != nil {
			return err
		}

		var names []string
		for _, name := range det.ProfileNames {
			if naming.ValidateName(name, "profile name") != nil {
				s.log.Warn().Str("folder", name).Msg("Skipping folder with an unusable profile name")
				continue
			}
			names = append(names, name)
		}
		if _, err := s.profiles.MigrateLegacy(names); err != nil {
			return err
		}

		if !domain.ContainsName(names, VanillaProfile) {
			if err := s.profiles.Create(VanillaProfile); err != nil {
				return err
			}
			names = slices.Insert(names, 0, VanillaProfile)
		}
		s.reg.Profiles = names
		s.reg.VanillaProfiles = []string{names[domain.IndexName(names, VanillaProfile)]}

		for _, name := range names {
			if s.reg.ActiveProfile == "" && s.profiles.State(name) == domain.StateActive {
				s.reg.ActiveProfile = name
			}
			if dir, ok := s.profiles.ModDir(name); ok {
				cols, err := DetectCollections(dir)
				if err != nil {
					return err
				}
				if len(cols) > 0 {
					s.reg.ProfileCollections[name] = cols
				}
			}
		}

		common, err := DetectCollections(s.profiles.Layout().ModsRoot)
		if err != nil {
			return err
		}
		s.reg.CommonCollections = common

		if s.reg.ActiveProfile == "" {
			return s.activate(false, names[0])
		}
		// Only one adopted folder stays active; the rest move to inactive form.
		unresolved, err := s.profiles.FixProfiles(s.reg)
		if err != nil {
			return err
		}
		for _, issue := range unresolved {
			s.log.Warn().Str("profile", issue.Profile).Str("issue", string(issue.Kind)).Msg("Profile needs manual attention")
		}
		return s.profiles.Activate(s.reg.ActiveProfile)
	})
	return det, err
}

// StartupReport describes what Startup changed or found.
type StartupReport struct {
	Migrated int
	Repaired []string
	Issues   []ProfileIssue
}

// Startup migrates legacy profile folders, repairs broken shared entries and reports
// profile directories left inconsistent by an interrupted operation.
func (s *Service) Startup() (*StartupReport, error) {
	report := &StartupReport{}
	if len(s.reg.Profiles) == 0 {
		return report, nil
	}

	broken := s.pool.ValidatePool(s.reg)
	if len(broken) == 0 {
		migrated, err := s.profiles.MigrateLegacy(s.reg.Profiles)
		report.Migrated = migrated
		report.Issues = s.profiles.CheckProfiles(s.reg)
		return report, err
	}

	err := s.run("startup", "", nil, func() error {
		migrated, err := s.profiles.MigrateLegacy(s.reg.Profiles)
		report.Migrated = migrated
		if err != nil {
			return err
		}
		for _, b := range broken {
			if err := s.pool.Repair(s.reg, b.Name); err != nil {
				return fmt.Errorf("repairing %s: %w", b.Name, err)
			}
			report.Repaired = append(report.Repaired, b.Name)
		}
		return nil
	})
	report.Issues = s.profiles.CheckProfiles(s.reg)
	return report, err
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
