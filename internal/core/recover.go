package core

import (
	"github.com/DonovanMods/profile-mod-manager/internal/domain"
)

// IssueKind classifies a profile directory problem found at startup.
type IssueKind string

const (
	IssueMissing       IssueKind = "missing"         // Neither mod directory form exists
	IssueConflicted    IssueKind = "conflicted"      // Both forms exist
	IssueStrayActive   IssueKind = "stray-active"    // Active form but not the registered active profile
	IssueNotActivated  IssueKind = "not-activated"   // Registered active profile is in inactive form
	IssueNoActiveSaves IssueKind = "no-active-saves" // Active profile has no active saves directory
)

// ProfileIssue is one inconsistency between the registry and the profile directories.
type ProfileIssue struct {
	Profile string
	Kind    IssueKind
}

// CheckProfiles compares every registered profile with its directories. An interrupted
// switch can leave a profile in an unexpected form; nothing is modified here.
func (pm *ProfileManager) CheckProfiles(reg *domain.Registry) []ProfileIssue {
	var issues []ProfileIssue
	for _, name := range reg.Profiles {
		state := pm.State(name)
		active := reg.IsActive(name)
		switch {
		case state == domain.StateMissing:
			issues = append(issues, ProfileIssue{name, IssueMissing})
		case state == domain.StateConflicted:
			issues = append(issues, ProfileIssue{name, IssueConflicted})
		case state == domain.StateActive && !active:
			issues = append(issues, ProfileIssue{name, IssueStrayActive})
		case state == domain.StateInactive && active:
			issues = append(issues, ProfileIssue{name, IssueNotActivated})
		}
		if active && !pm.HasSaves(name, true) {
			issues = append(issues, ProfileIssue{name, IssueNoActiveSaves})
		}
	}
	return issues
}

// FixProfiles resolves the issues CheckProfiles can safely fix: missing directories are
// recreated in inactive form, stray active profiles are deactivated and the registered
// active profile is activated. Conflicted profiles need manual attention and are returned.
func (pm *ProfileManager) FixProfiles(reg *domain.Registry) ([]ProfileIssue, error) {
	var unresolved []ProfileIssue
	for _, issue := range pm.CheckProfiles(reg) {
		var err error
		switch issue.Kind {
		case IssueMissing:
			if reg.IsActive(issue.Profile) {
				err = pm.Activate(issue.Profile)
			} else {
				err = makeDir("fix profile", pm.layout.InactiveModsDir(issue.Profile))
			}
		case IssueStrayActive:
			err = move("fix profile", pm.layout.ActiveModsDir(issue.Profile), pm.layout.InactiveModsDir(issue.Profile))
		case IssueNotActivated, IssueNoActiveSaves:
			err = pm.Activate(issue.Profile)
		default:
			unresolved = append(unresolved, issue)
			continue
		}
		if err != nil {
			return unresolved, err
		}
		pm.log.Info().Str("profile", issue.Profile).Str("issue", string(issue.Kind)).Msg("Fixed profile")
	}
	return unresolved, nil
}
