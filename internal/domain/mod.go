package domain

import "strings"

// Default file names inside a mod folder.
const (
	ManifestFile = "manifest.json"
	SettingsFile = "config.json"
)

// Manifest is the descriptor read from a mod folder.
type Manifest struct {
	Name        string
	Version     string
	Author      string
	Description string
	UniqueID    string
	UpdateKeys  []string
}

// ModFolder is one physical mod directory (or a link to one in the shared pool)
type ModFolder struct {
	FolderName       string // May carry the disabled prefix
	Path             string
	Manifest         Manifest
	Enabled          bool
	Shared           bool   // Folder is a directory link into the pool
	SharedFolderName string // Pool folder the link resolves to
	Common           bool   // Lives at the mods root rather than in a profile
}

// Collection is a folder with no manifest of its own grouping sub-mod folders.
type Collection struct {
	FolderName       string
	Path             string
	Enabled          bool
	Shared           bool
	SharedFolderName string
	Common           bool
	SubMods          []ModFolder
}

// UniqueID returns the synthetic identity used for collections.
// The disabled prefix is not part of the identity.
func (c Collection) UniqueID() string {
	return "collection:" + strings.TrimLeft(c.FolderName, ".")
}
