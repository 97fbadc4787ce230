package core

import (
	"os"
	"path/filepath"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/linker"
)

// capture copies settings from content into the profile's snapshot slot.
// A mod has one settings file; a collection has one per sub-mod.
func (sp *SharedPool) capture(kind EntryKind, content, profile, shared string) error {
	slot := sp.layout.SnapshotDir(profile, shared)
	if kind == EntryMod {
		return sp.copySettings(content, slot)
	}

	subs, err := subdirs(content)
	if err != nil {
		return domain.WrapError(domain.KindFilesystem, "snapshot settings", content, err)
	}
	for _, sub := range subs {
		if err := sp.copySettings(filepath.Join(content, sub.Name()), filepath.Join(slot, sub.Name())); err != nil {
			return err
		}
	}
	return nil
}

// apply copies the profile's snapshot onto content. Missing snapshots are skipped.
func (sp *SharedPool) apply(kind EntryKind, content, profile, shared string) error {
	slot := sp.layout.SnapshotDir(profile, shared)
	if !isDir(slot) {
		return nil
	}
	if kind == EntryMod {
		return sp.copySettings(slot, content)
	}

	subs, err := subdirs(slot)
	if err != nil {
		return domain.WrapError(domain.KindFilesystem, "restore settings", slot, err)
	}
	for _, sub := range subs {
		dst := filepath.Join(content, sub.Name())
		if !isDir(dst) {
			continue
		}
		if err := sp.copySettings(filepath.Join(slot, sub.Name()), dst); err != nil {
			return err
		}
	}
	return nil
}

// copySettings copies the settings file from srcDir to dstDir when it exists.
func (sp *SharedPool) copySettings(srcDir, dstDir string) error {
	src := filepath.Join(srcDir, sp.layout.SettingsFile)
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		return nil
	}
	dst := filepath.Join(dstDir, sp.layout.SettingsFile)
	if err := linker.CopyFile(src, dst); err != nil {
		return domain.WrapError(domain.KindFilesystem, "copy settings", dst, err)
	}
	return nil
}

func (sp *SharedPool) dropSnapshot(profile, shared string) {
	slot := sp.layout.SnapshotDir(profile, shared)
	bestEffort(sp.log, "remove snapshot", slot, func() error { return removeTree("remove snapshot", slot) })
}

// SaveSnapshots copies the live settings of every shared entry the profile uses into
// its snapshot slots. Called before the profile is deactivated.
func (sp *SharedPool) SaveSnapshots(reg *domain.Registry, profile string) error {
	for _, ref := range sp.entriesFor(reg, profile) {
		pool := sp.layout.PoolEntry(ref.name)
		if !isDir(pool) {
			sp.log.Warn().Str("shared", ref.name).Msg("Pool entry missing, snapshot skipped")
			continue
		}
		if err := sp.capture(ref.kind, pool, profile, ref.name); err != nil {
			return err
		}
	}
	return nil
}

// RestoreSnapshots copies the profile's snapshots back onto every shared entry it uses.
// Called after the profile is activated.
func (sp *SharedPool) RestoreSnapshots(reg *domain.Registry, profile string) error {
	for _, ref := range sp.entriesFor(reg, profile) {
		pool := sp.layout.PoolEntry(ref.name)
		if !isDir(pool) {
			sp.log.Warn().Str("shared", ref.name).Msg("Pool entry missing, restore skipped")
			continue
		}
		if err := sp.apply(ref.kind, pool, profile, ref.name); err != nil {
			return err
		}
	}
	return nil
}
