package linker_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/linker"
)

func setupPool(t *testing.T) (target, linkDir string) {
	t.Helper()
	dir := t.TempDir()
	target = filepath.Join(dir, "pool", "ContentPatcher")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "config.json"), []byte(`{"a":1}`), 0644))
	return target, filepath.Join(dir, "profile")
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    linker.Method
		wantErr bool
	}{
		{"", linker.MethodSymlink, false},
		{"symlink", linker.MethodSymlink, false},
		{"Marker", linker.MethodMarker, false},
		{"junction", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := linker.ParseMethod(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirLinkers(t *testing.T) {
	for _, method := range []linker.Method{linker.MethodSymlink, linker.MethodMarker} {
		t.Run(string(method), func(t *testing.T) {
			l := linker.New(method)
			assert.Equal(t, method, l.Method())

			target, profile := setupPool(t)
			link := filepath.Join(profile, "ContentPatcher")

			require.NoError(t, l.Link(target, link))
			assert.True(t, l.IsLink(link))
			assert.False(t, l.IsLink(target))

			got, err := l.Target(link)
			require.NoError(t, err)
			assert.Equal(t, target, got)
			assert.Equal(t, target, l.Resolve(link))
			assert.Equal(t, target, l.Resolve(target))

			content, err := os.ReadFile(filepath.Join(l.Resolve(link), "config.json"))
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(content))

			// Second link at the same path is a conflict
			err = l.Link(target, link)
			assert.True(t, errors.Is(err, domain.ErrConflict))

			require.NoError(t, l.Unlink(link))
			_, err = os.Lstat(link)
			assert.True(t, os.IsNotExist(err))
			assert.DirExists(t, target)

			// Unlinking a missing path is a no-op
			assert.NoError(t, l.Unlink(link))
		})
	}
}

func TestDirLinkers_UnlinkRefusesRealDir(t *testing.T) {
	for _, method := range []linker.Method{linker.MethodSymlink, linker.MethodMarker} {
		t.Run(string(method), func(t *testing.T) {
			l := linker.New(method)
			target, _ := setupPool(t)

			err := l.Unlink(target)
			require.Error(t, err)
			assert.Equal(t, domain.KindLinkFailure, domain.KindOf(err))
			assert.FileExists(t, filepath.Join(target, "config.json"))
		})
	}
}

func TestMarkerLinker_DirWithOtherFilesIsNotLink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, linker.MarkerFile), []byte("/x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0644))

	l := linker.NewMarker()
	assert.False(t, l.IsLink(dir))
	assert.Equal(t, dir, l.Resolve(dir))
}

func TestSymlinkLinker_RelativeTarget(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pool", "Mod"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "profile"), 0755))
	link := filepath.Join(dir, "profile", "Mod")
	require.NoError(t, os.Symlink(filepath.Join("..", "pool", "Mod"), link))

	target, err := linker.NewSymlink().Target(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pool", "Mod"), target)
}

func TestCopyDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "assets", "deep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "manifest.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "assets", "deep", "a.png"), []byte("png"), 0600))
	require.NoError(t, os.Symlink("manifest.json", filepath.Join(src, "alias.json")))

	dst := filepath.Join(dir, "dst")
	require.NoError(t, linker.CopyDir(src, dst))

	content, err := os.ReadFile(filepath.Join(dst, "assets", "deep", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(content))

	info, err := os.Stat(filepath.Join(dst, "assets", "deep", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	linkInfo, err := os.Lstat(filepath.Join(dst, "alias.json"))
	require.NoError(t, err)
	assert.True(t, linkInfo.Mode()&os.ModeSymlink != 0)

	// Destination must not exist
	assert.Error(t, linker.CopyDir(src, dst))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0644))
	dst := filepath.Join(dir, "snap", "Mod", "config.json")

	require.NoError(t, linker.CopyFile(src, dst))
	require.NoError(t, os.WriteFile(src, []byte("v22"), 0644))
	require.NoError(t, linker.CopyFile(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "v22", string(content))
}
