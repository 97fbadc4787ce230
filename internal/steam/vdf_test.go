package steam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVDF_LibraryFolders(t *testing.T) {
	vdf := `
"libraryfolders"
{
	"0"
	{
		"path"		"/home/user/.local/share/Steam"
		"label"		""
		"apps"
		{
			"413150"		"612345678"
		}
	}
	"1"
	{
		"path"		"/mnt/games/steam"
		"label"		"Games"
	}
}
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)

	lf, ok := root.Block("libraryfolders")
	require.True(t, ok)
	first, ok := lf.Block("0")
	require.True(t, ok)
	path, _ := first.String("path")
	assert.Equal(t, "/home/user/.local/share/Steam", path)
	label, ok := first.String("label")
	assert.True(t, ok)
	assert.Empty(t, label)

	apps, ok := first.Block("apps")
	require.True(t, ok)
	size, _ := apps.String("413150")
	assert.Equal(t, "612345678", size)
}

func TestParseVDF_CommentsEscapesAndBareWords(t *testing.T) {
	vdf := `// written by steam
"Root"
{
	// a comment
	"quote"   "say \"hi\""
	"path"    "C:\\Games\\Steam"
	bare      word
}
"Second" { "k" "v" }
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)

	r, ok := root.Block("root")
	require.True(t, ok, "keys match case-insensitively")
	quote, _ := r.String("quote")
	assert.Equal(t, `say "hi"`, quote)
	path, _ := r.String("path")
	assert.Equal(t, `C:\Games\Steam`, path)
	bare, _ := r.String("bare")
	assert.Equal(t, "word", bare)

	second, ok := root.Block("Second")
	require.True(t, ok)
	v, _ := second.String("k")
	assert.Equal(t, "v", v)
}

func TestParseVDF_Empty(t *testing.T) {
	root, err := ParseVDF(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, root)
}

func TestParseVDF_Malformed(t *testing.T) {
	tests := []struct {
		name string
		vdf  string
	}{
		{"missing close", `"a" { "b" "c"`},
		{"stray close", `"a" "b" }`},
		{"key without value", `"a"`},
		{"block without key", `{ "a" "b" }`},
		{"unclosed quote", `"a" "b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVDF(strings.NewReader(tt.vdf))
			assert.ErrorIs(t, err, ErrMalformedVDF)
		})
	}
}

func TestParseVDF_ValueTypeMismatch(t *testing.T) {
	root, err := ParseVDF(strings.NewReader(`"a" "b"`))
	require.NoError(t, err)

	_, ok := root.Block("a")
	assert.False(t, ok)
	_, ok = root.String("missing")
	assert.False(t, ok)
}

func TestLibraryPaths_NumericOrderWithGaps(t *testing.T) {
	vdf := `
"libraryfolders"
{
	"10" { "path" "/ten" }
	"0"  { "path" "/zero" }
	"2"  { "path" "/two" }
	"contentstatsid" "12345"
	"3"  { "label" "no path" }
}
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)
	assert.Equal(t, []string{"/zero", "/two", "/ten"}, libraryPaths(root))
}

func TestParseAppManifest(t *testing.T) {
	acf := `
"AppState"
{
	"appid"		"413150"
	"Universe"		"1"
	"name"		"Stardew Valley"
	"installdir"		"Stardew Valley"
}
`
	m, err := ParseAppManifest(acf)
	require.NoError(t, err)
	assert.Equal(t, "413150", m.AppID)
	assert.Equal(t, "Stardew Valley", m.Name)
	assert.Equal(t, "Stardew Valley", m.InstallDir)
}

func TestParseAppManifest_MissingAppState(t *testing.T) {
	_, err := ParseAppManifest(`"Other" { "appid" "1" }`)
	assert.ErrorIs(t, err, ErrMalformedVDF)
}
