// Package manifest reads mod descriptor files.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
)

// FileName is the descriptor file looked up in every mod directory.
const FileName = domain.ManifestFile

// UnknownName is used when a manifest has no Name field.
const UnknownName = "Unknown"

var (
	ErrManifestMissing   = fmt.Errorf("manifest %w", domain.ErrNotFound)
	ErrManifestMalformed = fmt.Errorf("manifest malformed: %w", domain.ErrValidation)
)

var nexusKeyPattern = regexp.MustCompile(`(?i)^\s*nexus\s*:\s*(\d+)`)

// Path returns the manifest path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Has reports whether dir contains a manifest file.
func Has(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && !info.IsDir()
}

// Read parses the manifest in dir.
func Read(dir string) (*domain.Manifest, error) {
	doc, err := load(dir)
	if err != nil {
		return nil, err
	}

	m := &domain.Manifest{
		Name:        field(doc, "Name").String(),
		Version:     field(doc, "Version").String(),
		Author:      field(doc, "Author").String(),
		Description: field(doc, "Description").String(),
		UniqueID:    field(doc, "UniqueID").String(),
	}
	if m.Name == "" {
		m.Name = UnknownName
	}
	for _, key := range field(doc, "UpdateKeys").Array() {
		if s := key.String(); s != "" {
			m.UpdateKeys = append(m.UpdateKeys, s)
		}
	}
	return m, nil
}

// ReadBasic parses only the name, version and unique ID from the manifest in dir.
func ReadBasic(dir string) (*domain.Manifest, error) {
	doc, err := load(dir)
	if err != nil {
		return nil, err
	}

	m := &domain.Manifest{
		Name:     field(doc, "Name").String(),
		Version:  field(doc, "Version").String(),
		UniqueID: field(doc, "UniqueID").String(),
	}
	if m.Name == "" {
		m.Name = UnknownName
	}
	return m, nil
}

// NexusID extracts the numeric mod ID from a "Nexus:<id>[@...]" update key.
func NexusID(updateKeys []string) (int, bool) {
	for _, key := range updateKeys {
		match := nexusKeyPattern.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		// A key like "Nexus:123abc" is malformed, not 123.
		rest := strings.TrimSpace(key[len(match[0]):])
		if rest != "" && !strings.HasPrefix(rest, "@") {
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil || id <= 0 {
			continue
		}
		return id, true
	}
	return 0, false
}

func load(dir string) (gjson.Result, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gjson.Result{}, &domain.Error{Kind: domain.KindNotFound, Op: "read manifest", Path: path, Msg: "not found", Err: ErrManifestMissing}
		}
		return gjson.Result{}, domain.WrapError(domain.KindFilesystem, "read manifest", path, err)
	}

	data = normalize(data)
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, &domain.Error{Kind: domain.KindValidation, Op: "read manifest", Path: path, Msg: "malformed", Err: ErrManifestMalformed}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return gjson.Result{}, &domain.Error{Kind: domain.KindValidation, Op: "read manifest", Path: path, Msg: "not an object", Err: ErrManifestMalformed}
	}
	return doc, nil
}

// field looks up key exactly, then case-insensitively.
func field(doc gjson.Result, key string) gjson.Result {
	if v := doc.Get(key); v.Exists() {
		return v
	}
	var found gjson.Result
	doc.ForEach(func(k, v gjson.Result) bool {
		if strings.EqualFold(k.String(), key) {
			found = v
			return false
		}
		return true
	})
	return found
}

// normalize strips a BOM, then comments and trailing commas so the result is strict JSON.
func normalize(data []byte) []byte {
	return jsonc.ToJSON(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
}
