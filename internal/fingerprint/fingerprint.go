// Package fingerprint computes and compares content identities of mod collections.
package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/DonovanMods/profile-mod-manager/internal/domain"
	"github.com/DonovanMods/profile-mod-manager/internal/manifest"
)

// DifferenceKind classifies one fingerprint difference.
type DifferenceKind string

const (
	DiffCount           DifferenceKind = "count"
	DiffMissing         DifferenceKind = "missing"
	DiffDifferentMod    DifferenceKind = "different-mod"
	DiffVersion         DifferenceKind = "version"
	DiffManifestChanged DifferenceKind = "manifest-changed"
)

// Difference is one itemized disagreement between two fingerprints.
// A and B hold the compared values from each side where applicable.
type Difference struct {
	Kind   DifferenceKind
	SubMod string
	A      string
	B      string
}

func (d Difference) String() string {
	switch d.Kind {
	case DiffCount:
		return fmt.Sprintf("Mod count differs (%s vs %s)", d.A, d.B)
	case DiffMissing:
		return fmt.Sprintf("Missing: %s", d.SubMod)
	case DiffDifferentMod:
		return fmt.Sprintf("Different mod: %s (%s vs %s)", d.SubMod, d.A, d.B)
	case DiffVersion:
		return fmt.Sprintf("%s: version %s vs %s", d.SubMod, d.A, d.B)
	case DiffManifestChanged:
		return fmt.Sprintf("Manifest changed: %s", d.SubMod)
	default:
		return string(d.Kind) + ": " + d.SubMod
	}
}

// Result is the outcome of Compare.
type Result struct {
	Match       bool
	Differences []Difference
}

// Strings renders every difference.
func (r Result) Strings() []string {
	out := make([]string, len(r.Differences))
	for i, d := range r.Differences {
		out[i] = d.String()
	}
	return out
}

// HashFile returns the base64 SHA-256 digest of the file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// Collection fingerprints every immediate subdirectory of path that has a readable manifest.
// Subdirectories without one are skipped.
func Collection(path string) (domain.Fingerprint, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", path, err)
	}

	fp := make(domain.Fingerprint)
	for _, entry := range entries {
		sub := filepath.Join(path, entry.Name())
		if !isDir(sub) || !manifest.Has(sub) {
			continue
		}
		m, err := manifest.ReadBasic(sub)
		if err != nil {
			continue
		}
		hash, err := HashFile(manifest.Path(sub))
		if err != nil {
			continue
		}
		fp[entry.Name()] = domain.SubModFingerprint{
			UniqueID:     m.UniqueID,
			Version:      m.Version,
			ManifestHash: hash,
		}
	}
	return fp, nil
}

// Compare reports whether a and b identify the same collection.
// a is the canonical side: only its keys are itemized, in lexicographic order.
// A count mismatch is reported alone; otherwise each field of a sub-mod is checked on its own.
func Compare(a, b domain.Fingerprint) Result {
	if len(a) != len(b) {
		return Result{Differences: []Difference{{
			Kind: DiffCount,
			A:    fmt.Sprint(len(a)),
			B:    fmt.Sprint(len(b)),
		}}}
	}

	var diffs []Difference
	for _, key := range slices.Sorted(maps.Keys(a)) {
		av := a[key]
		bv, ok := b[key]
		if !ok {
			diffs = append(diffs, Difference{Kind: DiffMissing, SubMod: key})
			continue
		}
		if av.UniqueID != bv.UniqueID {
			diffs = append(diffs, Difference{Kind: DiffDifferentMod, SubMod: key, A: av.UniqueID, B: bv.UniqueID})
		}
		if av.Version != bv.Version {
			diffs = append(diffs, Difference{Kind: DiffVersion, SubMod: key, A: av.Version, B: bv.Version})
		}
		if av.ManifestHash != bv.ManifestHash {
			diffs = append(diffs, Difference{Kind: DiffManifestChanged, SubMod: key})
		}
	}
	return Result{Match: len(diffs) == 0, Differences: diffs}
}

// isDir follows links so linked sub-mods count.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
