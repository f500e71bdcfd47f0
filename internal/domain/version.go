package domain

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// DefaultVersion is returned when a repository has no semantic version tags yet.
const DefaultVersion = "0.1.0"

// Version wraps semver.Version for additional methods.
type Version struct {
	*semver.Version
}

// ParseVersion parses a strict MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] string.
// A leading "v" or leading zeros are rejected.
func ParseVersion(s string) (*Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return &Version{v}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(s string) *Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// BumpMajor increments the major version and resets minor and patch.
func (v *Version) BumpMajor() *Version {
	return &Version{semver.New(v.Major()+1, 0, 0, "", "")}
}

// BumpMinor increments the minor version and resets patch.
func (v *Version) BumpMinor() *Version {
	return &Version{semver.New(v.Major(), v.Minor()+1, 0, "", "")}
}

// BumpPatch increments the patch version. Unlike semver.IncPatch, a
// prerelease is never promoted in place: 1.0.1-rc becomes 1.0.2.
func (v *Version) BumpPatch() *Version {
	return &Version{semver.New(v.Major(), v.Minor(), v.Patch()+1, "", "")}
}

// Compare compares two versions.
func (v *Version) Compare(other *Version) int {
	return v.Version.Compare(other.Version)
}

// LessThan reports whether v has lower precedence than other.
func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether both versions have the same precedence.
func (v *Version) Equal(other *Version) bool {
	return v.Compare(other) == 0
}

// String returns the canonical version string, which is also the tag name.
func (v *Version) String() string {
	return v.Version.String()
}

// LatestVersion returns the version with the highest precedence, or nil.
func LatestVersion(versions []*Version) *Version {
	var latest *Version
	for _, v := range versions {
		if latest == nil || latest.LessThan(v) {
			latest = v
		}
	}
	return latest
}

// FilterSemanticVersions parses names and keeps the semantic versions.
// Names that fail to parse are reported to onDrop, which may be nil.
func FilterSemanticVersions(names []string, onDrop func(name string, err error)) []*Version {
	versions := make([]*Version, 0, len(names))
	for _, name := range names {
		v, err := ParseVersion(name)
		if err != nil {
			if onDrop != nil {
				onDrop(name, err)
			}
			continue
		}
		versions = append(versions, v)
	}
	return versions
}
