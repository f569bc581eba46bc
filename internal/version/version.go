// Package version implements the devsync semantic version model: parsing,
// canonical formatting, and the bump rules that drive the release pipeline.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the pre-release suffix of a version.
type Kind string

const (
	// Stable is the absence of a pre-release suffix.
	Stable Kind = ""
	Alpha  Kind = "a"
	Beta   Kind = "b"
	RC     Kind = "rc"
)

// BumpKind selects which component Bump increments on a stable version.
// On a pre-release version the bump kind is ignored entirely.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
)

// Version is an immutable semantic version with an optional ordered
// pre-release suffix. The zero value is 0.0.0 stable.
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Suffix Kind
	// SuffixNumber is only meaningful when Suffix is not Stable.
	SuffixNumber int
}

// ParseError reports a version string that does not match the accepted
// grammar X.Y.Z[a|b|rc][N].
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version format: %q", e.Input)
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(a|b|rc)?(\d*)$`)

// Parse parses a version string. Leading and trailing whitespace is ignored.
// Any other trailing content, including a fourth numeric component, is a
// *ParseError.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	m := versionPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Version{}, &ParseError{Input: s}
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	v := Version{Major: major, Minor: minor, Patch: patch}
	if m[4] != "" {
		v.Suffix = Kind(m[4])
		if m[5] != "" {
			n, _ := strconv.Atoi(m[5])
			v.SuffixNumber = n
		}
	}
	return v, nil
}

// String renders the canonical form. The suffix number is only shown when
// greater than zero (1.0.0a, not 1.0.0a0), so Parse(v.String()) == v for
// every representable value.
func (v Version) String() string {
	base := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Suffix == Stable {
		return base
	}
	if v.SuffixNumber > 0 {
		return fmt.Sprintf("%s%s%d", base, v.Suffix, v.SuffixNumber)
	}
	return base + string(v.Suffix)
}

// IsPrerelease reports whether the version carries a pre-release suffix.
func (v Version) IsPrerelease() bool {
	return v.Suffix != Stable
}

// Bump returns the next version.
//
// On a pre-release, kind is ignored and the version advances one step along
// alpha -> beta -> rc -> stable with the suffix number reset and
// major.minor.patch unchanged. On a stable version, major and minor bumps
// increment their component and zero the lower ones; anything else --
// including unrecognized kinds -- is treated as a patch bump. The silent
// patch fallback is long-standing behavior that callers rely on.
func (v Version) Bump(kind BumpKind) Version {
	switch v.Suffix {
	case Alpha:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Suffix: Beta}
	case Beta:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Suffix: RC}
	case RC:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
	}

	switch kind {
	case BumpMajor:
		return Version{Major: v.Major + 1}
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	default:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}
