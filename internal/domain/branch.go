package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultBranchDelimiter separates the revision type from the rest of a branch name.
const DefaultBranchDelimiter = "/"

// RevisionType is the kind of version bump a branch asks for.
type RevisionType string

const (
	RevisionMajor RevisionType = "major"
	RevisionMinor RevisionType = "minor"
	RevisionPatch RevisionType = "patch"
)

// Vocabulary maps branch prefixes to revision types.
type Vocabulary struct {
	Delimiter                 string
	Major                     []string
	Minor                     []string
	Patch                     []string
	BreakingChars             []string
	CapitalizeFirstIsBreaking bool
}

// DefaultVocabulary returns the stock branch naming convention:
// feature/* bumps minor, fix/*, bug/* and patch/* bump patch, and a "!"
// marker or a capitalized prefix (Fix/*) bumps major.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Delimiter:                 DefaultBranchDelimiter,
		Major:                     []string{},
		Minor:                     []string{"feature"},
		Patch:                     []string{"fix", "bug", "patch"},
		BreakingChars:             []string{"!"},
		CapitalizeFirstIsBreaking: true,
	}
}

// Validate checks that the vocabulary is usable and its sets are disjoint.
func (v Vocabulary) Validate() error {
	if v.Delimiter == "" {
		return fmt.Errorf("branch delimiter cannot be empty")
	}
	if len(v.Major)+len(v.Minor)+len(v.Patch) == 0 {
		return fmt.Errorf("at least one revision type must be configured")
	}
	seen := make(map[string]RevisionType)
	for _, set := range []struct {
		kind  RevisionType
		names []string
	}{{RevisionMajor, v.Major}, {RevisionMinor, v.Minor}, {RevisionPatch, v.Patch}} {
		for _, name := range set.names {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				return fmt.Errorf("%s revision type cannot be empty", set.kind)
			}
			if prev, ok := seen[key]; ok {
				return fmt.Errorf("revision type %q is listed as both %s and %s", name, prev, set.kind)
			}
			seen[key] = set.kind
		}
	}
	for _, c := range v.BreakingChars {
		if c == "" {
			return fmt.Errorf("breaking marker cannot be empty")
		}
		if strings.Contains(c, v.Delimiter) {
			return fmt.Errorf("breaking marker %q contains the branch delimiter", c)
		}
	}
	return nil
}

// SplitBranchName splits on the first delimiter only, so "feature/a/b"
// yields ("feature", "a/b"). An empty delimiter means DefaultBranchDelimiter.
func SplitBranchName(name, delimiter string) (string, string, error) {
	if delimiter == "" {
		delimiter = DefaultBranchDelimiter
	}
	prefix, remainder, found := strings.Cut(name, delimiter)
	if !found {
		return "", "", fmt.Errorf("%w: branch name %q does not contain delimiter %q",
			ErrInvalidBranchName, name, delimiter)
	}
	return prefix, remainder, nil
}

// Classify resolves a branch prefix to a revision type. breaking is set
// when a marker appears anywhere in the prefix, or when the prefix starts
// with an upper-case letter and CapitalizeFirstIsBreaking is on. Markers
// are trimmed from both ends before matching, case-insensitively.
func (v Vocabulary) Classify(prefix string) (RevisionType, bool, error) {
	breaking := false
	for _, marker := range v.BreakingChars {
		if marker != "" && strings.Contains(prefix, marker) {
			breaking = true
		}
	}
	stripped := strings.TrimSpace(v.trimMarkers(prefix))
	kind, ok := v.lookup(strings.ToLower(stripped))
	if !ok {
		return "", false, fmt.Errorf("%w: revision type %q must case-insensitively match one of %v",
			ErrInvalidBranchName, prefix, v.allTypes())
	}
	if v.CapitalizeFirstIsBreaking {
		if first, _ := utf8.DecodeRuneInString(stripped); unicode.IsUpper(first) {
			breaking = true
		}
	}
	return kind, breaking, nil
}

// ClassifyBranch splits a full branch name and classifies its prefix.
func (v Vocabulary) ClassifyBranch(branch string) (RevisionType, bool, error) {
	prefix, _, err := SplitBranchName(branch, v.Delimiter)
	if err != nil {
		return "", false, err
	}
	kind, breaking, err := v.Classify(prefix)
	if err != nil {
		return "", false, fmt.Errorf("branch %q: %w", branch, err)
	}
	return kind, breaking, nil
}

func (v Vocabulary) trimMarkers(s string) string {
	for {
		before := s
		for _, marker := range v.BreakingChars {
			if marker != "" {
				s = strings.TrimSuffix(strings.TrimPrefix(s, marker), marker)
			}
		}
		if s == before {
			return s
		}
	}
}

func (v Vocabulary) lookup(name string) (RevisionType, bool) {
	match := func(set []string) bool {
		return slices.ContainsFunc(set, func(s string) bool {
			return strings.ToLower(strings.TrimSpace(s)) == name
		})
	}
	switch {
	case match(v.Major):
		return RevisionMajor, true
	case match(v.Minor):
		return RevisionMinor, true
	case match(v.Patch):
		return RevisionPatch, true
	}
	return "", false
}

func (v Vocabulary) allTypes() []string {
	all := make([]string, 0, len(v.Major)+len(v.Minor)+len(v.Patch))
	all = append(all, v.Major...)
	all = append(all, v.Minor...)
	return append(all, v.Patch...)
}
