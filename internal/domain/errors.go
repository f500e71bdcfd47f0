package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is.
var (
	// ErrInvalidVersion is returned when a string is not a strict semantic version.
	ErrInvalidVersion = errors.New("invalid semantic version")
	// ErrInvalidBranchName is returned when a branch name lacks the delimiter
	// or its prefix matches no revision type.
	ErrInvalidBranchName = errors.New("invalid branch name")
	// ErrCommitNotTagged is returned when no tag points at the commit.
	ErrCommitNotTagged = errors.New("commit is not tagged")
	// ErrCommitTagNotSemanticVersion is returned when a commit is tagged but
	// none of its tags parse as a semantic version.
	ErrCommitTagNotSemanticVersion = errors.New("commit tag is not a semantic version")
	// ErrRemoteNotFound is returned when the push target remote is not configured.
	ErrRemoteNotFound = errors.New("remote not found")
	// ErrAlreadyTagged is returned when HEAD already carries a semantic version tag.
	ErrAlreadyTagged = errors.New("commit already tagged with a semantic version")
	// ErrNotOnMainBranch is returned by the safety check outside pipeline mode.
	ErrNotOnMainBranch = errors.New("repository is not on the main branch")
	// ErrDetachedHead is returned when HEAD does not point at a branch.
	ErrDetachedHead = errors.New("HEAD is detached")
)

// AlreadyTaggedError reports the semantic version already attached to a commit.
type AlreadyTaggedError struct {
	Commit  string
	Version *Version
}

func (e *AlreadyTaggedError) Error() string {
	return fmt.Sprintf("HEAD is already tagged %s (commit %s)", e.Version, e.Commit)
}

// Is makes errors.Is(err, ErrAlreadyTagged) match.
func (e *AlreadyTaggedError) Is(target error) bool {
	return target == ErrAlreadyTagged
}
