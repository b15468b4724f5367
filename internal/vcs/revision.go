// Package vcs reads the source revision the documentation is built from.
package vcs

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLen is the length of an abbreviated commit hash.
const ShortHashLen = 7

// Revision returns the abbreviated HEAD commit of the repository containing
// dir. It returns "" without error when dir is not inside a git repository
// or the repository has no commits yet.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	hash := head.Hash().String()
	if len(hash) > ShortHashLen {
		hash = hash[:ShortHashLen]
	}
	return hash, nil
}
