// Package gitref resolves commit references that stitches link to.
package gitref

import (
	"context"
	"errors"
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// ErrNotRepository means no git repository contains the project.
	ErrNotRepository = errors.New("not a git repository")
	// ErrUnknownRevision means a reference does not name a commit.
	ErrUnknownRevision = errors.New("unknown revision")
)

// RangeSeparator joins the two ends of a commit range.
const RangeSeparator = ".."

// Verifier checks references against the repository containing dir.
type Verifier struct {
	dir string
}

// NewVerifier creates a Verifier for the repository containing dir. The
// repository is opened on each call, so a project can be initialized before
// `git init` runs.
func NewVerifier(dir string) *Verifier {
	return &Verifier{dir: dir}
}

// Verify resolves ref, a commit-ish or an "a..b" range, and returns it with
// every side expanded to a full commit SHA.
func (v *Verifier) Verify(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrUnknownRevision)
	}

	from, to, isRange := strings.Cut(ref, RangeSeparator)
	if isRange && (from == "" || to == "" || strings.HasPrefix(to, ".")) {
		return "", fmt.Errorf("%w: malformed range %q (want a..b)", ErrUnknownRevision, ref)
	}

	repo, err := git.PlainOpenWithOptions(v.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%w: %s", ErrNotRepository, v.dir)
		}
		return "", fmt.Errorf("opening repository at %s: %w", v.dir, err)
	}

	if !isRange {
		return resolve(ctx, repo, ref)
	}
	fromSHA, err := resolve(ctx, repo, from)
	if err != nil {
		return "", err
	}
	toSHA, err := resolve(ctx, repo, to)
	if err != nil {
		return "", err
	}
	return fromSHA + RangeSeparator + toSHA, nil
}

// resolve expands one commit-ish to its full SHA and checks that it names
// a commit, not a tree or blob.
func resolve(ctx context.Context, repo *git.Repository, rev string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.HasPrefix(rev, "-") {
		return "", fmt.Errorf("%w: %q", ErrUnknownRevision, rev)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnknownRevision, rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a commit: %v", ErrUnknownRevision, rev, err)
	}
	return commit.Hash.String(), nil
}

// IsRange reports whether ref is an "a..b" range.
func IsRange(ref string) bool {
	return strings.Contains(ref, RangeSeparator)
}
