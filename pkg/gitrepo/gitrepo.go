// Package gitrepo wraps the local registry checkouts the snapshot builder
// reads from: checking out a historical commit, restoring the default branch
// and listing commits with their author dates.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// DefaultBranch is restored after a snapshot build unless configured otherwise.
const DefaultBranch = "main"

// Commit is one entry of the commit log.
type Commit struct {
	Hash string
	// When is the author date in the author's own time zone.
	When time.Time
}

// Repo is a local git checkout.
type Repo struct {
	path   string
	branch string
	repo   *git.Repository
}

// Open opens the checkout at path. branch is the branch Restore returns to;
// empty means DefaultBranch.
func Open(path, branch string) (*Repo, error) {
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidPath, err, "open repository %s", path)
	}
	if branch == "" {
		branch = DefaultBranch
	}
	return &Repo{path: path, branch: branch, repo: r}, nil
}

// Path returns the root of the working tree.
func (r *Repo) Path() string { return r.path }

// Branch returns the branch Restore checks out.
func (r *Repo) Branch() string { return r.branch }

// Checkout moves the working tree to the given commit. A dirty tree or an
// unknown hash yields a CHECKOUT_FAILED error.
func (r *Repo) Checkout(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := r.repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeCheckoutFailed, err, "resolve commit %s", hash)
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeCheckoutFailed, err, "open worktree")
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *h}); err != nil {
		return deperrors.Wrap(deperrors.ErrCodeCheckoutFailed, err, "checkout %s", hash)
	}
	return nil
}

// Restore checks out the configured branch again.
func (r *Repo) Restore(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeCheckoutFailed, err, "open worktree")
	}
	err = wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(r.branch)})
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeCheckoutFailed, err, "restore branch %s", r.branch)
	}
	return nil
}

var errStop = errors.New("stop")

// Log lists the commits reachable from the configured branch, oldest first.
func (r *Repo) Log(ctx context.Context) ([]Commit, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(r.branch), true)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeNotFound, err, "branch %s", r.branch)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if ctx.Err() != nil {
			return errStop
		}
		commits = append(commits, Commit{Hash: c.Hash.String(), When: c.Author.When})
		return nil
	})
	if errors.Is(err, errStop) {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].When.Before(commits[j].When)
	})
	return commits, nil
}
