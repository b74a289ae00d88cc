// Package vault syncs a git-backed notes folder before a session.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	git "github.com/go-git/go-git/v5"
)

// Sync makes localPath an up-to-date clone of url: cloning when the folder
// does not exist yet, pulling otherwise. A repository that is already
// current is not an error.
func Sync(ctx context.Context, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("cloning notes repository", "url", url, "path", localPath)
		if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("clone notes repo %s: %w", url, err)
		}
		return nil

	case err == nil:
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("open notes repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("worktree for notes repo at %s: %w", localPath, err)
		}
		slog.Info("pulling notes repository", "path", localPath)
		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("pull notes repo at %s: %w", localPath, err)
		}
		return nil

	default:
		return fmt.Errorf("stat notes folder %s: %w", localPath, err)
	}
}
