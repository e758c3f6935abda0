// Package git runs the git CLI against a working tree, serialized across
// processes by a lock file.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockName is the lock file created in the working tree root.
const DefaultLockName = ".storefront.lock"

// ErrNotInstalled is returned when no git binary is on PATH.
var ErrNotInstalled = errors.New("git is not installed")

// Client wraps git command execution with a global file-based lock for process safety.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	lockPath string

	// AuthorName and AuthorEmail are exported to git through the environment
	// so commits work on machines without a configured identity.
	AuthorName  string
	AuthorEmail string
}

// NewClient creates a new git client for the given working directory.
// An empty lockName selects DefaultLockName.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = DefaultLockName
	}
	return &Client{
		WorkDir:     workDir,
		Logger:      logger,
		lockPath:    lockName,
		AuthorName:  "storefront",
		AuthorEmail: "storefront@localhost",
	}
}

// LockName returns the lock file name relative to WorkDir.
func (c *Client) LockName() string {
	return c.lockPath
}

// IsInstalled reports whether a git binary is available.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock acquires the file-based lock, blocking until it is free or ctx is done.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock %s: %w", fullLockPath, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Run executes a raw git command in the working directory.
// It does NOT acquire the lock; callers serialize writes with Lock.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+c.AuthorName,
		"GIT_AUTHOR_EMAIL="+c.AuthorEmail,
		"GIT_COMMITTER_NAME="+c.AuthorName,
		"GIT_COMMITTER_EMAIL="+c.AuthorEmail,
	)

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// Init initializes a new git repository. Re-running it is safe.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// IsRepo reports whether WorkDir is inside a git working tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Add adds files to the stage.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Commit records staged changes. The message is passed verbatim. A commit is
// recorded even when the tree is unchanged, so every write leaves a note.
func (c *Client) Commit(ctx context.Context, msg string) error {
	_, err := c.Run(ctx, "commit", "--allow-empty", "--cleanup=verbatim", "-m", msg)
	return err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.Run(ctx, "status", "--porcelain")
}

// Messages returns the full commit messages touching path, newest first.
// A limit of zero or less returns every message.
func (c *Client) Messages(ctx context.Context, path string, limit int) ([]string, error) {
	args := []string{"log", "--format=%B%x00"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	args = append(args, "--", path)

	out, err := c.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var msgs []string
	for _, m := range strings.Split(out, "\x00") {
		if m = strings.TrimSpace(m); m != "" {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}
