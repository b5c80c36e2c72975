// Package git provides access to git operations via shell commands.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fwojciec/differ"
	"golang.org/x/sync/errgroup"
)

// Compile-time interface verification.
var _ differ.DiffSource = (*Runner)(nil)

// DefaultConcurrency bounds parallel diffs of untracked files.
const DefaultConcurrency = 8

// Runner executes git commands via shell.
type Runner struct {
	// Concurrency bounds the number of untracked-file diffs run at once.
	Concurrency int
}

// NewRunner creates a new git runner.
func NewRunner() *Runner {
	return &Runner{Concurrency: DefaultConcurrency}
}

// Diff returns the raw diff for the comparison. Working diffs include every
// untracked, non-ignored file as an add-only diff against the null device.
// Pull requests are served by a remote source and yield an empty diff here.
func (r *Runner) Diff(ctx context.Context, repoRoot string, spec differ.ComparisonSpec, contextLines int) (string, error) {
	switch s := spec.(type) {
	case differ.Working:
		tracked, err := r.run(ctx, repoRoot, false, diffArgs(contextLines)...)
		if err != nil {
			return "", err
		}
		files, err := r.untracked(ctx, repoRoot)
		if err != nil {
			return "", err
		}
		added, err := r.untrackedDiffs(ctx, repoRoot, files, contextLines)
		if err != nil {
			return "", err
		}
		return tracked + added, nil
	case differ.Range:
		args := append(diffArgs(contextLines), rangeArg(s))
		return r.run(ctx, repoRoot, false, args...)
	case differ.PullRequest:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported comparison %T", spec)
	}
}

// FileDiff returns the raw diff for a single path.
func (r *Runner) FileDiff(ctx context.Context, repoRoot, path string, spec differ.ComparisonSpec, contextLines int) (string, error) {
	switch s := spec.(type) {
	case differ.Working:
		files, err := r.untracked(ctx, repoRoot, path)
		if err != nil {
			return "", err
		}
		if len(files) > 0 {
			return r.untrackedDiffs(ctx, repoRoot, files, contextLines)
		}
		args := append(diffArgs(contextLines), "--", path)
		return r.run(ctx, repoRoot, false, args...)
	case differ.Range:
		args := append(diffArgs(contextLines), rangeArg(s), "--", path)
		return r.run(ctx, repoRoot, false, args...)
	case differ.PullRequest:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported comparison %T", spec)
	}
}

// Toplevel returns the root of the working tree containing dir.
func (r *Runner) Toplevel(ctx context.Context, dir string) (string, error) {
	out, err := r.run(ctx, dir, false, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// untracked lists untracked files not excluded by ignore rules, in the
// order git reports them, optionally restricted to pathspecs.
func (r *Runner) untracked(ctx context.Context, repoRoot string, pathspecs ...string) ([]string, error) {
	args := []string{"ls-files", "--others", "--exclude-standard", "-z"}
	if len(pathspecs) > 0 {
		args = append(append(args, "--"), pathspecs...)
	}
	out, err := r.run(ctx, repoRoot, false, args...)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// untrackedDiffs diffs each file against the null device concurrently and
// concatenates the results in input order.
func (r *Runner) untrackedDiffs(ctx context.Context, repoRoot string, files []string, contextLines int) (string, error) {
	if len(files) == 0 {
		return "", nil
	}

	results := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, f := range files {
		g.Go(func() error {
			args := append(diffArgs(contextLines), "--no-index", "--", os.DevNull, f)
			out, err := r.run(gctx, repoRoot, true, args...)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(results, ""), nil
}

// run executes git in repoRoot and returns stdout. With differOK, exit
// status 1 means "files differ" and is not an error.
func (r *Runner) run(ctx context.Context, repoRoot string, differOK bool, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoRoot}, args...)...)
	output, err := cmd.Output()
	if err == nil {
		return string(output), nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if differOK && exitErr.ExitCode() == 1 {
			return string(output), nil
		}
		return "", fmt.Errorf("git %s failed: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
	}
	return "", fmt.Errorf("git %s failed: %w", args[0], err)
}

func (r *Runner) concurrency() int {
	if r.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return r.Concurrency
}

func diffArgs(contextLines int) []string {
	return []string{
		"diff",
		"--no-color",
		"--no-ext-diff",
		"--patch",
		"--unified=" + strconv.Itoa(contextLines),
	}
}

// rangeArg uses three-dot notation so the diff shows what head introduced
// since it diverged from base.
func rangeArg(r differ.Range) string {
	return r.Base + "..." + r.Head
}
