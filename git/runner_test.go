package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/differ"
	"github.com/fwojciec/differ/git"
	"github.com/fwojciec/differ/gitdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary git repository with one commit on main.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")

	writeFile(t, dir, "README.md", "# Test Repo\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "command git %v failed: %s", args, string(output))
	return string(output)
}

// writeFile creates a file with the given content, creating parent directories.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
}

func TestRunner_Diff_Working(t *testing.T) {
	t.Parallel()

	t.Run("returns empty text for a clean tree", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		out, err := git.NewRunner().Diff(context.Background(), dir, differ.Working{}, 3)

		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("includes tracked modifications", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		writeFile(t, dir, "README.md", "# Test Repo\nmore\n")

		out, err := git.NewRunner().Diff(context.Background(), dir, differ.Working{}, 3)

		require.NoError(t, err)
		assert.Contains(t, out, "diff --git a/README.md b/README.md")
		assert.Contains(t, out, "+more")
	})

	t.Run("synthesizes add-only diffs for untracked files", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		writeFile(t, dir, "new.txt", "a\nb\n")

		out, err := git.NewRunner().Diff(context.Background(), dir, differ.Working{}, 3)
		require.NoError(t, err)

		files := gitdiff.NewParser().Parse(out)
		require.Len(t, files, 1)
		assert.Equal(t, "new.txt", files[0].Path)
		assert.Equal(t, 2, files[0].Additions)
		assert.Equal(t, 0, files[0].Deletions)
	})

	t.Run("skips ignored files", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		writeFile(t, dir, ".gitignore", "build/\n")
		runGit(t, dir, "add", ".gitignore")
		runGit(t, dir, "commit", "-m", "Ignore build")
		writeFile(t, dir, "build/out.bin", "junk\n")

		out, err := git.NewRunner().Diff(context.Background(), dir, differ.Working{}, 3)

		require.NoError(t, err)
		assert.NotContains(t, out, "build/out.bin")
	})

	t.Run("keeps untracked files in listing order", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		for _, name := range []string{"a.txt", "b.txt", "c.txt", "d/e.txt"} {
			writeFile(t, dir, name, name+"\n")
		}

		out, err := (&git.Runner{Concurrency: 2}).Diff(context.Background(), dir, differ.Working{}, 3)
		require.NoError(t, err)

		files := gitdiff.NewParser().Parse(out)
		var paths []string
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "d/e.txt"}, paths)
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		t.Parallel()

		_, err := git.NewRunner().Diff(context.Background(), t.TempDir(), differ.Working{}, 3)

		assert.Error(t, err)
	})
}

func TestRunner_Diff_Range(t *testing.T) {
	t.Parallel()

	t.Run("uses merge-base semantics", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		runGit(t, dir, "checkout", "-b", "feature")
		writeFile(t, dir, "feature.txt", "feature\n")
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-m", "Add feature")

		// A later commit on main must not show up as a deletion.
		runGit(t, dir, "checkout", "main")
		writeFile(t, dir, "main-only.txt", "main\n")
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-m", "Main work")

		out, err := git.NewRunner().Diff(context.Background(), dir, differ.Range{Base: "main", Head: "feature"}, 3)

		require.NoError(t, err)
		assert.Contains(t, out, "feature.txt")
		assert.NotContains(t, out, "main-only.txt")
	})

	t.Run("fails for unknown refs", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		_, err := git.NewRunner().Diff(context.Background(), dir, differ.Range{Base: "nope", Head: "HEAD"}, 3)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "git diff failed")
	})

	t.Run("pull requests produce no local diff", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		out, err := git.NewRunner().Diff(context.Background(), dir, differ.PullRequest{Number: 1}, 3)

		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestRunner_FileDiff(t *testing.T) {
	t.Parallel()

	t.Run("restricts the diff to one path", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		writeFile(t, dir, "other.txt", "x\n")
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-m", "Add other")
		writeFile(t, dir, "README.md", "# Changed\n")
		writeFile(t, dir, "other.txt", "y\n")

		out, err := git.NewRunner().FileDiff(context.Background(), dir, "other.txt", differ.Working{}, 3)

		require.NoError(t, err)
		assert.Contains(t, out, "other.txt")
		assert.NotContains(t, out, "README.md")
	})

	t.Run("full context includes the whole file", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		var lines []string
		for i := 0; i < 30; i++ {
			lines = append(lines, "line")
		}
		writeFile(t, dir, "long.txt", strings.Join(lines, "\n")+"\n")
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-m", "Add long")
		lines[15] = "changed"
		writeFile(t, dir, "long.txt", strings.Join(lines, "\n")+"\n")

		out, err := git.NewRunner().FileDiff(context.Background(), dir, "long.txt", differ.Working{}, differ.FullFileContext)
		require.NoError(t, err)

		files := gitdiff.NewParser().Parse(out)
		require.Len(t, files, 1)
		require.Len(t, files[0].Hunks, 1)
		assert.Len(t, files[0].Hunks[0].Lines, 31)
	})

	t.Run("untracked files use the null device form", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		writeFile(t, dir, "fresh.go", "package fresh\n")

		out, err := git.NewRunner().FileDiff(context.Background(), dir, "fresh.go", differ.Working{}, 3)

		require.NoError(t, err)
		assert.Contains(t, out, "new file mode")
		assert.Contains(t, out, "+package fresh")
	})

	t.Run("unchanged paths yield empty text", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		out, err := git.NewRunner().FileDiff(context.Background(), dir, "README.md", differ.Working{}, 3)

		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestRunner_Toplevel(t *testing.T) {
	t.Parallel()

	dir := setupTestRepo(t)
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := git.NewRunner().Toplevel(context.Background(), sub)

	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunner_Cancellation(t *testing.T) {
	t.Parallel()

	dir := setupTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := git.NewRunner().Diff(ctx, dir, differ.Working{}, 3)

	assert.ErrorIs(t, err, context.Canceled)
}
