// Package fsnotify watches a repository's working tree and git metadata
// using fsnotify and reports changes to a notifier.
package fsnotify

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	fsnotifylib "github.com/fsnotify/fsnotify"
)

// DefaultIgnoreDirs are directory names never watched in the working tree.
var DefaultIgnoreDirs = []string{".git", "node_modules", ".differ-dist"}

// gitFiles are the files directly inside .git whose changes matter.
var gitFiles = map[string]bool{
	"HEAD":        true,
	"index":       true,
	"packed-refs": true,
}

// Notifier receives change signals.
type Notifier interface {
	Notify()
}

// Options configures a Watcher.
type Options struct {
	IgnoreDirs []string // added to DefaultIgnoreDirs
	Logger     *slog.Logger
}

// Watcher watches the working tree recursively, plus HEAD, the index and
// branch refs inside .git, which signal commits and branch switches.
type Watcher struct {
	fsw    *fsnotifylib.Watcher
	root   string
	gitDir string
	ignore map[string]bool
	target Notifier
	logger *slog.Logger
}

// New creates a watcher for the repository at root and registers all
// watches. Call Run to start delivering changes.
func New(root string, target Notifier, opts Options) (*Watcher, error) {
	fsw, err := fsnotifylib.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		root:   root,
		gitDir: filepath.Join(root, ".git"),
		ignore: make(map[string]bool),
		target: target,
		logger: opts.Logger,
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	for _, d := range DefaultIgnoreDirs {
		w.ignore[d] = true
	}
	for _, d := range opts.IgnoreDirs {
		w.ignore[d] = true
	}

	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.addGit()
	return w, nil
}

// Run forwards relevant events to the notifier until ctx is done or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.target.Notify()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(event fsnotifylib.Event) bool {
	if !event.Op.Has(fsnotifylib.Create) && !event.Op.Has(fsnotifylib.Write) &&
		!event.Op.Has(fsnotifylib.Remove) && !event.Op.Has(fsnotifylib.Rename) {
		return false
	}

	if rel, ok := w.insideGit(event.Name); ok {
		if gitFiles[rel] {
			return true
		}
		if isRefPath(rel) {
			if event.Op.Has(fsnotifylib.Create) {
				w.addDirs(event.Name, nil)
			}
			return !strings.HasSuffix(rel, ".lock")
		}
		return false
	}

	if w.ignored(event.Name) {
		return false
	}
	if event.Op.Has(fsnotifylib.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Debug("watch new directory", "path", event.Name, "error", err)
			}
		}
	}
	return true
}

// addTree watches dir and its subdirectories, skipping ignored names.
func (w *Watcher) addTree(dir string) error {
	return w.addDirs(dir, func(path string) bool {
		return path != dir && w.ignore[filepath.Base(path)]
	})
}

func (w *Watcher) addDirs(dir string, skip func(string) bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skip != nil && skip(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Debug("watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// addGit watches the .git directory itself (for HEAD, index and
// packed-refs) and the branch ref trees. Worktrees whose .git is a file
// are skipped.
func (w *Watcher) addGit() {
	info, err := os.Stat(w.gitDir)
	if err != nil || !info.IsDir() {
		w.logger.Debug("git directory not watched", "path", w.gitDir)
		return
	}
	if err := w.fsw.Add(w.gitDir); err != nil {
		w.logger.Debug("watch git directory", "error", err)
	}
	for _, sub := range []string{"heads", "remotes"} {
		dir := filepath.Join(w.gitDir, "refs", sub)
		if _, err := os.Stat(dir); err == nil {
			_ = w.addDirs(dir, nil)
		}
	}
}

// insideGit returns path relative to .git, using forward slashes.
func (w *Watcher) insideGit(path string) (string, bool) {
	rel, err := filepath.Rel(w.gitDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.ignore[part] {
			return true
		}
	}
	return false
}

func isRefPath(rel string) bool {
	return strings.HasPrefix(rel, "refs/heads/") || strings.HasPrefix(rel, "refs/remotes/")
}
