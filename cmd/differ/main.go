package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/fwojciec/differ"
	"github.com/fwojciec/differ/chroma"
	"github.com/fwojciec/differ/fsnotify"
	"github.com/fwojciec/differ/git"
	"github.com/fwojciec/differ/gitdiff"
	"github.com/fwojciec/differ/github"
	"github.com/fwojciec/differ/gogit"
	differhttp "github.com/fwojciec/differ/http"
	"github.com/fwojciec/differ/lipgloss"
	"github.com/fwojciec/differ/notify"
	"github.com/fwojciec/differ/snapshot"
	"github.com/fwojciec/differ/toml"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// ErrNotRepository is returned when the target path is not inside a git
// working tree.
var ErrNotRepository = errors.New("not a git repository (or any parent directory)")

// Options holds command-line settings. Zero values defer to the config file.
type Options struct {
	Path    string
	Host    string
	Port    int
	Theme   string
	NoOpen  bool
	NoWatch bool
	Verbose bool

	Compare string
	Base    string
	Head    string
	PR      int
}

// App wires and runs the server for one repository.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Config toml.Config
	Opts   Options
	// Open shows url to the user. Errors are logged, not returned.
	Open func(url string) error
}

// Run serves the repository until ctx is done.
func (a *App) Run(ctx context.Context) error {
	logger := a.logger()
	runner := git.NewRunner()

	root, err := runner.Toplevel(ctx, a.Opts.Path)
	if err != nil {
		logger.Debug("resolve repository", "path", a.Opts.Path, "error", err)
		return ErrNotRepository
	}

	inspector := gogit.NewInspector()
	ghOpts := github.Options{BaseURL: a.Config.GitHub.APIURL}
	if rps := a.Config.GitHub.RequestsPerSecond; rps > 0 {
		burst := a.Config.GitHub.Burst
		if burst <= 0 {
			burst = github.DefaultBurst
		}
		ghOpts.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	gh := github.NewSource(inspector, ghOpts)

	svc := snapshot.New(snapshot.Config{
		Source:       runner,
		PullRequests: gh,
		Parser:       gitdiff.NewParser(),
		Detector:     chroma.NewDetector(),
		Highlighter:  chroma.NewHighlighter(),
		ContextLines: a.Config.ContextLines,
		Logger:       logger.With("component", "snapshot"),
	})

	notifier := notify.New(root, svc, notify.Options{
		Delay:     a.Config.Watch.Debounce.Duration,
		KeepAlive: a.Config.Watch.KeepAlive.Duration,
		Logger:    logger.With("component", "notify"),
	})
	defer notifier.Close()

	if !a.Opts.NoWatch {
		watcher, err := fsnotify.New(root, notifier, fsnotify.Options{
			IgnoreDirs: a.Config.IgnoreDirs,
			Logger:     logger.With("component", "watch"),
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		defer watcher.Close()
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("watcher stopped", "error", err)
			}
		}()
	}

	server := differhttp.NewServer()
	server.RepoRoot = root
	server.DefaultCompare = differ.ResolveComparison(inspector, root, a.compareRequest())
	server.DefaultTheme = a.Config.Theme
	server.Token = a.Config.GitHub.Token
	server.StaticDir = a.Config.StaticDir
	server.DiffService = svc
	server.Inspector = inspector
	server.Reviewers = gh
	server.Events = notifier
	server.Logger = logger.With("component", "http")

	if err := server.Open(net.JoinHostPort(a.Opts.Host, strconv.Itoa(a.Config.Port))); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer server.Close()

	url := server.URL() + "/"
	fmt.Fprint(a.Stdout, lipgloss.NewBanner(a.Stdout).Render(lipgloss.StartupInfo{
		URL:        url,
		RepoRoot:   root,
		Comparison: server.DefaultCompare,
		Theme:      differ.ResolveTheme(a.Config.Theme).ID,
		Watching:   !a.Opts.NoWatch,
	}))
	if !a.Opts.NoOpen && a.Open != nil {
		if err := a.Open(url); err != nil {
			logger.Warn("open browser", "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func (a *App) compareRequest() differ.CompareRequest {
	req := differ.CompareRequest{Mode: a.Opts.Compare, Base: a.Opts.Base, Head: a.Opts.Head}
	if a.Opts.PR > 0 {
		req.PullRequest = strconv.Itoa(a.Opts.PR)
		if req.Mode == "" {
			req.Mode = differ.ModePullRequest
		}
	}
	return req
}

func (a *App) logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.Config.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if a.Opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{Level: level}))
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func newRootCmd() *cobra.Command {
	var (
		opts       Options
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "differ",
		Short: "Serve a live, highlighted view of a repository's changes",
		Long: `differ serves the changes of a git repository to the browser and
updates the view as files, the index or branches change.

Examples:
  differ                         # working tree changes
  differ --base main             # changes on HEAD since it left main
  differ --pr 42                 # a GitHub pull request (needs GITHUB_TOKEN)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := toml.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = opts.Port
			}
			if flags.Changed("theme") {
				cfg.Theme = opts.Theme
			}
			if flags.Changed("no-open") {
				cfg.OpenBrowser = !opts.NoOpen
			}
			opts.NoOpen = !cfg.OpenBrowser

			app := &App{
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
				Config: cfg,
				Opts:   opts,
				Open:   openBrowser,
			}
			return app.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Path, "path", ".", "path inside the repository to serve")
	flags.StringVar(&opts.Host, "host", "127.0.0.1", "interface to listen on")
	flags.IntVar(&opts.Port, "port", toml.DefaultPort, "port to listen on; a free port is used when taken")
	flags.StringVar(&configPath, "config", toml.DefaultPath(), "config file")
	flags.StringVar(&opts.Theme, "theme", differ.DefaultThemeID, "default highlighting theme")
	flags.BoolVar(&opts.NoOpen, "no-open", false, "do not open a browser")
	flags.BoolVar(&opts.NoWatch, "no-watch", false, "do not watch the repository for changes")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log debug output")
	flags.StringVar(&opts.Compare, "compare", "", "default comparison: working, range or pr")
	flags.StringVar(&opts.Base, "base", "", "base ref of a range comparison")
	flags.StringVar(&opts.Head, "head", "", "head ref of a range comparison")
	flags.IntVar(&opts.PR, "pr", 0, "pull request number to compare")
	return cmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "differ:", err)
		os.Exit(1)
	}
}
