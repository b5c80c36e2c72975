// Package toml loads differ's configuration file.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tomllib "github.com/BurntSushi/toml"
	"github.com/fwojciec/differ"
)

// DefaultPort is the port served when none is configured.
const DefaultPort = 4141

// TokenEnv names the environment variable consulted for a GitHub token when
// the file has none.
const TokenEnv = "GITHUB_TOKEN"

// Duration is a time.Duration written as a string such as "150ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every setting the server reads at startup.
type Config struct {
	Port         int      `toml:"port"`
	Theme        string   `toml:"theme"`
	ContextLines int      `toml:"context_lines"`
	OpenBrowser  bool     `toml:"open_browser"`
	IgnoreDirs   []string `toml:"ignore_dirs"`
	StaticDir    string   `toml:"static_dir"`
	LogLevel     string   `toml:"log_level"`

	Watch  WatchConfig  `toml:"watch"`
	GitHub GitHubConfig `toml:"github"`
}

// WatchConfig tunes change notification.
type WatchConfig struct {
	Debounce  Duration `toml:"debounce"`
	KeepAlive Duration `toml:"keep_alive"`
}

// GitHubConfig configures pull request access.
type GitHubConfig struct {
	Token             string  `toml:"token"`
	APIURL            string  `toml:"api_url"` // empty means the public API
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Port:         DefaultPort,
		Theme:        differ.DefaultThemeID,
		ContextLines: differ.DefaultContextLines,
		OpenBrowser:  true,
		LogLevel:     "info",
		Watch: WatchConfig{
			Debounce:  Duration{150 * time.Millisecond},
			KeepAlive: Duration{20 * time.Second},
		},
	}
}

// DefaultPath returns the config file location. Uses XDG_CONFIG_HOME if
// set, otherwise ~/.config/differ, or the system temp directory if home is
// unavailable.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "differ", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "differ", "config.toml")
	}
	return filepath.Join(home, ".config", "differ", "config.toml")
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults. Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := tomllib.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = Default()
	case err != nil:
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv(TokenEnv)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.ContextLines < 0:
		return fmt.Errorf("context_lines must not be negative")
	case c.Watch.Debounce.Duration < 0:
		return fmt.Errorf("watch.debounce must not be negative")
	case c.Watch.KeepAlive.Duration < 0:
		return fmt.Errorf("watch.keep_alive must not be negative")
	case c.GitHub.RequestsPerSecond < 0 || c.GitHub.Burst < 0:
		return fmt.Errorf("github request pacing must not be negative")
	}
	return nil
}
