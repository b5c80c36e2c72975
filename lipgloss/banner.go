// Package lipgloss renders terminal output using the Lipgloss styling library.
package lipgloss

import (
	"io"
	"strconv"
	"strings"

	lipglosslib "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/differ"
	"github.com/muesli/termenv"
)

// Palette holds the colors used for terminal output.
type Palette struct {
	Accent lipglosslib.Color
	Text   lipglosslib.Color
	Muted  lipglosslib.Color
}

// DarkPalette is optimized for dark terminal backgrounds (Catppuccin Mocha).
func DarkPalette() Palette {
	return Palette{Accent: "#89b4fa", Text: "#cdd6f4", Muted: "#6c7086"}
}

// LightPalette is optimized for light terminal backgrounds (Catppuccin Latte).
func LightPalette() Palette {
	return Palette{Accent: "#1e66f5", Text: "#4c4f69", Muted: "#9ca0b0"}
}

// StartupInfo describes a running server.
type StartupInfo struct {
	URL        string
	RepoRoot   string
	Comparison differ.ComparisonSpec
	Theme      string
	Watching   bool
}

// Banner renders the startup summary printed by the CLI.
type Banner struct {
	renderer *lipglosslib.Renderer
	palette  Palette
}

// NewBanner creates a banner for w, detecting its color support and
// background.
func NewBanner(w io.Writer) *Banner {
	r := lipglosslib.NewRenderer(w)
	palette := DarkPalette()
	if !r.HasDarkBackground() {
		palette = LightPalette()
	}
	return &Banner{renderer: r, palette: palette}
}

// NewBannerWithProfile creates a banner with a fixed color profile.
func NewBannerWithProfile(w io.Writer, profile termenv.Profile, palette Palette) *Banner {
	r := lipglosslib.NewRenderer(w)
	r.SetColorProfile(profile)
	return &Banner{renderer: r, palette: palette}
}

// Render returns the banner text, ending in a newline.
func (b *Banner) Render(info StartupInfo) string {
	title := b.renderer.NewStyle().Bold(true).Foreground(b.palette.Accent)
	label := b.renderer.NewStyle().Foreground(b.palette.Muted).Width(9)
	value := b.renderer.NewStyle().Foreground(b.palette.Text)

	row := func(name, v string) string {
		return lipglosslib.JoinHorizontal(lipglosslib.Top, label.Render(name), value.Render(v))
	}
	rows := []string{
		title.Render("differ") + " " + value.Render(info.URL),
		row("repo", info.RepoRoot),
		row("compare", DescribeComparison(info.Comparison)),
		row("theme", info.Theme),
	}
	if !info.Watching {
		rows = append(rows, row("watch", "off"))
	}
	box := b.renderer.NewStyle().
		Border(lipglosslib.RoundedBorder()).
		BorderForeground(b.palette.Muted).
		Padding(0, 1)
	return box.Render(strings.Join(rows, "\n")) + "\n"
}

// DescribeComparison returns a short human-readable form of spec.
func DescribeComparison(spec differ.ComparisonSpec) string {
	switch s := spec.(type) {
	case differ.Range:
		return s.Base + "..." + s.Head
	case differ.PullRequest:
		return "pull request #" + strconv.Itoa(s.Number)
	default:
		return "working tree"
	}
}
