package lipgloss_test

import (
	"io"
	"testing"

	"github.com/fwojciec/differ"
	"github.com/fwojciec/differ/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestBanner_Render(t *testing.T) {
	t.Parallel()

	info := lipgloss.StartupInfo{
		URL:        "http://localhost:4141",
		RepoRoot:   "/src/app",
		Comparison: differ.Range{Base: "origin/main", Head: "HEAD"},
		Theme:      "dracula",
		Watching:   true,
	}

	t.Run("renders the server summary", func(t *testing.T) {
		t.Parallel()
		b := lipgloss.NewBannerWithProfile(io.Discard, termenv.Ascii, lipgloss.DarkPalette())

		out := b.Render(info)

		assert.Contains(t, out, "differ http://localhost:4141")
		assert.Contains(t, out, "/src/app")
		assert.Contains(t, out, "origin/main...HEAD")
		assert.Contains(t, out, "dracula")
		assert.NotContains(t, out, "watch")
		assert.NotContains(t, out, "\x1b[")
	})

	t.Run("notes when watching is off", func(t *testing.T) {
		t.Parallel()
		b := lipgloss.NewBannerWithProfile(io.Discard, termenv.Ascii, lipgloss.DarkPalette())
		off := info
		off.Watching = false

		assert.Contains(t, b.Render(off), "off")
	})

	t.Run("colors output for color terminals", func(t *testing.T) {
		t.Parallel()
		b := lipgloss.NewBannerWithProfile(io.Discard, termenv.TrueColor, lipgloss.LightPalette())

		assert.Contains(t, b.Render(info), "\x1b[")
	})
}

func TestDescribeComparison(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "working tree", lipgloss.DescribeComparison(differ.Working{}))
	assert.Equal(t, "main...topic", lipgloss.DescribeComparison(differ.Range{Base: "main", Head: "topic"}))
	assert.Equal(t, "pull request #42", lipgloss.DescribeComparison(differ.PullRequest{Number: 42}))
}
