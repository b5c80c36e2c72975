package differ_test

import (
	"testing"

	"github.com/fwojciec/differ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHunkHeader(t *testing.T) {
	t.Parallel()

	t.Run("parses full header with section", func(t *testing.T) {
		t.Parallel()

		r, ok := differ.ParseHunkHeader("@@ -10,7 +12,9 @@ func main() {")

		require.True(t, ok)
		assert.Equal(t, differ.HunkRange{OldStart: 10, OldCount: 7, NewStart: 12, NewCount: 9}, r)
	})

	t.Run("omitted counts default to one", func(t *testing.T) {
		t.Parallel()

		r, ok := differ.ParseHunkHeader("@@ -3 +4 @@")

		require.True(t, ok)
		assert.Equal(t, differ.HunkRange{OldStart: 3, OldCount: 1, NewStart: 4, NewCount: 1}, r)
	})

	t.Run("rejects malformed headers", func(t *testing.T) {
		t.Parallel()

		_, ok := differ.ParseHunkHeader("@@ nonsense @@")

		assert.False(t, ok)
	})
}

func TestLineNumbers(t *testing.T) {
	t.Parallel()

	t.Run("additions only advance the new counter", func(t *testing.T) {
		t.Parallel()

		h := differ.DiffHunk{
			Header: "@@ -0,0 +1,3 @@",
			Lines: []differ.DiffLine{
				{Kind: differ.LineAdd, Text: "a"},
				{Kind: differ.LineAdd, Text: "b"},
				{Kind: differ.LineAdd, Text: "c"},
			},
		}

		nums := differ.LineNumbers(h)

		assert.Equal(t, []differ.LineNumber{{New: 1}, {New: 2}, {New: 3}}, nums)
	})

	t.Run("deletions only advance the old counter", func(t *testing.T) {
		t.Parallel()

		h := differ.DiffHunk{
			Header: "@@ -5,2 +5,0 @@",
			Lines: []differ.DiffLine{
				{Kind: differ.LineDelete, Text: "x"},
				{Kind: differ.LineDelete, Text: "y"},
			},
		}

		nums := differ.LineNumbers(h)

		assert.Equal(t, []differ.LineNumber{{Old: 5}, {Old: 6}}, nums)
	})

	t.Run("context advances both counters", func(t *testing.T) {
		t.Parallel()

		h := differ.DiffHunk{
			Header: "@@ -1,3 +1,3 @@",
			Lines: []differ.DiffLine{
				{Kind: differ.LineContext},
				{Kind: differ.LineDelete},
				{Kind: differ.LineAdd},
				{Kind: differ.LineContext},
			},
		}

		nums := differ.LineNumbers(h)

		assert.Equal(t, []differ.LineNumber{
			{Old: 1, New: 1},
			{Old: 2},
			{New: 2},
			{Old: 3, New: 3},
		}, nums)
	})

	t.Run("returns nil for an unparsable header", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, differ.LineNumbers(differ.DiffHunk{Header: "@@ broken"}))
	})
}

func TestDiffFile_ContainsLine(t *testing.T) {
	t.Parallel()

	file := differ.DiffFile{
		Hunks: []differ.DiffHunk{{
			Header: "@@ -10,2 +10,2 @@",
			Lines: []differ.DiffLine{
				{Kind: differ.LineContext},
				{Kind: differ.LineDelete},
				{Kind: differ.LineAdd},
			},
		}},
	}

	assert.True(t, file.ContainsLine(differ.SideRight, 11))
	assert.True(t, file.ContainsLine(differ.SideLeft, 11))
	assert.True(t, file.ContainsLine(differ.SideRight, 10))
	assert.False(t, file.ContainsLine(differ.SideRight, 12))
	assert.False(t, file.ContainsLine(differ.SideLeft, 0))
}
