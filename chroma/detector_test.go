package chroma_test

import (
	"testing"

	"github.com/fwojciec/differ/chroma"
	"github.com/stretchr/testify/assert"
)

func TestDetector_DetectFromPath(t *testing.T) {
	t.Parallel()

	t.Run("detects Go from .go files", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()
		lang := detector.DetectFromPath("src/main.go")

		assert.Equal(t, "Go", lang)
	})

	t.Run("detects common languages", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()

		cases := []struct {
			path string
			want string
		}{
			{"app.py", "Python"},
			{"component.tsx", "TypeScript"},
			{"lib.rs", "Rust"},
			{"main.js", "JavaScript"},
			{"style.css", "CSS"},
		}

		for _, tc := range cases {
			lang := detector.DetectFromPath(tc.path)
			assert.Equal(t, tc.want, lang, "path: %s", tc.path)
		}
	})

	t.Run("strips diff prefixes", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()

		assert.Equal(t, "Go", detector.DetectFromPath("a/src/foo.go"))
		assert.Equal(t, "Go", detector.DetectFromPath("b/src/foo.go"))
	})

	t.Run("recognises Dockerfiles", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()

		assert.Equal(t, "docker", detector.DetectFromPath("deploy/Dockerfile"))
		assert.Equal(t, "docker", detector.DetectFromPath("Dockerfile.dev"))
	})

	t.Run("files without an extension are shell", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()
		lang := detector.DetectFromPath("scripts/bootstrap")

		assert.Equal(t, chroma.LanguageShell, lang)
	})

	t.Run("unknown extensions are plain text", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()
		lang := detector.DetectFromPath("file.unknownext")

		assert.Equal(t, chroma.LanguagePlaintext, lang)
	})
}
