package inmem

import "github.com/fwojciec/differ"

// ContextMode distinguishes diff-context from whole-file single-file diffs.
type ContextMode int

const (
	ContextDiff ContextMode = iota
	ContextFull
)

// ParsedEntry is a parsed snapshot together with the hash it was built from.
type ParsedEntry struct {
	Hash     string
	Snapshot *differ.DiffSnapshot
}

// HighlightKey identifies a highlighted snapshot. Overlay is a digest of
// the per-request overlay (viewed flags, pull request metadata), empty for
// the base entry.
type HighlightKey struct {
	CompareKey string
	Hash       string
	Theme      string
	Overlay    string
}

// FileKey identifies a single-file diff.
type FileKey struct {
	CompareKey string
	Path       string
	Theme      string
	Context    ContextMode
}

// FileEntry is a highlighted single-file diff with the hash of its raw diff.
type FileEntry struct {
	Hash string
	File differ.DiffFile
}

// Cache bundles the parsed, highlighted and single-file stores.
type Cache struct {
	Parsed      *Store[string, ParsedEntry]
	Highlighted *Store[HighlightKey, *differ.DiffSnapshot]
	Files       *Store[FileKey, FileEntry]
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		Parsed:      NewStore[string, ParsedEntry](),
		Highlighted: NewStore[HighlightKey, *differ.DiffSnapshot](),
		Files:       NewStore[FileKey, FileEntry](),
	}
}

// ParsedFor returns the parsed entry for compareKey only when its stored
// hash equals hash. A mismatched entry is reported as absent.
func (c *Cache) ParsedFor(root, compareKey, hash string) (*differ.DiffSnapshot, bool) {
	e, ok := c.Parsed.Get(root, compareKey)
	if !ok || e.Hash != hash {
		return nil, false
	}
	return e.Snapshot, true
}

// FileFor returns the single-file entry for key only when its stored hash
// equals hash.
func (c *Cache) FileFor(root string, key FileKey, hash string) (differ.DiffFile, bool) {
	e, ok := c.Files.Get(root, key)
	if !ok || e.Hash != hash {
		return differ.DiffFile{}, false
	}
	return e.File, true
}

// Invalidate removes every entry for root from all three stores.
func (c *Cache) Invalidate(root string) {
	c.Parsed.InvalidateRoot(root)
	c.Highlighted.InvalidateRoot(root)
	c.Files.InvalidateRoot(root)
}
