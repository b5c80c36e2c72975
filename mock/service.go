package mock

import (
	"context"

	"github.com/fwojciec/differ"
)

// Compile-time interface verification.
var _ differ.DiffService = (*DiffService)(nil)

// DiffService is a mock implementation of differ.DiffService.
type DiffService struct {
	GetDiffFn         func(ctx context.Context, req differ.DiffRequest) (*differ.DiffSnapshot, error)
	GetFileDiffFn     func(ctx context.Context, req differ.FileDiffRequest) (*differ.DiffFile, error)
	InvalidateCacheFn func(repoRoot string)
}

func (s *DiffService) GetDiff(ctx context.Context, req differ.DiffRequest) (*differ.DiffSnapshot, error) {
	return s.GetDiffFn(ctx, req)
}

func (s *DiffService) GetFileDiff(ctx context.Context, req differ.FileDiffRequest) (*differ.DiffFile, error) {
	return s.GetFileDiffFn(ctx, req)
}

func (s *DiffService) InvalidateCache(repoRoot string) {
	s.InvalidateCacheFn(repoRoot)
}
