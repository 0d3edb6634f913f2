package fetch

import (
	"context"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
)

// FileSource serves a snapshot stored on disk. It has no grouping of its
// own, so every request returns the same file, re-read each time.
type FileSource struct {
	Path string
}

// Load reads the snapshot file.
func (s FileSource) Load(ctx context.Context, req grouping.Request) (*projection.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return projection.Import(s.Path)
}

// StaticSource serves a snapshot already in memory.
type StaticSource struct {
	Snapshot *projection.Snapshot
}

// Load returns the snapshot.
func (s StaticSource) Load(ctx context.Context, req grouping.Request) (*projection.Snapshot, error) {
	return s.Snapshot, ctx.Err()
}
