// Package store persists page versions. Versions are immutable once written
// and version numbers are unique.
package store

import (
	"context"
	"errors"

	"canvas_ai_server/internal/types"
)

var (
	ErrNotFound        = errors.New("page version not found")
	ErrVersionConflict = errors.New("page version already exists")
)

type PageStore interface {
	// Latest returns the highest version. ok is false when nothing is stored.
	Latest(ctx context.Context) (page types.PageVersion, ok bool, err error)
	// Get returns one version or ErrNotFound.
	Get(ctx context.Context, version int) (types.PageVersion, error)
	// Insert appends a version. A duplicate version number yields ErrVersionConflict.
	Insert(ctx context.Context, page types.PageVersion) error
	DeleteAll(ctx context.Context) error
}

func clonePage(p types.PageVersion) types.PageVersion {
	if p.Files != nil {
		p.Files = append(types.FileSet(nil), p.Files...)
	}
	return p
}
