// Package backup exports snapshots of the local history ledger to pluggable
// blob storage so a wallet can be restored on another machine.
package backup

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("snapshot not found")
var ErrInvalidName = errors.New("invalid snapshot name")

// Storage defines the interface for snapshot blob storage.
type Storage interface {
	Save(ctx context.Context, name string, data io.Reader) (int64, error)
	Load(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}
