// Package archivefs abstracts the remote hierarchical filesystem that backs
// the cold archive tier. Paths follow the slash-terminated directory
// convention used by the archive endpoint.
package archivefs

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Stat when the path does not exist.
var ErrNotFound = errors.New("archivefs: path not found")

// EntryType distinguishes files from directories in listings.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry describes a single item in a directory listing.
type Entry struct {
	Name       string
	Type       EntryType
	Size       int64
	ModifiedAt time.Time
}

// Client is the directory contract the collection workflow depends on.
// Mkdir on an already-existing directory is success, not an error.
type Client interface {
	List(ctx context.Context, path string) ([]Entry, error)
	Stat(ctx context.Context, path string) (Entry, error)
	Mkdir(ctx context.Context, path string, createParents bool) error
}
