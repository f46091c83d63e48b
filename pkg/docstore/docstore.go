package docstore

import (
	"context"
	"errors"
)

// ErrNoDocument is returned by GetByID when no document carries the given id.
var ErrNoDocument = errors.New("docstore: no document found")

// Sort orders a Find result by a single field.
type Sort struct {
	Field string
	Desc  bool
}

// Store is the document-database contract the preservation core depends on.
// Identity values round-trip as opaque strings at this boundary regardless of
// the native id type the backing store uses.
type Store interface {
	// Insert stores a new document and returns its id. If the document
	// already carries an "_id" field, that value is used.
	Insert(ctx context.Context, collection string, doc map[string]any) (string, error)

	// GetByID returns the document with the given id, or ErrNoDocument.
	GetByID(ctx context.Context, collection, id string) (map[string]any, error)

	// UpdateFields sets the given top-level fields on the document.
	// Returns false if no document matched.
	UpdateFields(ctx context.Context, collection, id string, fields map[string]any) (bool, error)

	// AppendToArray pushes element onto the named array field.
	// Returns false if no document matched.
	AppendToArray(ctx context.Context, collection, id, field string, element any) (bool, error)

	// Find returns documents matching the equality filter, paginated.
	Find(ctx context.Context, collection string, filter map[string]any, skip, limit int64, sort *Sort) ([]map[string]any, error)

	// Count returns the number of documents matching the equality filter.
	Count(ctx context.Context, collection string, filter map[string]any) (int64, error)

	Close(ctx context.Context) error
}
