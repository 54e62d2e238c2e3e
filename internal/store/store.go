package store

import (
	"context"
	"errors"
)

// ErrDocumentNotFound reports an unknown document ID.
var ErrDocumentNotFound = errors.New("document not found")

// Document is one note with the timestamps the resolver needs.
type Document struct {
	// ID is the store-relative identifier, a slash-separated path.
	ID string

	// LiveText is the current content.
	LiveText string

	// ModifiedMs is the live content's modification time, unix ms.
	ModifiedMs int64

	// CreatedMs is the document's creation time, unix ms.
	CreatedMs int64

	// HasHeaderBlock indicates the content starts with a metadata
	// header block.
	HasHeaderBlock bool
}

// DocumentStore is the host-side supplier of documents and archives.
type DocumentStore interface {
	// List returns the IDs of all known documents.
	List(ctx context.Context) ([]string, error)

	// Load returns a document by ID.
	Load(ctx context.Context, id string) (*Document, error)

	// Archive returns the raw version-archive bytes for a document.
	// ok is false when the document has no archive, which is not an
	// error: new documents simply have no history yet.
	Archive(ctx context.Context, id string) (raw []byte, ok bool, err error)
}
