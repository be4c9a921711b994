// Package storage defines the Storage interface, the contract a document
// database backend must satisfy to hold the student directory.
//
// The model is a two-level document store: named collections of documents,
// where each document is an identifier plus a map of fields. A document can
// own sub-collections, addressed by a slash-separated path such as
//
//	students/{docId}/phones
//
// Backends (memory, SQLite, Firestore, MongoDB) are interchangeable; the
// directory only ever talks to this interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned when a collection path is empty or does not
// name a collection (collection paths have an odd number of segments).
var ErrInvalidPath = errors.New("invalid collection path")

// Document is one stored document: its identifier within the collection and
// its fields.
type Document struct {
	ID   string
	Data map[string]any
}

// String returns the named field when it holds a string, and "" otherwise.
func (d Document) String(field string) string {
	s, _ := d.Data[field].(string)
	return s
}

// Storage is the document database contract.
type Storage interface {
	// Add creates a document with a store-assigned identifier and returns
	// that identifier.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)

	// Set overwrites the whole document with the given identifier, creating
	// it if it does not exist.
	Set(ctx context.Context, collection, id string, data map[string]any) error

	// Delete removes a single document. Sub-collections under it are left
	// alone. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// List returns every document in the collection, ordered by identifier.
	// An empty collection yields an empty slice.
	List(ctx context.Context, collection string) ([]Document, error)

	// Close releases the backend's connections.
	Close() error
}

// SubCollection returns the path of the named sub-collection owned by
// document id in collection parent.
func SubCollection(parent, id, name string) string {
	return parent + "/" + id + "/" + name
}

// ValidatePath checks that collection names a collection: non-empty
// segments, odd in number.
func ValidatePath(collection string) error {
	if collection == "" {
		return ErrInvalidPath
	}

	segments := strings.Split(collection, "/")
	if len(segments)%2 == 0 {
		return fmt.Errorf("%w: %q names a document", ErrInvalidPath, collection)
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, collection)
		}
	}

	return nil
}
