// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles: the
// directory, storage backends, and HTTP handlers all import types without
// depending on each other.
package types

// Student represents one student record.
//
// DocID is the identifier the document store assigned to the student's
// parent document. It is empty until the record has been persisted, and it
// is what update and delete address. ID is a separate, user-supplied
// identifier; nothing enforces its uniqueness.
//
// Phones are not stored inline. Each number lives in its own document in
// the student's "phones" sub-collection.
type Student struct {
	DocID   string   `json:"docId"`
	ID      string   `json:"id"      validate:"required"`
	Name    string   `json:"name"    validate:"required"`
	Program string   `json:"program"`
	Phones  []string `json:"phones"  validate:"dive,required"`
}
