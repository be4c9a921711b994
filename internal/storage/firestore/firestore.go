// Package firestore implements storage.Storage on Google Cloud Firestore.
//
// Collection paths map one to one onto Firestore paths, so the phones of a
// student live in the real sub-collection students/{docId}/phones.
// Firestore does not cascade deletes: removing a student leaves its phone
// documents in place.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/aanand-mishra/students-sync/internal/config"
	"github.com/aanand-mishra/students-sync/internal/storage"
	"google.golang.org/api/option"
)

// Firestore wraps a *firestore.Client, which is safe for concurrent use.
type Firestore struct {
	client *firestore.Client
}

// New connects to the project named in cfg.Storage.FirestoreProject.
// When cfg.Storage.CredentialsFile is empty the client falls back to
// application default credentials (or FIRESTORE_EMULATOR_HOST).
func New(ctx context.Context, cfg *config.Config) (*Firestore, error) {
	var opts []option.ClientOption
	if cfg.Storage.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Storage.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.Storage.FirestoreProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.New: client: %w", err)
	}

	return &Firestore{client: client}, nil
}

// collection resolves path to a collection reference.
func (f *Firestore) collection(path string) (*firestore.CollectionRef, error) {
	if err := storage.ValidatePath(path); err != nil {
		return nil, err
	}

	ref := f.client.Collection(path)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidPath, path)
	}
	return ref, nil
}

// Add lets Firestore assign the document id.
func (f *Firestore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, err := f.collection(collection)
	if err != nil {
		return "", fmt.Errorf("Add: %w", err)
	}

	doc, _, err := ref.Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("Add: %w", err)
	}

	return doc.ID, nil
}

// Set overwrites the document; without merge options Firestore replaces
// every field.
func (f *Firestore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	ref, err := f.collection(collection)
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}

	if _, err := ref.Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("Set: %w", err)
	}

	return nil
}

// Delete removes one document; its sub-collections are not deleted.
func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	ref, err := f.collection(collection)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	if _, err := ref.Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	return nil
}

// List reads the whole collection. Firestore returns documents ordered by
// id.
func (f *Firestore) List(ctx context.Context, collection string) ([]storage.Document, error) {
	ref, err := f.collection(collection)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	snaps, err := ref.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	docs := make([]storage.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, storage.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}

	return docs, nil
}

// Close closes the client.
func (f *Firestore) Close() error {
	return f.client.Close()
}
