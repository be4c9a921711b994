// Package mongo implements storage.Storage on MongoDB.
//
// Each collection path becomes one MongoDB collection; slashes are replaced
// with dots, so students/{docId}/phones is stored in "students.{docId}.phones".
// Documents keep their identifier in _id and their fields alongside it.
package mongo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aanand-mishra/students-sync/internal/config"
	"github.com/aanand-mishra/students-sync/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const idField = "_id"

// Mongo holds one database handle; *mongo.Client is safe for concurrent use.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to cfg.Storage.MongoURI and pings the server so a bad URI
// fails at startup rather than on the first write.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Storage.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	return &Mongo{client: client, db: client.Database(cfg.Storage.MongoDatabase)}, nil
}

// CollectionName maps a collection path onto a MongoDB collection name.
func CollectionName(path string) string {
	return strings.ReplaceAll(path, "/", ".")
}

// collection returns the MongoDB collection backing path.
func (m *Mongo) collection(path string) (*mongo.Collection, error) {
	if err := storage.ValidatePath(path); err != nil {
		return nil, err
	}
	return m.db.Collection(CollectionName(path)), nil
}

// toBSON builds the stored form of a document, with id under _id.
func toBSON(id string, data map[string]any) bson.M {
	doc := bson.M{idField: id}
	for k, v := range data {
		if k == idField {
			continue
		}
		doc[k] = v
	}
	return doc
}

// Add inserts a document under a freshly generated UUID.
func (m *Mongo) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	coll, err := m.collection(collection)
	if err != nil {
		return "", fmt.Errorf("Add: %w", err)
	}

	id := uuid.NewString()
	if _, err := coll.InsertOne(ctx, toBSON(id, data)); err != nil {
		return "", fmt.Errorf("Add: insert: %w", err)
	}

	return id, nil
}

// Set replaces the document, inserting it when it does not exist yet.
func (m *Mongo) Set(ctx context.Context, collection, id string, data map[string]any) error {
	coll, err := m.collection(collection)
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}

	_, err = coll.ReplaceOne(ctx,
		bson.D{{Key: idField, Value: id}},
		toBSON(id, data),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("Set: replace: %w", err)
	}

	return nil
}

// Delete removes one document. Sub-collections are separate MongoDB
// collections and stay in place.
func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	coll, err := m.collection(collection)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	if _, err := coll.DeleteOne(ctx, bson.D{{Key: idField, Value: id}}); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	return nil
}

// List returns every document of the collection ordered by _id.
func (m *Mongo) List(ctx context.Context, collection string) ([]storage.Document, error) {
	coll, err := m.collection(collection)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: idField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("List: find: %w", err)
	}

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("List: decode: %w", err)
	}

	docs := make([]storage.Document, 0, len(raw))
	for _, r := range raw {
		id, _ := r[idField].(string)
		delete(r, idField)
		docs = append(docs, storage.Document{ID: id, Data: map[string]any(r)})
	}

	return docs, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
