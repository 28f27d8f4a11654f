package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartsCollection = "carts"

// changeStreamsUnsupported is the server error returned when change
// streams are opened against a standalone mongod.
const changeStreamsUnsupported = 40573

type cartDocument struct {
	Key       string    `bson:"_id"`
	Lines     string    `bson:"lines"`
	Origin    string    `bson:"origin"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type cartChange struct {
	OperationType string        `bson:"operationType"`
	FullDocument  *cartDocument `bson:"fullDocument"`
}

// MongoStorage keeps one document per cart key. Lines hold the raw JSON
// snapshot so every backend stores the same bytes.
type MongoStorage struct {
	collection *mongo.Collection
	origin     string
}

func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{
		collection: db.Collection(cartsCollection),
		origin:     uuid.NewString(),
	}
}

func (m *MongoStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return []byte(doc.Lines), nil
}

func (m *MongoStorage) Save(ctx context.Context, key string, data []byte) error {
	update := bson.M{"$set": bson.M{
		"lines":      string(data),
		"origin":     m.origin,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *MongoStorage) Delete(ctx context.Context, key string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// Watch follows the cart document through a change stream and signals
// writes made by other MongoStorage instances. Standalone servers have no
// change streams; ErrWatchUnsupported is returned for them.
func (m *MongoStorage) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: key}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := m.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		var se mongo.ServerError
		if errors.As(err, &se) && se.HasErrorCode(changeStreamsUnsupported) {
			return nil, fmt.Errorf("%w: %v", ErrWatchUnsupported, err)
		}
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var change cartChange
			if err := stream.Decode(&change); err != nil {
				continue
			}
			if change.FullDocument != nil && change.FullDocument.Origin == m.origin {
				continue
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}
