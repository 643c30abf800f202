package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catalogCollection = "catalog"

type entry struct {
	ID   string `bson:"_id"`
	Kind Kind   `bson:"kind"`
	Name string `bson:"name"`
	Seq  int64  `bson:"seq"`
}

// MongoStore keeps one document per registered name, keyed by kind and
// lower-cased name so concurrent registrations collapse into one.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(catalogCollection)}
}

func (s *MongoStore) Add(ctx context.Context, kind Kind, name string) error {
	id := string(kind) + ":" + strings.ToLower(name)
	n, err := s.coll.CountDocuments(ctx, bson.M{"kind": kind})
	if err != nil {
		return fmt.Errorf("count %s names: %w", kind, err)
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": bson.M{"kind": kind, "name": name, "seq": n}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("register %s %q: %w", kind, name, err)
	}
	return nil
}

func (s *MongoStore) Names(ctx context.Context, kind Kind) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{"kind": kind}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list %s names: %w", kind, err)
	}
	defer cur.Close(ctx)

	var entries []entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out, nil
}
