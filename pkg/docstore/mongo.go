package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains the information required to connect to MongoDB.
type MongoConfig struct {
	URI      string
	Database string
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to MongoDB and returns a Store backed by it.
func NewMongo(ctx context.Context, cfg MongoConfig) (Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &mongoStore{client: client, db: client.Database(cfg.Database)}, nil
}

func (s *mongoStore) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	res, err := s.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", err
	}
	return idToString(res.InsertedID), nil
}

func (s *mongoStore) GetByID(ctx context.Context, collection, id string) (map[string]any, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": idFilter(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	doc["_id"] = idToString(doc["_id"])
	return normalizeMap(doc), nil
}

func (s *mongoStore) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) (bool, error) {
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": idFilter(id)},
		bson.M{"$set": bson.M(fields)},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *mongoStore) AppendToArray(ctx context.Context, collection, id, field string, element any) (bool, error) {
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": idFilter(id)},
		bson.M{"$push": bson.M{field: element}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *mongoStore) Find(ctx context.Context, collection string, filter map[string]any, skip, limit int64, sort *Sort) ([]map[string]any, error) {
	opts := options.Find().SetSkip(skip).SetLimit(limit)
	if sort != nil {
		order := 1
		if sort.Desc {
			order = -1
		}
		opts.SetSort(bson.D{{Key: sort.Field, Value: order}})
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []map[string]any
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		doc["_id"] = idToString(doc["_id"])
		docs = append(docs, normalizeMap(doc))
	}
	return docs, cursor.Err()
}

func (s *mongoStore) Count(ctx context.Context, collection string, filter map[string]any) (int64, error) {
	return s.db.Collection(collection).CountDocuments(ctx, bson.M(filter))
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// idFilter maps an opaque string id back to the native _id value. Hex object
// ids are converted; anything else is matched as a plain string.
func idFilter(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// normalizeMap rewrites BSON-native values into plain Go types so callers
// never see driver primitives: DateTime becomes time.Time, arrays become
// []any, and integer widths collapse to int64.
func normalizeMap(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.A:
		arr := make([]any, len(val))
		for i, item := range val {
			arr[i] = normalizeValue(item)
		}
		return arr
	case bson.M:
		return normalizeMap(val)
	case map[string]any:
		return normalizeMap(val)
	case int32:
		return int64(val)
	case int:
		return int64(val)
	default:
		return v
	}
}

func idToString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
