package guidelines

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo wraps col and ensures its indexes exist.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "chunk_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"chunk_id": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create guideline indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, g Guideline) error {
	_, err := m.col.InsertOne(ctx, g)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) && g.ChunkID != "" {
			return nil
		}
		return fmt.Errorf("insert guideline: %w", err)
	}
	return nil
}

func (m *MongoRepo) Search(ctx context.Context, terms []string, limit int) ([]Guideline, error) {
	if len(terms) == 0 {
		return m.List(ctx, limit)
	}
	return m.find(ctx, searchFilter(terms), limit)
}

func (m *MongoRepo) List(ctx context.Context, limit int) ([]Guideline, error) {
	return m.find(ctx, bson.M{}, limit)
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, limit int) ([]Guideline, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find guidelines: %w", err)
	}
	defer cur.Close(ctx)

	out := []Guideline{}
	for cur.Next(ctx) {
		var g Guideline
		if err := cur.Decode(&g); err != nil {
			return nil, fmt.Errorf("decode guideline: %w", err)
		}
		out = append(out, g)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate guidelines: %w", err)
	}
	return out, nil
}

// searchFilter matches any term in title, org or text, case-insensitively.
func searchFilter(terms []string) bson.M {
	or := make(bson.A, 0, len(terms)*3)
	for _, t := range terms {
		rx := bson.M{"$regex": regexp.QuoteMeta(t), "$options": "i"}
		or = append(or, bson.M{"title": rx}, bson.M{"org": rx}, bson.M{"text": rx})
	}
	return bson.M{"$or": or}
}
