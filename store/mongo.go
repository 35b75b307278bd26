package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"impressive-vote/models"
)

// MongoStore keeps the game record as a single document in the games
// collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a store backed by the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("games")}
}

func (s *MongoStore) Load(ctx context.Context) (*models.Game, error) {
	var game models.Game
	err := s.coll.FindOne(ctx, bson.M{}).Decode(&game)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	return &game, nil
}

func (s *MongoStore) Save(ctx context.Context, game *models.Game) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{}, game, opts); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func (s *MongoStore) Reset(ctx context.Context, fresh *models.Game) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("reset game: %w", err)
	}
	if _, err := s.coll.InsertOne(ctx, fresh); err != nil {
		return fmt.Errorf("reset game: %w", err)
	}
	return nil
}
