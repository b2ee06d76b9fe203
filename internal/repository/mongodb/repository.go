package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

const changesCollection = "asset_changes"

// Journal defines the interface for asset change storage.
type Journal interface {
	RecordChange(ctx context.Context, change models.AssetChange) error
	RecentChanges(ctx context.Context, assetID string, limit int64) ([]models.AssetChange, error)
}

// MongoDBRepository implements the Journal interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: changesCollection,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create asset change index: %w", err)
	}
	return nil
}

// RecordChange appends one change entry.
func (r *MongoDBRepository) RecordChange(ctx context.Context, change models.AssetChange) error {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection().InsertOne(ctx, change); err != nil {
		return fmt.Errorf("failed to insert asset change: %w", err)
	}
	return nil
}

// RecentChanges returns the latest changes of one asset, newest first.
func (r *MongoDBRepository) RecentChanges(ctx context.Context, assetID string, limit int64) ([]models.AssetChange, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection().Find(ctx, bson.M{"asset_id": assetID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset changes: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var changes []models.AssetChange
	if err := cursor.All(ctx, &changes); err != nil {
		return nil, fmt.Errorf("failed to decode asset changes: %w", err)
	}
	return changes, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
