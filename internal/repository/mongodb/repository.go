package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/barberia/internal/domain/models"
)

// Journal defines the interface for the booking audit trail.
type Journal interface {
	Record(ctx context.Context, entry models.JournalEntry) error
	EntriesBetween(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
}

// MongoDBRepository implements Journal on a MongoDB collection.
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

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "booking_journal",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// Record stores one journal entry.
func (r *MongoDBRepository) Record(ctx context.Context, entry models.JournalEntry) error {
	if _, err := r.collection().InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// EntriesBetween lists entries created in [start, end), oldest first.
func (r *MongoDBRepository) EntriesBetween(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error) {
	filter := bson.M{"created_at": bson.M{"$gte": start, "$lt": end}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode journal: %w", err)
	}
	return entries, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// NopJournal discards entries; used when no MongoDB is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, models.JournalEntry) error { return nil }

func (NopJournal) EntriesBetween(context.Context, time.Time, time.Time) ([]models.JournalEntry, error) {
	return nil, nil
}
