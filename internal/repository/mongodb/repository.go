package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/amuvet/internal/domain/models"
)

// Repository defines the interface for the decision audit trail.
type Repository interface {
	SaveDecisionRecord(ctx context.Context, record models.DecisionRecord) error
	DecisionsSince(ctx context.Context, since time.Time) ([]models.DecisionRecord, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB-backed audit repository.
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
		collName: "decision_audit",
	}, nil
}

// SaveDecisionRecord appends one confirmed vet ruling to the audit trail.
func (r *MongoDBRepository) SaveDecisionRecord(ctx context.Context, record models.DecisionRecord) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert decision record: %w", err)
	}
	return nil
}

// DecisionsSince loads audit entries decided at or after the given time,
// newest first. Backs the regulator audit listing.
func (r *MongoDBRepository) DecisionsSince(ctx context.Context, since time.Time) ([]models.DecisionRecord, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	filter := bson.M{"decided_at": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "decided_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.DecisionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode decision records: %w", err)
	}
	return records, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
