package repositories

import (
	"context"
	"time"

	"github.com/anonto42/socialnet/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository defines the interface for the activity trail
type ActivityRepository interface {
	Record(ctx context.Context, activity *models.Activity) error
	GetByActorID(ctx context.Context, actorID uint, skip, limit int64) ([]models.Activity, error)
}

// MongoActivityRepository implements ActivityRepository for MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new MongoActivityRepository
func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{collection: db.Collection("activities")}
}

// EnsureIndexes creates the (actor_id, created_at) index used by GetByActorID
func (r *MongoActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Record appends an activity to the trail
func (r *MongoActivityRepository) Record(ctx context.Context, activity *models.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

// GetByActorID retrieves the activities of a user, newest first
func (r *MongoActivityRepository) GetByActorID(ctx context.Context, actorID uint, skip, limit int64) ([]models.Activity, error) {
	activities := []models.Activity{}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"actor_id": actorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// NoopActivityRepository is used when MongoDB is not configured
type NoopActivityRepository struct{}

func (NoopActivityRepository) Record(context.Context, *models.Activity) error { return nil }

func (NoopActivityRepository) GetByActorID(context.Context, uint, int64, int64) ([]models.Activity, error) {
	return []models.Activity{}, nil
}
