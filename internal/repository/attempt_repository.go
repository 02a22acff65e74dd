package repository

import (
	"context"
	"fmt"
	"time"

	"practice-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type AttemptRepository struct {
	collection *mongo.Collection
}

func NewAttemptRepository(database *mongo.Database) *AttemptRepository {
	return &AttemptRepository{collection: database.Collection("question_attempts")}
}

func (r *AttemptRepository) InitializeIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "attempted_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create attempt indexes: %w", err)
	}
	return nil
}

// Append inserts an attempt. Attempts are never updated or deleted.
func (r *AttemptRepository) Append(ctx context.Context, attempt *models.QuestionAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) RecentQuestionIDs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	filter := bson.M{
		"user_id":      userID,
		"attempted_at": bson.M{"$gte": since.UTC()},
	}
	opts := options.Find().SetProjection(bson.M{"question_id": 1, "_id": 0})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent attempts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		QuestionID string `bson:"question_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode recent attempts: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if !seen[row.QuestionID] {
			seen[row.QuestionID] = true
			ids = append(ids, row.QuestionID)
		}
	}
	return ids, nil
}
