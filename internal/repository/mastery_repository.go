package repository

import (
	"context"
	"fmt"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MasteryRepository struct {
	collection *mongo.Collection
	policy     adaptive.Config
}

func NewMasteryRepository(database *mongo.Database, policy *adaptive.Manager) *MasteryRepository {
	return &MasteryRepository{
		collection: database.Collection("mastery_records"),
		policy:     policy.Config(),
	}
}

// InitializeIndexes creates the unique (user, topic) index the upsert relies on.
func (r *MasteryRepository) InitializeIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "topic", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "last_practiced", Value: -1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create mastery indexes: %w", err)
	}
	return nil
}

func (r *MasteryRepository) Get(ctx context.Context, userID string, topics []string) ([]models.MasteryRecord, error) {
	filter := bson.M{"user_id": userID}
	if topics != nil {
		filter["topic"] = bson.M{"$in": topics}
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_practiced", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find mastery records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.MasteryRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode mastery records: %w", err)
	}
	return records, nil
}

// Upsert applies one attempt with a pipeline update so the increment and the
// derived fields are computed server-side in one document write. Two
// concurrent first attempts can race on the unique index; the loser retries
// once and lands on the update path.
func (r *MasteryRepository) Upsert(ctx context.Context, update models.MasteryUpdate) (*models.MasteryRecord, error) {
	at := update.PracticedAt.UTC()
	if update.PracticedAt.IsZero() {
		at = time.Now().UTC()
	}

	filter := bson.M{"user_id": update.UserID, "topic": update.Topic}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec models.MasteryRecord
	err := r.collection.FindOneAndUpdate(ctx, filter, r.pipeline(update.Correct, at), opts).Decode(&rec)
	if mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOneAndUpdate(ctx, filter, r.pipeline(update.Correct, at), opts).Decode(&rec)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mastery for topic %q: %w", update.Topic, err)
	}
	return &rec, nil
}

func (r *MasteryRepository) pipeline(correct bool, at time.Time) mongo.Pipeline {
	day := models.EpochDay(at)
	inc := 0
	if correct {
		inc = 1
	}
	attempted := bson.M{"$ifNull": bson.A{"$questions_attempted", 0}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"_id": bson.M{"$ifNull": bson.A{"$_id", uuid.NewString()}},
			"streak_days": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{"case": bson.M{"$eq": bson.A{attempted, 0}}, "then": 1},
					bson.M{
						"case": bson.M{"$lte": bson.A{day, "$last_practiced_day"}},
						"then": bson.M{"$max": bson.A{bson.M{"$ifNull": bson.A{"$streak_days", 1}}, 1}},
					},
					bson.M{
						"case": bson.M{"$eq": bson.A{day, bson.M{"$add": bson.A{"$last_practiced_day", 1}}}},
						"then": bson.M{"$add": bson.A{"$streak_days", 1}},
					},
				},
				"default": 1,
			}},
			"last_practiced_day":  bson.M{"$max": bson.A{bson.M{"$ifNull": bson.A{"$last_practiced_day", day}}, day}},
			"questions_attempted": bson.M{"$add": bson.A{attempted, 1}},
			"questions_correct":   bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$questions_correct", 0}}, inc}},
			"last_practiced":      at,
			"updated_at":          at,
			"created_at":          bson.M{"$ifNull": bson.A{"$created_at", at}},
		}}},
		{{Key: "$set", Value: bson.M{
			"mastery_level": bson.M{"$divide": bson.A{"$questions_correct", "$questions_attempted"}},
		}}},
		{{Key: "$set", Value: bson.M{
			"needs_review": bson.M{"$or": bson.A{
				bson.M{"$lt": bson.A{"$mastery_level", r.policy.WeakMastery}},
				bson.M{"$and": bson.A{!correct, bson.M{"$gt": bson.A{"$questions_attempted", r.policy.ReviewAttemptFloor}}}},
			}},
		}}},
	}
}
