package repository

import (
	"context"
	"errors"
	"fmt"

	"practice-service/internal/apperr"
	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// QuestionRepository reads the content collections. Choices are embedded
// in each question document, so every query returns them loaded.
type QuestionRepository struct {
	certifications *mongo.Collection
	topics         *mongo.Collection
	questions      *mongo.Collection
}

func NewQuestionRepository(database *mongo.Database) *QuestionRepository {
	return &QuestionRepository{
		certifications: database.Collection("certifications"),
		topics:         database.Collection("topics"),
		questions:      database.Collection("questions"),
	}
}

func (r *QuestionRepository) InitializeIndexes(ctx context.Context) error {
	if _, err := r.certifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create certification indexes: %w", err)
	}
	if _, err := r.topics.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "certification_id", Value: 1}, {Key: "name", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create topic indexes: %w", err)
	}
	_, err := r.questions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "certification_id", Value: 1},
				{Key: "active", Value: 1},
				{Key: "difficulty", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "topic_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create question indexes: %w", err)
	}
	return nil
}

func (r *QuestionRepository) CertificationIDByName(ctx context.Context, name string) (string, error) {
	var cert models.Certification
	err := r.certifications.FindOne(ctx, bson.M{"name": name}).Decode(&cert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", apperr.NotFound("certification %q not found", name)
		}
		return "", fmt.Errorf("failed to find certification: %w", err)
	}
	return cert.ID, nil
}

func (r *QuestionRepository) QueryQuestions(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	query := bson.M{}
	if filter.CertificationID != "" {
		query["certification_id"] = filter.CertificationID
	}
	if filter.ActiveOnly {
		query["active"] = true
	}
	if len(filter.Difficulties) > 0 {
		query["difficulty"] = bson.M{"$in": filter.Difficulties}
	}
	if len(filter.TopicIDs) > 0 {
		query["topic_id"] = bson.M{"$in": filter.TopicIDs}
	}

	cursor, err := r.questions.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer cursor.Close(ctx)

	questions := []models.Question{}
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	for i := range questions {
		questions[i].AttachChoices()
	}
	return questions, nil
}

func (r *QuestionRepository) QuestionByID(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := r.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("question %q not found", id)
		}
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	q.AttachChoices()
	return &q, nil
}

func (r *QuestionRepository) QuestionTopic(ctx context.Context, questionID string) (string, error) {
	var q struct {
		TopicID string `bson:"topic_id"`
	}
	opts := options.FindOne().SetProjection(bson.M{"topic_id": 1})
	err := r.questions.FindOne(ctx, bson.M{"_id": questionID}, opts).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", apperr.NotFound("question %q not found", questionID)
		}
		return "", fmt.Errorf("failed to find question topic: %w", err)
	}

	var topic models.Topic
	err = r.topics.FindOne(ctx, bson.M{"_id": q.TopicID}).Decode(&topic)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", apperr.NotFound("topic %q not found", q.TopicID)
		}
		return "", fmt.Errorf("failed to find topic: %w", err)
	}
	return topic.Name, nil
}

func (r *QuestionRepository) TopicIDsByName(ctx context.Context, certificationID string, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}
	topics, err := r.findTopics(ctx, bson.M{"certification_id": certificationID, "name": bson.M{"$in": names}})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(topics))
	for _, t := range topics {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (r *QuestionRepository) TopicNamesForCertification(ctx context.Context, certificationID string) ([]string, error) {
	topics, err := r.findTopics(ctx, bson.M{"certification_id": certificationID})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Name)
	}
	return names, nil
}

func (r *QuestionRepository) findTopics(ctx context.Context, filter bson.M) ([]models.Topic, error) {
	cursor, err := r.topics.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find topics: %w", err)
	}
	defer cursor.Close(ctx)

	topics := []models.Topic{}
	if err := cursor.All(ctx, &topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	return topics, nil
}
