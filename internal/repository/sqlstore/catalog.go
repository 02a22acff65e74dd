package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"practice-service/internal/apperr"
	"practice-service/internal/models"
	"practice-service/internal/repository"

	"gorm.io/gorm"
)

// Catalog reads content tables. Choices are preloaded in display order.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func preloadChoices(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}

func (c *Catalog) CertificationIDByName(ctx context.Context, name string) (string, error) {
	var cert models.Certification
	err := c.db.WithContext(ctx).Where("name = ?", name).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("certification %q not found", name)
		}
		return "", fmt.Errorf("failed to find certification: %w", err)
	}
	return cert.ID, nil
}

func (c *Catalog) QueryQuestions(ctx context.Context, filter repository.QuestionFilter) ([]models.Question, error) {
	q := c.db.WithContext(ctx).Preload("Choices", preloadChoices)
	if filter.CertificationID != "" {
		q = q.Where("certification_id = ?", filter.CertificationID)
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if len(filter.Difficulties) > 0 {
		q = q.Where("difficulty IN ?", filter.Difficulties)
	}
	if len(filter.TopicIDs) > 0 {
		q = q.Where("topic_id IN ?", filter.TopicIDs)
	}

	questions := []models.Question{}
	if err := q.Order("id").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	return questions, nil
}

func (c *Catalog) QuestionByID(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := c.db.WithContext(ctx).Preload("Choices", preloadChoices).Where("id = ?", id).First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("question %q not found", id)
		}
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	return &q, nil
}

func (c *Catalog) QuestionTopic(ctx context.Context, questionID string) (string, error) {
	var topic models.Topic
	err := c.db.WithContext(ctx).
		Joins("JOIN questions ON questions.topic_id = topics.id").
		Where("questions.id = ?", questionID).
		First(&topic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("topic for question %q not found", questionID)
		}
		return "", fmt.Errorf("failed to find question topic: %w", err)
	}
	return topic.Name, nil
}

func (c *Catalog) TopicIDsByName(ctx context.Context, certificationID string, names []string) ([]string, error) {
	ids := []string{}
	if len(names) == 0 {
		return ids, nil
	}
	err := c.db.WithContext(ctx).
		Model(&models.Topic{}).
		Where("certification_id = ? AND name IN ?", certificationID, names).
		Order("name").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find topics: %w", err)
	}
	return ids, nil
}

func (c *Catalog) TopicNamesForCertification(ctx context.Context, certificationID string) ([]string, error) {
	names := []string{}
	err := c.db.WithContext(ctx).
		Model(&models.Topic{}).
		Where("certification_id = ?", certificationID).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find topics: %w", err)
	}
	return names, nil
}
