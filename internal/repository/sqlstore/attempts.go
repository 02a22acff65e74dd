package sqlstore

import (
	"context"
	"fmt"
	"time"

	"practice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptStore struct {
	db *gorm.DB
}

func NewAttemptStore(db *gorm.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) Append(ctx context.Context, attempt *models.QuestionAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) RecentQuestionIDs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.QuestionAttempt{}).
		Where("user_id = ? AND attempted_at >= ?", userID, since.UTC()).
		Distinct().
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent attempts: %w", err)
	}
	return ids, nil
}
