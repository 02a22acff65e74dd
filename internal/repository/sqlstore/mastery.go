package sqlstore

import (
	"context"
	"fmt"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MasteryStore struct {
	db     *gorm.DB
	policy *adaptive.Manager
}

func NewMasteryStore(db *gorm.DB, policy *adaptive.Manager) *MasteryStore {
	return &MasteryStore{db: db, policy: policy}
}

func (s *MasteryStore) Get(ctx context.Context, userID string, topics []string) ([]models.MasteryRecord, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if topics != nil {
		if len(topics) == 0 {
			return []models.MasteryRecord{}, nil
		}
		q = q.Where("topic IN ?", topics)
	}

	records := []models.MasteryRecord{}
	if err := q.Order("last_practiced DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to find mastery records: %w", err)
	}
	return records, nil
}

// Upsert is a single INSERT ... ON CONFLICT (user_id, topic) DO UPDATE whose
// SET clause derives every field from the stored row, so concurrent
// attempts on the same topic serialise on the row lock. The row is read
// back inside the same transaction.
func (s *MasteryStore) Upsert(ctx context.Context, update models.MasteryUpdate) (*models.MasteryRecord, error) {
	at := update.PracticedAt.UTC()
	if update.PracticedAt.IsZero() {
		at = time.Now().UTC()
	}
	cfg := s.policy.Config()
	day := models.EpochDay(at)
	inc := 0
	if update.Correct {
		inc = 1
	}

	insert := models.MasteryRecord{ID: uuid.NewString(), UserID: update.UserID, Topic: update.Topic}
	s.policy.ApplyAttempt(&insert, update.Correct, at)

	ratio := "(mastery_records.questions_correct + ?) * 1.0 / (mastery_records.questions_attempted + 1)"
	assignments := clause.Assignments(map[string]any{
		"questions_attempted": gorm.Expr("mastery_records.questions_attempted + 1"),
		"questions_correct":   gorm.Expr("mastery_records.questions_correct + ?", inc),
		"mastery_level":       gorm.Expr(ratio, inc),
		"needs_review": gorm.Expr(
			"("+ratio+" < ?) OR (? AND mastery_records.questions_attempted + 1 > ?)",
			inc, cfg.WeakMastery, !update.Correct, cfg.ReviewAttemptFloor,
		),
		"streak_days": gorm.Expr(
			"CASE WHEN ? <= mastery_records.last_practiced_day THEN mastery_records.streak_days "+
				"WHEN ? = mastery_records.last_practiced_day + 1 THEN mastery_records.streak_days + 1 ELSE 1 END",
			day, day,
		),
		"last_practiced_day": gorm.Expr(
			"CASE WHEN ? > mastery_records.last_practiced_day THEN ? ELSE mastery_records.last_practiced_day END",
			day, day,
		),
		"last_practiced": at,
		"updated_at":     at,
	})

	var rec models.MasteryRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic"}},
			DoUpdates: assignments,
		}).Create(&insert).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND topic = ?", update.UserID, update.Topic).First(&rec).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mastery for topic %q: %w", update.Topic, err)
	}
	return &rec, nil
}
