package models

import "time"

// MasteryRecord is the durable performance record for one (user, topic).
// It is created on the first attempt and never deleted.
type MasteryRecord struct {
	ID                 string    `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID             string    `bson:"user_id" json:"user_id" gorm:"uniqueIndex:idx_mastery_user_topic;not null;type:varchar(64)"`
	Topic              string    `bson:"topic" json:"topic" gorm:"uniqueIndex:idx_mastery_user_topic;not null"`
	MasteryLevel       float64   `bson:"mastery_level" json:"mastery_level"`
	QuestionsAttempted int       `bson:"questions_attempted" json:"questions_attempted"`
	QuestionsCorrect   int       `bson:"questions_correct" json:"questions_correct"`
	LastPracticed      time.Time `bson:"last_practiced" json:"last_practiced" gorm:"index"`
	LastPracticedDay   int64     `bson:"last_practiced_day" json:"-"`
	NeedsReview        bool      `bson:"needs_review" json:"needs_review"`
	StreakDays         int       `bson:"streak_days" json:"streak_days"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}

// MasteryUpdate is one answered question applied to a mastery record.
type MasteryUpdate struct {
	UserID      string
	Topic       string
	Correct     bool
	PracticedAt time.Time
}

// EpochDay numbers UTC calendar days so streaks can be computed with
// integer arithmetic inside the store.
func EpochDay(t time.Time) int64 {
	sec := t.UTC().Unix()
	day := sec / 86400
	if sec < 0 && sec%86400 != 0 {
		day--
	}
	return day
}

// Ratio returns correct/attempted, or 0 before the first attempt.
func (m *MasteryRecord) Ratio() float64 {
	if m.QuestionsAttempted == 0 {
		return 0
	}
	return float64(m.QuestionsCorrect) / float64(m.QuestionsAttempted)
}
