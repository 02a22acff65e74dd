package models

import "time"

// QuestionAttempt is an append-only answer event. It is the only source
// from which mastery records can be recomputed.
type QuestionAttempt struct {
	ID               string    `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID           string    `bson:"user_id" json:"user_id" gorm:"index:idx_attempt_user_time;not null;type:varchar(64)"`
	SessionID        string    `bson:"session_id" json:"session_id" gorm:"index;not null;type:varchar(64)"`
	QuestionID       string    `bson:"question_id" json:"question_id" gorm:"index;not null;type:varchar(64)"`
	SelectedAnswerID string    `bson:"selected_answer_id,omitempty" json:"selected_answer_id,omitempty" gorm:"type:varchar(64)"`
	IsCorrect        bool      `bson:"is_correct" json:"is_correct"`
	TimeSpentSeconds int       `bson:"time_spent_seconds" json:"time_spent_seconds"`
	ConfidenceLevel  int       `bson:"confidence_level" json:"confidence_level"`
	AttemptedAt      time.Time `bson:"attempted_at" json:"attempted_at" gorm:"index:idx_attempt_user_time"`
}
