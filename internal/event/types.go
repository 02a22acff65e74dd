package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeSessionStarted   = "practice.session.started"
	TypeSessionCompleted = "practice.session.completed"
	TypeAttemptRecorded  = "practice.attempt.recorded"
	TypeMasteryUpdated   = "practice.mastery.updated"
)

// Event is anything that can be published; its type is the routing key.
type Event interface {
	EventType() string
}

type BaseEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}

func (e BaseEvent) EventType() string { return e.Type }

func newBase(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

type SessionStartedEvent struct {
	BaseEvent
	SessionID     string   `json:"session_id"`
	UserID        string   `json:"user_id"`
	Certification string   `json:"certification"`
	QuestionIDs   []string `json:"question_ids"`
	Strategy      string   `json:"strategy"`
}

type SessionCompletedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Answered  int    `json:"answered"`
}

type AttemptRecordedEvent struct {
	BaseEvent
	AttemptID  string `json:"attempt_id"`
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
}

type MasteryUpdatedEvent struct {
	BaseEvent
	UserID             string  `json:"user_id"`
	Topic              string  `json:"topic"`
	MasteryLevel       float64 `json:"mastery_level"`
	QuestionsAttempted int     `json:"questions_attempted"`
	NeedsReview        bool    `json:"needs_review"`
	StreakDays         int     `json:"streak_days"`
}

func NewSessionStartedEvent(sessionID, userID, certification string, questionIDs []string, strategy string) *SessionStartedEvent {
	return &SessionStartedEvent{
		BaseEvent:     newBase(TypeSessionStarted),
		SessionID:     sessionID,
		UserID:        userID,
		Certification: certification,
		QuestionIDs:   questionIDs,
		Strategy:      strategy,
	}
}

func NewSessionCompletedEvent(sessionID, userID string, answered int) *SessionCompletedEvent {
	return &SessionCompletedEvent{
		BaseEvent: newBase(TypeSessionCompleted),
		SessionID: sessionID,
		UserID:    userID,
		Answered:  answered,
	}
}

func NewAttemptRecordedEvent(attemptID, sessionID, userID, questionID string, correct bool) *AttemptRecordedEvent {
	return &AttemptRecordedEvent{
		BaseEvent:  newBase(TypeAttemptRecorded),
		AttemptID:  attemptID,
		SessionID:  sessionID,
		UserID:     userID,
		QuestionID: questionID,
		IsCorrect:  correct,
	}
}

func NewMasteryUpdatedEvent(userID, topic string, level float64, attempted int, needsReview bool, streak int) *MasteryUpdatedEvent {
	return &MasteryUpdatedEvent{
		BaseEvent:          newBase(TypeMasteryUpdated),
		UserID:             userID,
		Topic:              topic,
		MasteryLevel:       level,
		QuestionsAttempted: attempted,
		NeedsReview:        needsReview,
		StreakDays:         streak,
	}
}
