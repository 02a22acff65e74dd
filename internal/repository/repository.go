package repository

import (
	"context"
	"time"

	"practice-service/internal/models"
)

// MasteryStore holds one record per (user, topic). Upsert must apply the
// increment and the derived fields in a single atomic statement.
type MasteryStore interface {
	// Get returns the user's records, most recently practiced first.
	// A nil topics slice means every topic.
	Get(ctx context.Context, userID string, topics []string) ([]models.MasteryRecord, error)
	Upsert(ctx context.Context, update models.MasteryUpdate) (*models.MasteryRecord, error)
}

type AttemptStore interface {
	Append(ctx context.Context, attempt *models.QuestionAttempt) error
	// RecentQuestionIDs returns the distinct questions the user attempted at
	// or after since, regardless of correctness.
	RecentQuestionIDs(ctx context.Context, userID string, since time.Time) ([]string, error)
}

// QuestionFilter narrows a catalog query. Empty slices do not filter.
type QuestionFilter struct {
	CertificationID string
	ActiveOnly      bool
	Difficulties    []models.Difficulty
	TopicIDs        []string
}

// Catalog is the read-only view of externally owned content. Lookups of
// missing entities return an apperr not_found error.
type Catalog interface {
	CertificationIDByName(ctx context.Context, name string) (string, error)
	QueryQuestions(ctx context.Context, filter QuestionFilter) ([]models.Question, error)
	QuestionByID(ctx context.Context, id string) (*models.Question, error)
	// QuestionTopic returns the name of the topic a question belongs to.
	QuestionTopic(ctx context.Context, questionID string) (string, error)
	TopicIDsByName(ctx context.Context, certificationID string, names []string) ([]string, error)
	TopicNamesForCertification(ctx context.Context, certificationID string) ([]string, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *models.PracticeSession) error
	Get(ctx context.Context, id string) (*models.PracticeSession, error)
	// ClaimAnswer advances the cursor from index to index+1 if and only if
	// it currently equals index. It reports false when another submission
	// already claimed the slot.
	ClaimAnswer(ctx context.Context, id string, index int) (bool, error)
	// ReleaseAnswer undoes a claim whose attempt could not be recorded.
	ReleaseAnswer(ctx context.Context, id string, index int) error
}
