package service

import (
	"context"
	"time"

	"practice-service/internal/apperr"
	"practice-service/internal/event"
	"practice-service/internal/logger"
	"practice-service/internal/metrics"
	"practice-service/internal/models"
	"practice-service/internal/repository"
)

// AttemptInput is a graded answer ready to be recorded.
type AttemptInput struct {
	QuestionID       string
	SelectedAnswerID string
	IsCorrect        bool
	TimeSpentSeconds int
	// ConfidenceLevel is 1..5, or 0 when the learner gave none.
	ConfidenceLevel int
	AttemptedAt     time.Time
}

// RecordResult reports what was stored. A mastery failure does not fail
// the recording; it is carried in MasteryErr.
type RecordResult struct {
	Attempt        *models.QuestionAttempt
	Topic          string
	Mastery        *models.MasteryRecord
	MasteryUpdated bool
	MasteryErr     error
}

type AttemptService struct {
	attempts  repository.AttemptStore
	mastery   repository.MasteryStore
	catalog   repository.Catalog
	publisher event.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewAttemptService(
	attempts repository.AttemptStore,
	mastery repository.MasteryStore,
	catalog repository.Catalog,
	publisher event.Publisher,
	log *logger.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		mastery:   mastery,
		catalog:   catalog,
		publisher: publisher,
		log:       log.With("component", "attempt_service"),
		now:       time.Now,
	}
}

func validateAnswerMetadata(timeSpentSeconds, confidenceLevel int) error {
	if timeSpentSeconds < 0 {
		return apperr.InvalidArgument("time spent must not be negative")
	}
	if confidenceLevel < 0 || confidenceLevel > 5 {
		return apperr.InvalidArgument("confidence level %d outside 0..5", confidenceLevel)
	}
	return nil
}

// Record appends the attempt and folds it into the learner's mastery for
// the question's topic. Only the append can fail the call.
func (s *AttemptService) Record(ctx context.Context, userID, sessionID string, in AttemptInput) (*RecordResult, error) {
	switch {
	case userID == "":
		return nil, apperr.InvalidArgument("user id is required")
	case sessionID == "":
		return nil, apperr.InvalidArgument("session id is required")
	case in.QuestionID == "":
		return nil, apperr.InvalidArgument("question id is required")
	}
	if err := validateAnswerMetadata(in.TimeSpentSeconds, in.ConfidenceLevel); err != nil {
		return nil, err
	}

	at := in.AttemptedAt
	if at.IsZero() {
		at = s.now()
	}
	attempt := &models.QuestionAttempt{
		UserID:           userID,
		SessionID:        sessionID,
		QuestionID:       in.QuestionID,
		SelectedAnswerID: in.SelectedAnswerID,
		IsCorrect:        in.IsCorrect,
		TimeSpentSeconds: in.TimeSpentSeconds,
		ConfidenceLevel:  in.ConfidenceLevel,
		AttemptedAt:      at.UTC(),
	}
	if err := s.attempts.Append(ctx, attempt); err != nil {
		return nil, apperr.Persistence(err, "failed to record attempt")
	}

	result := &RecordResult{Attempt: attempt}
	if in.IsCorrect {
		metrics.AnswersSubmitted.WithLabelValues("correct").Inc()
	} else {
		metrics.AnswersSubmitted.WithLabelValues("incorrect").Inc()
	}
	s.publish(ctx, event.NewAttemptRecordedEvent(attempt.ID, sessionID, userID, in.QuestionID, in.IsCorrect))

	topic, err := s.catalog.QuestionTopic(ctx, in.QuestionID)
	if err != nil {
		metrics.MasteryUpdateFailures.WithLabelValues("topic").Inc()
		s.log.Warn("skipping mastery update, topic lookup failed",
			"user_id", userID,
			"question_id", in.QuestionID,
			"error", err,
		)
		result.MasteryErr = err
		return result, nil
	}
	result.Topic = topic

	rec, err := s.mastery.Upsert(ctx, models.MasteryUpdate{
		UserID:      userID,
		Topic:       topic,
		Correct:     in.IsCorrect,
		PracticedAt: attempt.AttemptedAt,
	})
	if err != nil {
		metrics.MasteryUpdateFailures.WithLabelValues("upsert").Inc()
		s.log.Error("mastery update failed",
			"user_id", userID,
			"topic", topic,
			"error", err,
		)
		result.MasteryErr = err
		return result, nil
	}

	result.Mastery = rec
	result.MasteryUpdated = true
	s.publish(ctx, event.NewMasteryUpdatedEvent(userID, topic, rec.MasteryLevel, rec.QuestionsAttempted, rec.NeedsReview, rec.StreakDays))
	return result, nil
}

func (s *AttemptService) publish(ctx context.Context, evt event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("failed to publish event", "type", evt.EventType(), "error", err)
	}
}
