package service

import (
	"context"
	"strings"
	"time"

	"practice-service/internal/apperr"
	"practice-service/internal/event"
	"practice-service/internal/logger"
	"practice-service/internal/metrics"
	"practice-service/internal/models"
	"practice-service/internal/repository"
	"practice-service/internal/selection"

	"github.com/google/uuid"
)

// SessionSelector picks the questions for a new session.
type SessionSelector interface {
	SelectSession(ctx context.Context, userID, certificationName string, size int) (*selection.Selection, error)
	MaxSize() int
}

type StartSessionResult struct {
	SessionID string                     `json:"session_id"`
	Questions []models.PresentedQuestion `json:"questions"`
	Strategy  string                     `json:"strategy"`
}

type SubmitAnswerInput struct {
	QuestionID       string `json:"question_id"`
	SelectedAnswerID string `json:"selected_answer_id"`
	AnswerText       string `json:"answer_text"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	ConfidenceLevel  int    `json:"confidence_level"`
}

type SubmitAnswerResult struct {
	IsCorrect         bool                  `json:"is_correct"`
	Explanation       string                `json:"explanation"`
	ChoiceExplanation string                `json:"choice_explanation,omitempty"`
	CorrectAnswerID   string                `json:"correct_answer_id,omitempty"`
	MasteryUpdated    bool                  `json:"mastery_updated"`
	Mastery           *models.MasteryRecord `json:"mastery,omitempty"`
	Answered          int                   `json:"answered"`
	Remaining         int                   `json:"remaining"`
	SessionComplete   bool                  `json:"session_complete"`
}

type SessionStatus struct {
	SessionID     string              `json:"session_id"`
	Certification string              `json:"certification"`
	State         models.SessionState `json:"state"`
	Cursor        int                 `json:"cursor"`
	Total         int                 `json:"total"`
	QuestionIDs   []string            `json:"question_ids"`
	CreatedAt     time.Time           `json:"created_at"`
}

// SessionService drives a practice session: questions are answered one at
// a time in the order they were presented, each exactly once.
type SessionService struct {
	selector    SessionSelector
	catalog     repository.Catalog
	sessions    repository.SessionStore
	recorder    *AttemptService
	publisher   event.Publisher
	log         *logger.Logger
	defaultSize int
	now         func() time.Time
}

func NewSessionService(
	selector SessionSelector,
	catalog repository.Catalog,
	sessions repository.SessionStore,
	recorder *AttemptService,
	publisher event.Publisher,
	log *logger.Logger,
	defaultSize int,
) *SessionService {
	return &SessionService{
		selector:    selector,
		catalog:     catalog,
		sessions:    sessions,
		recorder:    recorder,
		publisher:   publisher,
		log:         log.With("component", "session_service"),
		defaultSize: defaultSize,
		now:         time.Now,
	}
}

// StartSession selects questions and opens a session at the first one.
// A size of 0 uses the configured default.
func (s *SessionService) StartSession(ctx context.Context, userID, certificationName string, size int) (*StartSessionResult, error) {
	certificationName = strings.TrimSpace(certificationName)
	if userID == "" {
		return nil, apperr.InvalidArgument("user id is required")
	}
	if certificationName == "" {
		return nil, apperr.InvalidArgument("certification is required")
	}
	if size == 0 {
		size = s.defaultSize
	}

	sel, err := s.selector.SelectSession(ctx, userID, certificationName, size)
	if err != nil {
		if apperr.Is(err, apperr.KindNoQuestionsAvailable) {
			metrics.SessionsStarted.WithLabelValues("no_questions").Inc()
		} else {
			metrics.SessionsStarted.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	session := &models.PracticeSession{
		ID:                uuid.NewString(),
		UserID:            userID,
		CertificationName: certificationName,
		QuestionIDs:       make([]string, 0, len(sel.Questions)),
		CreatedAt:         s.now().UTC(),
	}
	presented := make([]models.PresentedQuestion, 0, len(sel.Questions))
	for i := range sel.Questions {
		session.QuestionIDs = append(session.QuestionIDs, sel.Questions[i].ID)
		presented = append(presented, sel.Questions[i].Present())
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		metrics.SessionsStarted.WithLabelValues("error").Inc()
		return nil, apperr.Persistence(err, "failed to store session")
	}
	metrics.SessionsStarted.WithLabelValues("started").Inc()

	strategy := ""
	if sel.Pool != nil {
		strategy = sel.Pool.Strategy
	}
	s.log.Info("practice session started",
		"user_id", userID,
		"session_id", session.ID,
		"certification", certificationName,
		"questions", len(session.QuestionIDs),
		"strategy", strategy,
	)
	s.publish(ctx, event.NewSessionStartedEvent(session.ID, userID, certificationName, session.QuestionIDs, strategy))

	return &StartSessionResult{SessionID: session.ID, Questions: presented, Strategy: strategy}, nil
}

// SubmitAnswer grades and records the answer to the presented question.
func (s *SessionService) SubmitAnswer(ctx context.Context, userID, sessionID string, in SubmitAnswerInput) (*SubmitAnswerResult, error) {
	if in.QuestionID == "" {
		return nil, apperr.InvalidArgument("question_id is required")
	}
	if in.SelectedAnswerID == "" && strings.TrimSpace(in.AnswerText) == "" {
		return nil, apperr.InvalidArgument("selected_answer_id or answer_text is required")
	}
	if err := validateAnswerMetadata(in.TimeSpentSeconds, in.ConfidenceLevel); err != nil {
		return nil, err
	}

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State() == models.SessionComplete {
		return nil, apperr.InvalidState("session %s is complete", sessionID)
	}

	index := session.IndexOf(in.QuestionID)
	switch {
	case index < 0:
		return nil, apperr.InvalidArgument("question %s is not part of session %s", in.QuestionID, sessionID)
	case index < session.Cursor:
		return nil, apperr.InvalidState("question %s was already answered", in.QuestionID)
	case index > session.Cursor:
		return nil, apperr.InvalidState("question %s is not the current question", in.QuestionID)
	}

	question, err := s.catalog.QuestionByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if in.SelectedAnswerID != "" {
		if _, ok := question.Choice(in.SelectedAnswerID); !ok {
			return nil, apperr.InvalidArgument("answer %s does not belong to question %s", in.SelectedAnswerID, in.QuestionID)
		}
	}

	claimed, err := s.sessions.ClaimAnswer(ctx, sessionID, index)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.InvalidState("question %s was already answered", in.QuestionID)
	}

	correct := question.Grade(in.SelectedAnswerID, in.AnswerText)
	recorded, err := s.recorder.Record(ctx, userID, sessionID, AttemptInput{
		QuestionID:       in.QuestionID,
		SelectedAnswerID: in.SelectedAnswerID,
		IsCorrect:        correct,
		TimeSpentSeconds: in.TimeSpentSeconds,
		ConfidenceLevel:  in.ConfidenceLevel,
	})
	if err != nil {
		if rerr := s.sessions.ReleaseAnswer(ctx, sessionID, index); rerr != nil {
			s.log.Error("failed to release answer claim",
				"session_id", sessionID,
				"index", index,
				"error", rerr,
			)
		}
		return nil, err
	}

	answered := index + 1
	result := &SubmitAnswerResult{
		IsCorrect:       correct,
		Explanation:     question.Explanation,
		MasteryUpdated:  recorded.MasteryUpdated,
		Mastery:         recorded.Mastery,
		Answered:        answered,
		Remaining:       len(session.QuestionIDs) - answered,
		SessionComplete: answered == len(session.QuestionIDs),
	}
	if choice, ok := question.Choice(in.SelectedAnswerID); ok {
		result.ChoiceExplanation = choice.Explanation
	}
	for _, c := range question.Choices {
		if c.IsCorrect {
			result.CorrectAnswerID = c.ID
			break
		}
	}

	if result.SessionComplete {
		metrics.SessionsCompleted.Inc()
		s.log.Info("practice session completed", "user_id", userID, "session_id", sessionID, "answered", answered)
		s.publish(ctx, event.NewSessionCompletedEvent(sessionID, userID, answered))
	}
	return result, nil
}

// GetSession reports where a session stands.
func (s *SessionService) GetSession(ctx context.Context, userID, sessionID string) (*SessionStatus, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionStatus{
		SessionID:     session.ID,
		Certification: session.CertificationName,
		State:         session.State(),
		Cursor:        session.Cursor,
		Total:         len(session.QuestionIDs),
		QuestionIDs:   session.QuestionIDs,
		CreatedAt:     session.CreatedAt,
	}, nil
}

// ownedSession hides sessions of other users behind not_found.
func (s *SessionService) ownedSession(ctx context.Context, userID, sessionID string) (*models.PracticeSession, error) {
	if sessionID == "" {
		return nil, apperr.InvalidArgument("session id is required")
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperr.NotFound("session %q not found", sessionID)
	}
	return session, nil
}

func (s *SessionService) publish(ctx context.Context, evt event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("failed to publish event", "type", evt.EventType(), "error", err)
	}
}
