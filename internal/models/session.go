package models

import "time"

type SessionState string

const (
	SessionPresenting SessionState = "presenting"
	SessionComplete   SessionState = "complete"
)

// PracticeSession is the facade's view of one linear question sequence.
// Cursor is the index of the question currently presented; it equals
// len(QuestionIDs) once every question has been answered.
type PracticeSession struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	CertificationName string    `json:"certification"`
	QuestionIDs       []string  `json:"question_ids"`
	Cursor            int       `json:"cursor"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *PracticeSession) State() SessionState {
	if s.Cursor >= len(s.QuestionIDs) {
		return SessionComplete
	}
	return SessionPresenting
}

// IndexOf returns the position of a question in the session, or -1.
func (s *PracticeSession) IndexOf(questionID string) int {
	for i, id := range s.QuestionIDs {
		if id == questionID {
			return i
		}
	}
	return -1
}
