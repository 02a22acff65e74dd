// Package fake provides in-memory repository implementations for tests.
package fake

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/apperr"
	"practice-service/internal/models"
	"practice-service/internal/repository"

	"github.com/google/uuid"
)

type Catalog struct {
	mu             sync.Mutex
	Certifications []models.Certification
	Topics         []models.Topic
	Questions      []models.Question
	QueryErr       error
	TopicErr       error
	Queries        int
}

func (c *Catalog) CertificationIDByName(_ context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cert := range c.Certifications {
		if cert.Name == name {
			return cert.ID, nil
		}
	}
	return "", apperr.NotFound("certification %q not found", name)
}

func (c *Catalog) QueryQuestions(_ context.Context, f repository.QuestionFilter) ([]models.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Queries++
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}
	out := []models.Question{}
	for _, q := range c.Questions {
		if f.CertificationID != "" && q.CertificationID != f.CertificationID {
			continue
		}
		if f.ActiveOnly && !q.Active {
			continue
		}
		if len(f.Difficulties) > 0 && !slices.Contains(f.Difficulties, q.Difficulty) {
			continue
		}
		if len(f.TopicIDs) > 0 && !slices.Contains(f.TopicIDs, q.TopicID) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (c *Catalog) QuestionByID(_ context.Context, id string) (*models.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			q := c.Questions[i]
			return &q, nil
		}
	}
	return nil, apperr.NotFound("question %q not found", id)
}

func (c *Catalog) QuestionTopic(_ context.Context, questionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TopicErr != nil {
		return "", c.TopicErr
	}
	for _, q := range c.Questions {
		if q.ID != questionID {
			continue
		}
		for _, t := range c.Topics {
			if t.ID == q.TopicID {
				return t.Name, nil
			}
		}
	}
	return "", apperr.NotFound("topic for question %q not found", questionID)
}

func (c *Catalog) TopicIDsByName(_ context.Context, certificationID string, names []string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := []string{}
	for _, t := range c.Topics {
		if t.CertificationID == certificationID && slices.Contains(names, t.Name) {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (c *Catalog) TopicNamesForCertification(_ context.Context, certificationID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := []string{}
	for _, t := range c.Topics {
		if t.CertificationID == certificationID {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// MasteryStore applies the policy under a mutex, which gives the same
// atomicity the real stores get from single-statement upserts.
type MasteryStore struct {
	mu        sync.Mutex
	Policy    *adaptive.Manager
	Records   map[string]*models.MasteryRecord
	UpsertErr error
	Upserts   int
}

func NewMasteryStore(policy *adaptive.Manager) *MasteryStore {
	return &MasteryStore{Policy: policy, Records: make(map[string]*models.MasteryRecord)}
}

func key(userID, topic string) string {
	return userID + "\x00" + topic
}

// Seed stores a record as-is.
func (s *MasteryStore) Seed(rec models.MasteryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.Records[key(rec.UserID, rec.Topic)] = &rec
}

func (s *MasteryStore) Get(_ context.Context, userID string, topics []string) ([]models.MasteryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MasteryRecord{}
	for _, rec := range s.Records {
		if rec.UserID != userID {
			continue
		}
		if topics != nil && !slices.Contains(topics, rec.Topic) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastPracticed.After(out[j].LastPracticed) })
	return out, nil
}

func (s *MasteryStore) Upsert(_ context.Context, u models.MasteryUpdate) (*models.MasteryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return nil, s.UpsertErr
	}
	s.Upserts++
	k := key(u.UserID, u.Topic)
	rec, ok := s.Records[k]
	if !ok {
		rec = &models.MasteryRecord{ID: uuid.NewString(), UserID: u.UserID, Topic: u.Topic}
		s.Records[k] = rec
	}
	at := u.PracticedAt
	if at.IsZero() {
		at = time.Now()
	}
	s.Policy.ApplyAttempt(rec, u.Correct, at)
	cp := *rec
	return &cp, nil
}

type AttemptStore struct {
	mu        sync.Mutex
	Attempts  []models.QuestionAttempt
	AppendErr error
	RecentErr error
}

func (s *AttemptStore) Append(_ context.Context, a *models.QuestionAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}
	s.Attempts = append(s.Attempts, *a)
	return nil
}

func (s *AttemptStore) RecentQuestionIDs(_ context.Context, userID string, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecentErr != nil {
		return nil, s.RecentErr
	}
	seen := map[string]bool{}
	ids := []string{}
	for _, a := range s.Attempts {
		if a.UserID == userID && !a.AttemptedAt.Before(since) && !seen[a.QuestionID] {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}
	return ids, nil
}

func (s *AttemptStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Attempts)
}
