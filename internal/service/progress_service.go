package service

import (
	"context"
	"strings"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/apperr"
	"practice-service/internal/models"
	"practice-service/internal/repository"
	"practice-service/internal/selection"
)

// PoolResolver is the resolver view used for pool diagnostics.
type PoolResolver interface {
	Explain(ctx context.Context, userID, certificationName string, window time.Duration) (*selection.Pool, error)
	DefaultWindow() time.Duration
}

type ProgressReport struct {
	Certification string                 `json:"certification,omitempty"`
	Topics        []models.MasteryRecord `json:"topics"`
	Summary       *adaptive.Assessment   `json:"summary"`
}

type PoolInfo struct {
	Certification    string                      `json:"certification"`
	Strategy         string                      `json:"strategy"`
	CandidateCount   int                         `json:"candidate_count"`
	DifficultyCounts map[models.Difficulty]int   `json:"difficulty_counts"`
	Failures         []selection.StrategyFailure `json:"failures"`
	Assessment       *adaptive.Assessment        `json:"assessment"`
}

type ProgressService struct {
	mastery repository.MasteryStore
	catalog repository.Catalog
	pools   PoolResolver
	policy  *adaptive.Manager
}

func NewProgressService(mastery repository.MasteryStore, catalog repository.Catalog, pools PoolResolver, policy *adaptive.Manager) *ProgressService {
	return &ProgressService{mastery: mastery, catalog: catalog, pools: pools, policy: policy}
}

// Progress returns the learner's mastery records, limited to one
// certification's topics when a name is given.
func (s *ProgressService) Progress(ctx context.Context, userID, certificationName string) (*ProgressReport, error) {
	if userID == "" {
		return nil, apperr.InvalidArgument("user id is required")
	}
	certificationName = strings.TrimSpace(certificationName)

	var topics []string
	if certificationName != "" {
		certID, err := s.catalog.CertificationIDByName(ctx, certificationName)
		if err != nil {
			return nil, err
		}
		topics, err = s.catalog.TopicNamesForCertification(ctx, certID)
		if err != nil {
			return nil, err
		}
	}

	records, err := s.mastery.Get(ctx, userID, topics)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load mastery")
	}
	return &ProgressReport{
		Certification: certificationName,
		Topics:        records,
		Summary:       s.policy.Assess(records),
	}, nil
}

// PoolInfo explains what a new session would draw from right now.
func (s *ProgressService) PoolInfo(ctx context.Context, userID, certificationName string) (*PoolInfo, error) {
	if userID == "" {
		return nil, apperr.InvalidArgument("user id is required")
	}
	certificationName = strings.TrimSpace(certificationName)
	if certificationName == "" {
		return nil, apperr.InvalidArgument("certification is required")
	}

	pool, err := s.pools.Explain(ctx, userID, certificationName, s.pools.DefaultWindow())
	if err != nil {
		return nil, err
	}

	counts := map[models.Difficulty]int{}
	for _, d := range models.AllDifficulties {
		counts[d] = 0
	}
	for _, q := range pool.Questions {
		counts[q.Difficulty]++
	}
	return &PoolInfo{
		Certification:    certificationName,
		Strategy:         pool.Strategy,
		CandidateCount:   len(pool.Questions),
		DifficultyCounts: counts,
		Failures:         pool.Failures,
		Assessment:       pool.Assessment,
	}, nil
}
