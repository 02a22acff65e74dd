package selection

import (
	"context"
	"fmt"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/logger"
	"practice-service/internal/metrics"
	"practice-service/internal/models"
	"practice-service/internal/repository"
)

// PoolManager resolves the candidate questions for a learner from their
// mastery records, the catalog and their recent attempts.
type PoolManager struct {
	catalog  repository.Catalog
	mastery  repository.MasteryStore
	attempts repository.AttemptStore
	policy   *adaptive.Manager
	log      *logger.Logger
	now      func() time.Time
}

// NewPoolManager creates a new pool manager
func NewPoolManager(
	catalog repository.Catalog,
	mastery repository.MasteryStore,
	attempts repository.AttemptStore,
	policy *adaptive.Manager,
	log *logger.Logger,
) *PoolManager {
	return &PoolManager{
		catalog:  catalog,
		mastery:  mastery,
		attempts: attempts,
		policy:   policy,
		log:      log.With("component", "pool_manager"),
		now:      time.Now,
	}
}

// DefaultWindow is the configured recency exclusion window.
func (pm *PoolManager) DefaultWindow() time.Duration {
	return pm.policy.Config().ExcludeRecent
}

// Resolve runs the strategy list until one yields candidates. An empty
// pool is not an error; the caller decides what an empty pool means.
func (pm *PoolManager) Resolve(ctx context.Context, userID, certificationName string, window time.Duration) (*Pool, error) {
	return pm.resolve(ctx, userID, certificationName, window, true)
}

// Explain resolves like Resolve without counting strategy outcomes or
// logging them. Used for diagnostics that do not start a session.
func (pm *PoolManager) Explain(ctx context.Context, userID, certificationName string, window time.Duration) (*Pool, error) {
	return pm.resolve(ctx, userID, certificationName, window, false)
}

func (pm *PoolManager) resolve(ctx context.Context, userID, certificationName string, window time.Duration, record bool) (*Pool, error) {
	certID, err := pm.catalog.CertificationIDByName(ctx, certificationName)
	if err != nil {
		return nil, err
	}

	records, err := pm.mastery.Get(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load mastery: %w", err)
	}
	assessment := pm.policy.Assess(records)

	weakTopicIDs := []string{}
	if len(assessment.WeakTopics) > 0 {
		weakTopicIDs, err = pm.catalog.TopicIDsByName(ctx, certID, assessment.WeakTopics)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve weak topics: %w", err)
		}
	}

	r := &resolution{
		pm:           pm,
		userID:       userID,
		certID:       certID,
		band:         assessment.Band,
		weakTopicIDs: weakTopicIDs,
		bases:        make(map[bool][]models.Question),
		recent:       make(map[time.Duration]map[string]bool),
	}

	pool := &Pool{CertificationID: certID, Assessment: assessment, Failures: []StrategyFailure{}}
	var lastReason FailureReason
	for _, st := range Strategies(window, pm.policy.Config().SoftenedExclude) {
		if st.AllTopics && !st.LastResort && lastReason != ReasonNoWeakTopics && lastReason != ReasonEmptyBasePool {
			continue
		}

		questions, reason, err := r.run(ctx, st)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			lastReason = reason
			pool.Failures = append(pool.Failures, StrategyFailure{Strategy: st.Name, Reason: reason})
			if record {
				metrics.PoolStrategyOutcomes.WithLabelValues(st.Name, string(reason)).Inc()
				pm.log.Info("pool strategy produced no candidates",
					"user_id", userID,
					"certification", certificationName,
					"strategy", st.Name,
					"reason", reason,
				)
			}
			continue
		}

		if record {
			metrics.PoolStrategyOutcomes.WithLabelValues(st.Name, "selected").Inc()
		}
		pool.Questions = questions
		pool.Strategy = st.Name
		return pool, nil
	}

	pool.Questions = []models.Question{}
	return pool, nil
}

// resolution caches catalog and attempt lookups across strategies of one
// Resolve call.
type resolution struct {
	pm           *PoolManager
	userID       string
	certID       string
	band         []models.Difficulty
	weakTopicIDs []string
	bases        map[bool][]models.Question
	recent       map[time.Duration]map[string]bool
}

func (r *resolution) run(ctx context.Context, st Strategy) ([]models.Question, FailureReason, error) {
	if !st.AllTopics && len(r.weakTopicIDs) == 0 {
		return nil, ReasonNoWeakTopics, nil
	}

	base, err := r.base(ctx, st.AllTopics)
	if err != nil {
		return nil, "", err
	}
	if len(base) == 0 {
		return nil, ReasonEmptyBasePool, nil
	}

	recent, err := r.recentlyAttempted(ctx, st.Window)
	if err != nil {
		return nil, "", err
	}
	candidates := make([]models.Question, 0, len(base))
	for _, q := range base {
		if !recent[q.ID] {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return nil, ReasonAllRecentlyAttempted, nil
	}
	return candidates, "", nil
}

func (r *resolution) base(ctx context.Context, allTopics bool) ([]models.Question, error) {
	if qs, ok := r.bases[allTopics]; ok {
		return qs, nil
	}
	filter := repository.QuestionFilter{
		CertificationID: r.certID,
		ActiveOnly:      true,
		Difficulties:    r.band,
	}
	if !allTopics {
		filter.TopicIDs = r.weakTopicIDs
	}
	qs, err := r.pm.catalog.QueryQuestions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	r.bases[allTopics] = qs
	return qs, nil
}

func (r *resolution) recentlyAttempted(ctx context.Context, window time.Duration) (map[string]bool, error) {
	if set, ok := r.recent[window]; ok {
		return set, nil
	}
	ids, err := r.pm.attempts.RecentQuestionIDs(ctx, r.userID, r.pm.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent attempts: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	r.recent[window] = set
	return set, nil
}
