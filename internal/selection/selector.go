package selection

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"practice-service/internal/apperr"
	"practice-service/internal/models"
)

// PoolResolver is the part of PoolManager the selector depends on.
type PoolResolver interface {
	Resolve(ctx context.Context, userID, certificationName string, window time.Duration) (*Pool, error)
	DefaultWindow() time.Duration
}

// Selector draws a uniformly random, duplicate-free subset of the pool.
type Selector struct {
	pools   PoolResolver
	maxSize int

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSelector creates a selector seeded from the runtime source.
func NewSelector(pools PoolResolver, maxSize int) *Selector {
	return NewSelectorWithRand(pools, maxSize, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewSelectorWithRand lets tests fix the shuffle.
func NewSelectorWithRand(pools PoolResolver, maxSize int, rnd *rand.Rand) *Selector {
	return &Selector{pools: pools, maxSize: maxSize, rand: rnd}
}

func (s *Selector) MaxSize() int {
	return s.maxSize
}

// SelectSession resolves the pool and returns at most size questions in
// random order.
func (s *Selector) SelectSession(ctx context.Context, userID, certificationName string, size int) (*Selection, error) {
	if size <= 0 || size > s.maxSize {
		return nil, apperr.InvalidArgument("session size %d outside 1..%d", size, s.maxSize)
	}

	pool, err := s.pools.Resolve(ctx, userID, certificationName, s.pools.DefaultWindow())
	if err != nil {
		return nil, err
	}

	questions := dedupe(pool.Questions)
	if len(questions) == 0 {
		return nil, apperr.NoQuestionsAvailable("no questions available for certification %q", certificationName)
	}

	s.mu.Lock()
	s.rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	s.mu.Unlock()

	if len(questions) > size {
		questions = questions[:size]
	}
	return &Selection{Questions: questions, Pool: pool}, nil
}

func dedupe(questions []models.Question) []models.Question {
	seen := make(map[string]bool, len(questions))
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}
