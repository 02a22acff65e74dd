package selection

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/apperr"
	"practice-service/internal/logger"
	"practice-service/internal/metrics"
	"practice-service/internal/models"
	"practice-service/internal/repository/fake"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	catalog  *fake.Catalog
	mastery  *fake.MasteryStore
	attempts *fake.AttemptStore
	pools    *PoolManager
}

func question(id, topicID string, d models.Difficulty) models.Question {
	return models.Question{
		ID:              id,
		CertificationID: "cert-a",
		TopicID:         topicID,
		Type:            models.QuestionMultipleChoice,
		Difficulty:      d,
		Active:          true,
		Choices:         []models.AnswerChoice{{ID: id + "-ok", IsCorrect: true}, {ID: id + "-no"}},
	}
}

func newFixture(questions ...models.Question) *fixture {
	policy := adaptive.NewManager(nil)
	f := &fixture{
		catalog: &fake.Catalog{
			Certifications: []models.Certification{{ID: "cert-a", Name: "cert-A"}},
			Topics: []models.Topic{
				{ID: "t-frac", CertificationID: "cert-a", Name: "Fractions"},
				{ID: "t-geo", CertificationID: "cert-a", Name: "Geometry"},
			},
			Questions: questions,
		},
		mastery:  fake.NewMasteryStore(policy),
		attempts: &fake.AttemptStore{},
	}
	f.pools = NewPoolManager(f.catalog, f.mastery, f.attempts, policy, logger.NewNop())
	f.pools.now = func() time.Time { return baseTime }
	return f
}

func ids(qs []models.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestResolveWithoutHistoryUsesAllDifficulties(t *testing.T) {
	f := newFixture(
		question("q1", "t-frac", models.DifficultyEasy),
		question("q2", "t-geo", models.DifficultyMedium),
		question("q3", "t-geo", models.DifficultyHard),
	)

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, StrategyAllTopics, pool.Strategy)
	assert.ElementsMatch(t, []string{"q1", "q2", "q3"}, ids(pool.Questions))
	assert.False(t, pool.Assessment.HasHistory)
	assert.Equal(t, models.AllDifficulties, pool.Assessment.Band)
	assert.Equal(t, []StrategyFailure{{Strategy: StrategyWeakTopics, Reason: ReasonNoWeakTopics}}, pool.Failures)
}

func TestResolveWeakTopicLowMastery(t *testing.T) {
	f := newFixture(
		question("frac-easy", "t-frac", models.DifficultyEasy),
		question("frac-hard", "t-frac", models.DifficultyHard),
		question("geo-easy", "t-geo", models.DifficultyEasy),
	)
	f.mastery.Seed(models.MasteryRecord{UserID: "u1", Topic: "Fractions", MasteryLevel: 0.3, QuestionsAttempted: 10, QuestionsCorrect: 3, NeedsReview: true})

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, StrategyWeakTopics, pool.Strategy)
	assert.Equal(t, []string{"frac-easy"}, ids(pool.Questions))
	assert.Equal(t, []models.Difficulty{models.DifficultyEasy}, pool.Assessment.Band)
	assert.Equal(t, []string{"Fractions"}, pool.Assessment.WeakTopics)
}

func TestResolveWeakTopicFallsBackToAllTopics(t *testing.T) {
	f := newFixture(
		question("frac-hard", "t-frac", models.DifficultyHard),
		question("geo-easy", "t-geo", models.DifficultyEasy),
	)
	f.mastery.Seed(models.MasteryRecord{UserID: "u1", Topic: "Fractions", MasteryLevel: 0.3, QuestionsAttempted: 10, QuestionsCorrect: 3})

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, StrategyAllTopics, pool.Strategy)
	assert.Equal(t, []string{"geo-easy"}, ids(pool.Questions))
	assert.Equal(t, []StrategyFailure{{Strategy: StrategyWeakTopics, Reason: ReasonEmptyBasePool}}, pool.Failures)
}

func TestResolveRecencyWindow(t *testing.T) {
	testCases := []struct {
		name     string
		elapsed  time.Duration
		expected []string
	}{
		{"one hour later excluded", time.Hour, []string{"q2"}},
		{"twenty five hours later allowed", 25 * time.Hour, []string{"q1", "q2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(
				question("q1", "t-geo", models.DifficultyEasy),
				question("q2", "t-geo", models.DifficultyEasy),
			)
			require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
				UserID: "u1", SessionID: "s0", QuestionID: "q1", IsCorrect: true, AttemptedAt: baseTime,
			}))
			f.pools.now = func() time.Time { return baseTime.Add(tc.elapsed) }

			pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.expected, ids(pool.Questions))
		})
	}
}

func TestResolveSoftenedWindow(t *testing.T) {
	f := newFixture(
		question("q1", "t-geo", models.DifficultyEasy),
		question("q2", "t-geo", models.DifficultyEasy),
	)
	for _, id := range []string{"q1", "q2"} {
		require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
			UserID: "u1", SessionID: "s0", QuestionID: id, AttemptedAt: baseTime.Add(-2 * time.Hour),
		}))
	}

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, StrategyAllTopicsSoftened, pool.Strategy)
	assert.ElementsMatch(t, []string{"q1", "q2"}, ids(pool.Questions))
	assert.Equal(t, []StrategyFailure{
		{Strategy: StrategyWeakTopics, Reason: ReasonNoWeakTopics},
		{Strategy: StrategyAllTopics, Reason: ReasonAllRecentlyAttempted},
		{Strategy: StrategyWeakTopicsSoftened, Reason: ReasonNoWeakTopics},
	}, pool.Failures)
}

func TestResolveWeakTopicsSoftenedSkipsAllTopics(t *testing.T) {
	f := newFixture(
		question("frac-1", "t-frac", models.DifficultyEasy),
		question("geo-1", "t-geo", models.DifficultyEasy),
	)
	f.mastery.Seed(models.MasteryRecord{UserID: "u1", Topic: "Fractions", MasteryLevel: 0.3, QuestionsAttempted: 10, QuestionsCorrect: 3})
	require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
		UserID: "u1", SessionID: "s0", QuestionID: "frac-1", AttemptedAt: baseTime.Add(-2 * time.Hour),
	}))

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)

	// the weak topic has a base pool, so recency softens instead of widening topics
	assert.Equal(t, StrategyWeakTopicsSoftened, pool.Strategy)
	assert.Equal(t, []string{"frac-1"}, ids(pool.Questions))
}

func TestResolveExhaustedWeakTopicFallsBackToFreshTopics(t *testing.T) {
	f := newFixture(
		question("frac-1", "t-frac", models.DifficultyEasy),
		question("geo-1", "t-geo", models.DifficultyEasy),
		question("geo-2", "t-geo", models.DifficultyEasy),
	)
	f.mastery.Seed(models.MasteryRecord{UserID: "u1", Topic: "Fractions", MasteryLevel: 0.3, QuestionsAttempted: 10, QuestionsCorrect: 3})
	require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
		UserID: "u1", SessionID: "s0", QuestionID: "frac-1", AttemptedAt: baseTime.Add(-10 * time.Minute),
	}))

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, StrategyAllTopicsSoftened, pool.Strategy)
	assert.ElementsMatch(t, []string{"geo-1", "geo-2"}, ids(pool.Questions))
	assert.Equal(t, []StrategyFailure{
		{Strategy: StrategyWeakTopics, Reason: ReasonAllRecentlyAttempted},
		{Strategy: StrategyWeakTopicsSoftened, Reason: ReasonAllRecentlyAttempted},
	}, pool.Failures)

	sel, err := newTestSelector(f, 10, 3).SelectSession(context.Background(), "u1", "cert-A", 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"geo-1", "geo-2"}, ids(sel.Questions))
}

func TestResolveExhaustedWeakTopicWithoutSoftenedWindow(t *testing.T) {
	f := newFixture(
		question("frac-1", "t-frac", models.DifficultyEasy),
		question("geo-1", "t-geo", models.DifficultyEasy),
	)
	f.mastery.Seed(models.MasteryRecord{UserID: "u1", Topic: "Fractions", MasteryLevel: 0.3, QuestionsAttempted: 10, QuestionsCorrect: 3})
	require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
		UserID: "u1", SessionID: "s0", QuestionID: "frac-1", AttemptedAt: baseTime.Add(-10 * time.Minute),
	}))

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 30*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, StrategyAllTopics, pool.Strategy)
	assert.Equal(t, []string{"geo-1"}, ids(pool.Questions))
	assert.Equal(t, []StrategyFailure{{Strategy: StrategyWeakTopics, Reason: ReasonAllRecentlyAttempted}}, pool.Failures)
}

func TestExplainDoesNotCountOutcomes(t *testing.T) {
	f := newFixture(question("q1", "t-geo", models.DifficultyEasy))
	noWeak := metrics.PoolStrategyOutcomes.WithLabelValues(StrategyWeakTopics, string(ReasonNoWeakTopics))
	selected := metrics.PoolStrategyOutcomes.WithLabelValues(StrategyAllTopics, "selected")
	beforeNoWeak, beforeSelected := testutil.ToFloat64(noWeak), testutil.ToFloat64(selected)

	pool, err := f.pools.Explain(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, StrategyAllTopics, pool.Strategy)
	assert.Equal(t, beforeNoWeak, testutil.ToFloat64(noWeak))
	assert.Equal(t, beforeSelected, testutil.ToFloat64(selected))

	_, err = f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, beforeNoWeak+1, testutil.ToFloat64(noWeak))
	assert.Equal(t, beforeSelected+1, testutil.ToFloat64(selected))
}

func TestResolveEverythingRecentIsEmpty(t *testing.T) {
	f := newFixture(question("q1", "t-geo", models.DifficultyEasy))
	require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
		UserID: "u1", SessionID: "s0", QuestionID: "q1", AttemptedAt: baseTime.Add(-10 * time.Minute),
	}))

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, pool.Questions)
	assert.Empty(t, pool.Strategy)
	assert.Len(t, pool.Failures, 4)
}

func TestResolveSkipsSoftenedWhenWindowIsShort(t *testing.T) {
	f := newFixture(question("q1", "t-geo", models.DifficultyEasy))
	require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
		UserID: "u1", SessionID: "s0", QuestionID: "q1", AttemptedAt: baseTime.Add(-10 * time.Minute),
	}))

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, pool.Questions)
	assert.Len(t, pool.Failures, 2)
}

func TestResolveInactiveAndForeignQuestionsExcluded(t *testing.T) {
	inactive := question("q-off", "t-geo", models.DifficultyEasy)
	inactive.Active = false
	foreign := question("q-other", "t-geo", models.DifficultyEasy)
	foreign.CertificationID = "cert-b"
	f := newFixture(inactive, foreign, question("q-on", "t-geo", models.DifficultyEasy))

	pool, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"q-on"}, ids(pool.Questions))
}

func TestResolveUnknownCertification(t *testing.T) {
	f := newFixture()
	_, err := f.pools.Resolve(context.Background(), "u1", "cert-Z", 24*time.Hour)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestResolvePropagatesCatalogErrors(t *testing.T) {
	f := newFixture(question("q1", "t-geo", models.DifficultyEasy))
	f.catalog.QueryErr = fmt.Errorf("connection refused")

	_, err := f.pools.Resolve(context.Background(), "u1", "cert-A", 24*time.Hour)
	assert.Error(t, err)
}

func manyQuestions(n int) []models.Question {
	qs := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, question(fmt.Sprintf("q%02d", i), "t-geo", models.DifficultyEasy))
	}
	return qs
}

func newTestSelector(f *fixture, maxSize int, seed uint64) *Selector {
	return NewSelectorWithRand(f.pools, maxSize, rand.New(rand.NewPCG(seed, seed)))
}

func TestSelectSessionNoDuplicatesAndSize(t *testing.T) {
	f := newFixture(manyQuestions(30)...)
	selector := newTestSelector(f, 50, 7)

	for _, size := range []int{1, 10, 30, 45} {
		sel, err := selector.SelectSession(context.Background(), "u1", "cert-A", size)
		require.NoError(t, err)

		want := size
		if want > 30 {
			want = 30
		}
		assert.Len(t, sel.Questions, want)

		seen := map[string]bool{}
		for _, q := range sel.Questions {
			assert.False(t, seen[q.ID], "duplicate %s", q.ID)
			seen[q.ID] = true
		}
	}
}

func TestSelectSessionDedupesPool(t *testing.T) {
	q := question("q1", "t-geo", models.DifficultyEasy)
	f := newFixture(q, q, q)
	selector := newTestSelector(f, 10, 1)

	sel, err := selector.SelectSession(context.Background(), "u1", "cert-A", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, ids(sel.Questions))
}

func TestSelectSessionIsDeterministicForSeed(t *testing.T) {
	a, err := newTestSelector(newFixture(manyQuestions(20)...), 50, 42).SelectSession(context.Background(), "u1", "cert-A", 5)
	require.NoError(t, err)
	b, err := newTestSelector(newFixture(manyQuestions(20)...), 50, 42).SelectSession(context.Background(), "u1", "cert-A", 5)
	require.NoError(t, err)
	assert.Equal(t, ids(a.Questions), ids(b.Questions))
}

func TestSelectSessionShuffleCoversPool(t *testing.T) {
	f := newFixture(manyQuestions(5)...)
	selector := newTestSelector(f, 10, 3)

	firsts := map[string]bool{}
	for i := 0; i < 200; i++ {
		sel, err := selector.SelectSession(context.Background(), "u1", "cert-A", 1)
		require.NoError(t, err)
		firsts[sel.Questions[0].ID] = true
	}
	assert.Len(t, firsts, 5)
}

func TestSelectSessionInvalidSize(t *testing.T) {
	f := newFixture(manyQuestions(3)...)
	selector := newTestSelector(f, 10, 1)

	for _, size := range []int{0, -1, 11} {
		_, err := selector.SelectSession(context.Background(), "u1", "cert-A", size)
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument), "size %d", size)
	}
}

func TestSelectSessionEmptyPool(t *testing.T) {
	f := newFixture()
	selector := newTestSelector(f, 10, 1)

	_, err := selector.SelectSession(context.Background(), "u1", "cert-A", 5)
	assert.True(t, apperr.Is(err, apperr.KindNoQuestionsAvailable))
}

func TestSelectSessionExcludesRecent(t *testing.T) {
	f := newFixture(manyQuestions(10)...)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.attempts.Append(context.Background(), &models.QuestionAttempt{
			UserID: "u1", SessionID: "s0", QuestionID: fmt.Sprintf("q%02d", i), AttemptedAt: baseTime.Add(-3 * time.Hour),
		}))
	}
	selector := newTestSelector(f, 50, 9)

	sel, err := selector.SelectSession(context.Background(), "u1", "cert-A", 10)
	require.NoError(t, err)
	assert.Len(t, sel.Questions, 5)
	for _, q := range sel.Questions {
		assert.GreaterOrEqual(t, q.ID, "q05")
	}
}

func TestStrategies(t *testing.T) {
	full := Strategies(24*time.Hour, time.Hour)
	require.Len(t, full, 4)
	assert.Equal(t, StrategyAllTopicsSoftened, full[3].Name)
	assert.True(t, full[3].LastResort)
	assert.False(t, full[1].LastResort)

	short := Strategies(time.Hour, time.Hour)
	require.Len(t, short, 2)
	assert.Equal(t, StrategyAllTopics, short[1].Name)
	assert.True(t, short[1].LastResort)
}
