package selection

import (
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/models"
)

// FailureReason explains why a pool strategy produced no candidates.
type FailureReason string

const (
	ReasonNoWeakTopics         FailureReason = "no_weak_topics"
	ReasonEmptyBasePool        FailureReason = "empty_base_pool"
	ReasonAllRecentlyAttempted FailureReason = "all_recently_attempted"
)

// Strategy is one attempt at building a candidate pool.
type Strategy struct {
	Name string `json:"name"`
	// AllTopics ignores weak topics. Such a strategy only runs when the one
	// before it failed for lack of a topic-restricted base pool, unless it
	// is the last resort.
	AllTopics  bool          `json:"all_topics"`
	LastResort bool          `json:"last_resort,omitempty"`
	Window     time.Duration `json:"window"`
}

type StrategyFailure struct {
	Strategy string        `json:"strategy"`
	Reason   FailureReason `json:"reason"`
}

// Pool is the outcome of resolving candidates for one learner.
// Strategy is empty when every strategy failed.
type Pool struct {
	CertificationID string               `json:"certification_id"`
	Questions       []models.Question    `json:"-"`
	Strategy        string               `json:"strategy"`
	Failures        []StrategyFailure    `json:"failures"`
	Assessment      *adaptive.Assessment `json:"assessment"`
}

// Selection is the ordered question list for a new session.
type Selection struct {
	Questions []models.Question
	Pool      *Pool
}

const (
	StrategyWeakTopics         = "weak-topics"
	StrategyAllTopics          = "all-topics"
	StrategyWeakTopicsSoftened = "weak-topics-softened"
	StrategyAllTopicsSoftened  = "all-topics-softened"
)

// Strategies returns the ordered strategy list for an exclusion window.
// The softened pair is dropped when it would not shorten the window. The
// final all-topics strategy always runs when nothing before it produced
// candidates, so a pool is only empty when the whole band is recent.
func Strategies(window, softened time.Duration) []Strategy {
	list := []Strategy{
		{Name: StrategyWeakTopics, Window: window},
		{Name: StrategyAllTopics, AllTopics: true, Window: window},
	}
	if softened < window {
		list = append(list,
			Strategy{Name: StrategyWeakTopicsSoftened, Window: softened},
			Strategy{Name: StrategyAllTopicsSoftened, AllTopics: true, Window: softened},
		)
	}
	list[len(list)-1].LastResort = true
	return list
}
