package adaptive

import (
	"fmt"
	"time"

	"practice-service/internal/models"
)

// Config holds the thresholds that drive weak-topic detection, the
// difficulty band and the recency exclusion window.
type Config struct {
	// WeakMastery marks a topic as weak (and due for review) below this level.
	WeakMastery float64 `json:"weak_mastery"`
	// EasyCeiling: average mastery below it restricts the pool to easy questions.
	EasyCeiling float64 `json:"easy_ceiling"`
	// MediumCeiling: average mastery below it restricts the pool to easy and medium.
	MediumCeiling float64 `json:"medium_ceiling"`
	// ReviewAttemptFloor: an incorrect answer flags review once attempts exceed it.
	ReviewAttemptFloor int           `json:"review_attempt_floor"`
	ExcludeRecent      time.Duration `json:"exclude_recent"`
	SoftenedExclude    time.Duration `json:"softened_exclude"`
}

// Assessment summarises a learner's mastery records for question selection.
type Assessment struct {
	WeakTopics []string `json:"weak_topics"`
	// AverageMastery is meaningful only when HasHistory is true.
	AverageMastery float64             `json:"average_mastery"`
	HasHistory     bool                `json:"has_history"`
	Band           []models.Difficulty `json:"difficulty_band"`
}

func DefaultConfig() *Config {
	return &Config{
		WeakMastery:        0.7,
		EasyCeiling:        0.5,
		MediumCeiling:      0.8,
		ReviewAttemptFloor: 3,
		ExcludeRecent:      24 * time.Hour,
		SoftenedExclude:    time.Hour,
	}
}

func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"weak mastery":   c.WeakMastery,
		"easy ceiling":   c.EasyCeiling,
		"medium ceiling": c.MediumCeiling,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s threshold %.2f outside [0,1]", name, v)
		}
	}
	if c.EasyCeiling > c.MediumCeiling {
		return fmt.Errorf("easy ceiling %.2f above medium ceiling %.2f", c.EasyCeiling, c.MediumCeiling)
	}
	if c.ReviewAttemptFloor < 0 {
		return fmt.Errorf("review attempt floor %d is negative", c.ReviewAttemptFloor)
	}
	if c.ExcludeRecent <= 0 || c.SoftenedExclude <= 0 {
		return fmt.Errorf("exclusion windows must be positive")
	}
	return nil
}
