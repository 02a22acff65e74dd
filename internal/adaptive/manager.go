package adaptive

import (
	"time"

	"practice-service/internal/models"
)

// Manager applies the mastery policy. It is stateless apart from its config.
type Manager struct {
	config *Config
}

func NewManager(config *Config) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	return &Manager{config: config}
}

func (m *Manager) Config() Config {
	return *m.config
}

// NeedsReview reports whether a topic must be revisited after an attempt.
// attempted and level describe the record after the attempt was applied.
func (m *Manager) NeedsReview(level float64, correct bool, attempted int) bool {
	return level < m.config.WeakMastery || (!correct && attempted > m.config.ReviewAttemptFloor)
}

// ApplyAttempt folds one answered question into rec. Stores that cannot
// express the update as a single statement must not call this outside a
// transaction; it exists for building first inserts and for in-memory stores.
func (m *Manager) ApplyAttempt(rec *models.MasteryRecord, correct bool, at time.Time) {
	at = at.UTC()
	day := models.EpochDay(at)

	switch {
	case rec.QuestionsAttempted == 0:
		rec.StreakDays = 1
	case day <= rec.LastPracticedDay:
		if rec.StreakDays < 1 {
			rec.StreakDays = 1
		}
	case day == rec.LastPracticedDay+1:
		rec.StreakDays++
	default:
		rec.StreakDays = 1
	}
	if rec.QuestionsAttempted == 0 || day > rec.LastPracticedDay {
		rec.LastPracticedDay = day
	}

	rec.QuestionsAttempted++
	if correct {
		rec.QuestionsCorrect++
	}
	rec.MasteryLevel = rec.Ratio()
	rec.NeedsReview = m.NeedsReview(rec.MasteryLevel, correct, rec.QuestionsAttempted)
	rec.LastPracticed = at
	rec.UpdatedAt = at
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = at
	}
}

func (m *Manager) IsWeak(rec *models.MasteryRecord) bool {
	return rec.MasteryLevel < m.config.WeakMastery || rec.NeedsReview
}

// DifficultyBand maps average mastery onto the difficulties a learner may
// be shown. Without history every difficulty is eligible.
func (m *Manager) DifficultyBand(avg float64, hasHistory bool) []models.Difficulty {
	switch {
	case !hasHistory:
		return append([]models.Difficulty(nil), models.AllDifficulties...)
	case avg < m.config.EasyCeiling:
		return []models.Difficulty{models.DifficultyEasy}
	case avg < m.config.MediumCeiling:
		return []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium}
	default:
		return append([]models.Difficulty(nil), models.AllDifficulties...)
	}
}

// Assess computes weak topics, average mastery and the difficulty band.
func (m *Manager) Assess(records []models.MasteryRecord) *Assessment {
	a := &Assessment{WeakTopics: []string{}}
	if len(records) == 0 {
		a.Band = m.DifficultyBand(0, false)
		return a
	}

	seen := make(map[string]bool)
	total := 0.0
	for i := range records {
		rec := &records[i]
		total += rec.MasteryLevel
		if m.IsWeak(rec) && !seen[rec.Topic] {
			seen[rec.Topic] = true
			a.WeakTopics = append(a.WeakTopics, rec.Topic)
		}
	}
	a.HasHistory = true
	a.AverageMastery = total / float64(len(records))
	a.Band = m.DifficultyBand(a.AverageMastery, true)
	return a
}
