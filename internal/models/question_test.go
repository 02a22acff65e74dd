package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestion() *Question {
	return &Question{
		ID:         "q1",
		TopicID:    "t1",
		Text:       "1/2 + 1/4 = ?",
		Type:       QuestionMultipleChoice,
		Difficulty: DifficultyEasy,
		Active:     true,
		Choices: []AnswerChoice{
			{ID: "c3", Text: "2/6", DisplayOrder: 3},
			{ID: "c1", Text: "3/4", IsCorrect: true, DisplayOrder: 1},
			{ID: "c2", Text: "1/8", DisplayOrder: 2},
		},
	}
}

func TestQuestionValidate(t *testing.T) {
	q := sampleQuestion()
	require.NoError(t, q.Validate())

	q.Choices[0].IsCorrect = true
	assert.Error(t, q.Validate())

	q.Choices[0].IsCorrect = false
	q.Choices[1].IsCorrect = false
	assert.Error(t, q.Validate())

	essay := &Question{ID: "e1", Type: QuestionEssay}
	assert.NoError(t, essay.Validate())
}

func TestQuestionGrade(t *testing.T) {
	q := sampleQuestion()

	testCases := []struct {
		name     string
		choiceID string
		text     string
		want     bool
	}{
		{"correct choice", "c1", "", true},
		{"wrong choice", "c2", "", false},
		{"unknown choice", "nope", "", false},
		{"text on multiple choice", "", "3/4", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, q.Grade(tc.choiceID, tc.text))
		})
	}
}

func TestQuestionGradeFillBlankText(t *testing.T) {
	q := &Question{
		ID:   "fb1",
		Type: QuestionFillBlank,
		Choices: []AnswerChoice{
			{ID: "a", Text: "Least Common  Denominator", IsCorrect: true},
		},
	}

	assert.True(t, q.Grade("", "  least common denominator "))
	assert.False(t, q.Grade("", "greatest common divisor"))
	assert.False(t, q.Grade("", "   "))
	assert.True(t, q.Grade("a", ""))
}

func TestQuestionPresentHidesCorrectness(t *testing.T) {
	q := sampleQuestion()
	q.Explanation = "Convert to quarters."

	p := q.Present()
	require.Len(t, p.Choices, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{p.Choices[0].ID, p.Choices[1].ID, p.Choices[2].ID})
	assert.Equal(t, "q1", p.ID)
	// the source slice keeps its order
	assert.Equal(t, "c3", q.Choices[0].ID)
}

func TestPracticeSessionState(t *testing.T) {
	s := &PracticeSession{ID: "s1", QuestionIDs: []string{"a", "b"}}
	assert.Equal(t, SessionPresenting, s.State())
	assert.Equal(t, 1, s.IndexOf("b"))
	assert.Equal(t, -1, s.IndexOf("z"))

	s.Cursor = 2
	assert.Equal(t, SessionComplete, s.State())
}

func TestEpochDay(t *testing.T) {
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d1Late := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	d2 := time.Date(2026, 3, 2, 0, 0, 1, 0, time.UTC)

	assert.Equal(t, EpochDay(d1), EpochDay(d1Late))
	assert.Equal(t, EpochDay(d1)+1, EpochDay(d2))
	assert.Equal(t, int64(-1), EpochDay(time.Unix(-1, 0)))

	// local offsets are normalised to UTC
	loc := time.FixedZone("UTC+5", 5*3600)
	assert.Equal(t, EpochDay(d1), EpochDay(time.Date(2026, 3, 1, 5, 0, 0, 0, loc)))
}

func TestMasteryRatio(t *testing.T) {
	m := &MasteryRecord{}
	assert.Zero(t, m.Ratio())
	m.QuestionsAttempted, m.QuestionsCorrect = 4, 3
	assert.InDelta(t, 0.75, m.Ratio(), 1e-9)
}
