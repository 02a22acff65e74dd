package models

import (
	"fmt"
	"sort"
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties lists difficulties from easiest to hardest.
var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionEssay          QuestionType = "essay"
	QuestionFillBlank      QuestionType = "fill_blank"
)

type Certification struct {
	ID   string `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name string `bson:"name" json:"name" gorm:"uniqueIndex;not null"`
}

type Topic struct {
	ID              string `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(64)"`
	CertificationID string `bson:"certification_id" json:"certification_id" gorm:"index;not null;type:varchar(64)"`
	Name            string `bson:"name" json:"name" gorm:"index;not null"`
}

type AnswerChoice struct {
	ID           string `bson:"id" json:"id" gorm:"primaryKey;type:varchar(64)"`
	QuestionID   string `bson:"-" json:"question_id,omitempty" gorm:"index;not null;type:varchar(64)"`
	Text         string `bson:"text" json:"text"`
	IsCorrect    bool   `bson:"is_correct" json:"is_correct"`
	DisplayOrder int    `bson:"display_order" json:"display_order"`
	Explanation  string `bson:"explanation,omitempty" json:"explanation,omitempty"`
}

// Question is owned by the content store and read-only to the engine.
// Choices are embedded in the mongo document and a child table in SQL.
type Question struct {
	ID              string         `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(64)"`
	CertificationID string         `bson:"certification_id" json:"certification_id" gorm:"index;not null;type:varchar(64)"`
	TopicID         string         `bson:"topic_id" json:"topic_id" gorm:"index;not null;type:varchar(64)"`
	Text            string         `bson:"text" json:"text"`
	Type            QuestionType   `bson:"type" json:"type"`
	Difficulty      Difficulty     `bson:"difficulty" json:"difficulty" gorm:"index"`
	CognitiveLevel  string         `bson:"cognitive_level" json:"cognitive_level"`
	Explanation     string         `bson:"explanation" json:"explanation"`
	Active          bool           `bson:"active" json:"active" gorm:"index"`
	Tags            []string       `bson:"tags" json:"tags" gorm:"serializer:json;type:text"`
	Choices         []AnswerChoice `bson:"choices" json:"choices" gorm:"foreignKey:QuestionID"`
}

// Validate checks the structural invariants of a catalog question.
func (q *Question) Validate() error {
	if q.Type != QuestionMultipleChoice {
		return nil
	}
	correct := 0
	for _, c := range q.Choices {
		if c.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("multiple choice question %s has %d correct choices, want 1", q.ID, correct)
	}
	return nil
}

// AttachChoices sets the owning question id on embedded choices.
func (q *Question) AttachChoices() {
	for i := range q.Choices {
		q.Choices[i].QuestionID = q.ID
	}
}

// Choice returns the choice with the given id.
func (q *Question) Choice(id string) (*AnswerChoice, bool) {
	for i := range q.Choices {
		if q.Choices[i].ID == id {
			return &q.Choices[i], true
		}
	}
	return nil, false
}

// Grade reports whether a submission answers the question correctly.
// Fill-blank questions may be answered by text; it is matched against the
// correct choices ignoring case and surrounding whitespace.
func (q *Question) Grade(selectedChoiceID, answerText string) bool {
	if selectedChoiceID != "" {
		c, ok := q.Choice(selectedChoiceID)
		return ok && c.IsCorrect
	}
	if q.Type != QuestionFillBlank {
		return false
	}
	given := normalizeAnswer(answerText)
	if given == "" {
		return false
	}
	for _, c := range q.Choices {
		if c.IsCorrect && normalizeAnswer(c.Text) == given {
			return true
		}
	}
	return false
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// PresentedChoice is a choice as shown to the learner, without correctness.
type PresentedChoice struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	DisplayOrder int    `json:"display_order"`
}

// PresentedQuestion hides correctness flags and explanations until answered.
type PresentedQuestion struct {
	ID             string            `json:"id"`
	TopicID        string            `json:"topic_id"`
	Text           string            `json:"text"`
	Type           QuestionType      `json:"type"`
	Difficulty     Difficulty        `json:"difficulty"`
	CognitiveLevel string            `json:"cognitive_level"`
	Tags           []string          `json:"tags"`
	Choices        []PresentedChoice `json:"choices"`
}

func (q *Question) Present() PresentedQuestion {
	choices := make([]PresentedChoice, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, PresentedChoice{ID: c.ID, Text: c.Text, DisplayOrder: c.DisplayOrder})
	}
	sort.SliceStable(choices, func(i, j int) bool {
		return choices[i].DisplayOrder < choices[j].DisplayOrder
	})
	return PresentedQuestion{
		ID:             q.ID,
		TopicID:        q.TopicID,
		Text:           q.Text,
		Type:           q.Type,
		Difficulty:     q.Difficulty,
		CognitiveLevel: q.CognitiveLevel,
		Tags:           q.Tags,
		Choices:        choices,
	}
}
