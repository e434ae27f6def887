package domain

import (
	"time"

	"github.com/uptrace/bun"
)

// QuestionType is the closed set of question kinds the scorer understands.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	Text           QuestionType = "text"
)

// Valid reports whether t is one of the known question kinds.
func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleChoice, Text:
		return true
	}
	return false
}

// Quiz is the owning container for questions and submissions.
type Quiz struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Question carries the scoring parameters for one quiz question. Points and
// NegativePoints are both non-negative; NegativePoints is the penalty
// magnitude applied on a wrong answer.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID             int64        `bun:"id,pk,autoincrement" json:"id"`
	QuizID         int64        `bun:"quiz_id,notnull" json:"quizId"`
	Text           string       `bun:"text,notnull" json:"text"`
	Type           QuestionType `bun:"type,notnull" json:"type"`
	Points         float64      `bun:"points,notnull" json:"points"`
	NegativePoints float64      `bun:"negative_points,notnull,default:0" json:"negativePoints"`

	Answers []Answer `bun:"rel:has-many,join:id=question_id" json:"answers"`
}

// CorrectAnswerIDs returns the ids of answers flagged correct, in stored order.
func (q Question) CorrectAnswerIDs() []int64 {
	var ids []int64
	for _, a := range q.Answers {
		if a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Answer is one candidate answer of a question. For text questions the
// correct answers hold the accepted literal strings.
type Answer struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	QuestionID int64  `bun:"question_id,notnull" json:"questionId"`
	Text       string `bun:"text,notnull" json:"text"`
	IsCorrect  bool   `bun:"is_correct,notnull,default:false" json:"isCorrect"`
}

// UserAnswer is one submitted answer. Exactly one of SelectedAnswerIDs
// (non-empty) or TextAnswer (non-nil) is set; the transport layer enforces
// that before the engine runs. A scalar selection arrives wrapped in a
// one-element slice.
type UserAnswer struct {
	QuestionID        int64
	SelectedAnswerIDs []int64
	TextAnswer        *string
}

// Submission is the persisted header of one scoring request. It is created
// as a zero-valued placeholder inside the scoring transaction and finalized
// exactly once before commit.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	QuizID    int64     `bun:"quiz_id,notnull" json:"quizId"`
	Score     float64   `bun:"score,notnull,default:0" json:"score"`
	Total     float64   `bun:"total,notnull,default:0" json:"total"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// SubmissionAnswer is one detail row of a submission: a single selected
// option or a text answer, with its attributed score. A multiple-choice
// answer yields one row per submitted id; only the row with IsPrimary set
// carries the question's contribution, the rest carry zero, so summing the
// score column never double-counts.
type SubmissionAnswer struct {
	bun.BaseModel `bun:"table:submission_answers,alias:sa"`

	ID               int64   `bun:"id,pk,autoincrement" json:"id"`
	SubmissionID     int64   `bun:"submission_id,notnull" json:"submissionId"`
	QuestionID       int64   `bun:"question_id,notnull" json:"questionId"`
	SelectedAnswerID *int64  `bun:"selected_answer_id" json:"selectedAnswerId"`
	TextAnswer       *string `bun:"text_answer" json:"textAnswer"`
	Score            float64 `bun:"score,notnull,default:0" json:"score"`
	IsPrimary        bool    `bun:"is_primary,notnull,default:false" json:"isPrimaryContribution"`
}

// SubmissionResult is the caller-facing summary of a scored submission.
type SubmissionResult struct {
	SubmissionID  int64   `json:"submissionId"`
	QuizID        int64   `json:"quizId"`
	TotalScore    float64 `json:"totalScore"`
	ScoreObtained float64 `json:"scoreObtained"`
}
