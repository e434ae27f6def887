// Package scoring holds the pure per-question scoring rules. Each scorer
// maps (question, user answer, submission id) to a signed score contribution
// plus the detail rows to persist; nothing here touches storage.
package scoring

import (
	"fmt"
	"strings"

	"quiz-submission-service/internal/domain"
)

// Result is the outcome of scoring one user answer.
type Result struct {
	// Score is the question's signed contribution to the submission score.
	Score float64
	// Details are the rows to persist for this answer. Exactly one of them
	// (the first) is marked IsPrimary and carries Score; any further rows
	// carry zero.
	Details []domain.SubmissionAnswer
}

// Score dispatches to the scorer matching the question type. The switch is
// the single place question kinds are interpreted; an unknown type fails
// loudly instead of falling through.
func Score(q domain.Question, ua domain.UserAnswer, submissionID int64) (Result, error) {
	switch q.Type {
	case domain.Text:
		return scoreText(q, ua, submissionID), nil
	case domain.SingleChoice:
		return scoreSingleChoice(q, ua, submissionID), nil
	case domain.MultipleChoice:
		return scoreMultipleChoice(q, ua, submissionID)
	default:
		return Result{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedQuestionType, q.Type)
	}
}

// scoreText matches the submitted text against the accepted answers,
// case-insensitively and with surrounding whitespace trimmed. The detail row
// keeps the raw submitted text.
func scoreText(q domain.Question, ua domain.UserAnswer, submissionID int64) Result {
	correct := false
	if ua.TextAnswer != nil {
		submitted := normalizeText(*ua.TextAnswer)
		if submitted != "" {
			for _, a := range q.Answers {
				if a.IsCorrect && normalizeText(a.Text) == submitted {
					correct = true
					break
				}
			}
		}
	}

	score := -q.NegativePoints
	if correct {
		score = q.Points
	}
	return Result{
		Score: score,
		Details: []domain.SubmissionAnswer{{
			SubmissionID: submissionID,
			QuestionID:   q.ID,
			TextAnswer:   ua.TextAnswer,
			Score:        score,
			IsPrimary:    true,
		}},
	}
}

// scoreSingleChoice awards the points only when exactly one id was submitted
// and it is the question's correct answer. A question with no answer flagged
// correct can never be matched, so every selection scores as incorrect.
func scoreSingleChoice(q domain.Question, ua domain.UserAnswer, submissionID int64) Result {
	var correctID *int64
	for _, a := range q.Answers {
		if a.IsCorrect {
			id := a.ID
			correctID = &id
			break
		}
	}

	matched := correctID != nil && len(ua.SelectedAnswerIDs) == 1 && ua.SelectedAnswerIDs[0] == *correctID

	score := -q.NegativePoints
	if matched {
		score = q.Points
	}

	var selected *int64
	if len(ua.SelectedAnswerIDs) > 0 {
		id := ua.SelectedAnswerIDs[0]
		selected = &id
	}
	return Result{
		Score: score,
		Details: []domain.SubmissionAnswer{{
			SubmissionID:     submissionID,
			QuestionID:       q.ID,
			SelectedAnswerID: selected,
			Score:            score,
			IsPrimary:        true,
		}},
	}
}

// scoreMultipleChoice splits the question's points evenly across its correct
// answers and awards one share per distinct correct selection. Any selected
// id outside the correct set penalizes the whole question exactly once.
// One detail row is emitted per submitted id, in submission order; the first
// row carries the contribution.
func scoreMultipleChoice(q domain.Question, ua domain.UserAnswer, submissionID int64) (Result, error) {
	correct := make(map[int64]struct{})
	for _, a := range q.Answers {
		if a.IsCorrect {
			correct[a.ID] = struct{}{}
		}
	}
	if len(correct) == 0 {
		return Result{}, fmt.Errorf("question %d: %w", q.ID, domain.ErrQuestionMisconfigured)
	}
	pointsPerCorrect := q.Points / float64(len(correct))

	// Repeated ids do not earn the share twice.
	seen := make(map[int64]struct{}, len(ua.SelectedAnswerIDs))
	hasWrong := false
	for _, id := range ua.SelectedAnswerIDs {
		seen[id] = struct{}{}
		if _, ok := correct[id]; !ok {
			hasWrong = true
		}
	}

	var score float64
	if hasWrong {
		score = -q.NegativePoints
	} else {
		score = pointsPerCorrect * float64(len(seen))
	}

	details := make([]domain.SubmissionAnswer, 0, len(ua.SelectedAnswerIDs))
	for i, id := range ua.SelectedAnswerIDs {
		id := id
		row := domain.SubmissionAnswer{
			SubmissionID:     submissionID,
			QuestionID:       q.ID,
			SelectedAnswerID: &id,
		}
		if i == 0 {
			row.Score = score
			row.IsPrimary = true
		}
		details = append(details, row)
	}
	return Result{Score: score, Details: details}, nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
