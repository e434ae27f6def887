package app

import (
	"context"
	"fmt"

	"quiz-submission-service/internal/domain"
	"quiz-submission-service/internal/scoring"
)

// QuizRepository loads quiz headers (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// SubmissionStore opens the unit of work for one scoring request. The
// callback either returns nil and everything it did is committed, or returns
// an error and nothing is persisted.
type SubmissionStore interface {
	InTx(ctx context.Context, fn func(tx SubmissionTx) error) error
}

// SubmissionTx is the transactional view the scoring loop works against.
type SubmissionTx interface {
	// FindQuestionsWithAnswers fetches the questions of quizID restricted to
	// questionIDs, answers eagerly loaded, ordered by question id then
	// answer id.
	FindQuestionsWithAnswers(ctx context.Context, quizID int64, questionIDs []int64) ([]domain.Question, error)
	// CreateSubmission inserts the placeholder row and fills in its id.
	CreateSubmission(ctx context.Context, sub *domain.Submission) error
	// BulkInsertAnswers persists all detail rows in one statement.
	BulkInsertAnswers(ctx context.Context, rows []domain.SubmissionAnswer) error
	// UpdateSubmissionTotals writes the final score and total of sub.
	UpdateSubmissionTotals(ctx context.Context, sub *domain.Submission) error
}

// SubmissionService scores submissions against stored question data and
// persists them atomically.
type SubmissionService struct {
	store   SubmissionStore
	quizzes QuizRepository
	hub     *ResultsHub
}

// NewSubmissionService wires the scoring engine. hub may be nil when no
// result feed is needed.
func NewSubmissionService(store SubmissionStore, quizzes QuizRepository, hub *ResultsHub) *SubmissionService {
	return &SubmissionService{store: store, quizzes: quizzes, hub: hub}
}

// CreateSubmission resolves every user answer against the quiz's question
// data, applies the type-specific scoring rules, and persists the submission
// header plus its detail rows in a single transaction. Any failure rolls the
// whole attempt back; no partial submission is ever observable.
func (s *SubmissionService) CreateSubmission(ctx context.Context, quizID int64, answers []domain.UserAnswer) (domain.SubmissionResult, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.SubmissionResult{}, err
	}

	var result domain.SubmissionResult
	err := s.store.InTx(ctx, func(tx SubmissionTx) error {
		questions, err := tx.FindQuestionsWithAnswers(ctx, quizID, distinctQuestionIDs(answers))
		if err != nil {
			return fmt.Errorf("fetch questions: %w", err)
		}
		byID := make(map[int64]domain.Question, len(questions))
		for _, q := range questions {
			byID[q.ID] = q
		}

		// Placeholder row first: detail rows need its id as a foreign key.
		sub := &domain.Submission{QuizID: quizID}
		if err := tx.CreateSubmission(ctx, sub); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}

		var total, score float64
		counted := make(map[int64]struct{}, len(byID))
		var details []domain.SubmissionAnswer
		for _, ua := range answers {
			question, ok := byID[ua.QuestionID]
			if !ok {
				return fmt.Errorf("question %d: %w", ua.QuestionID, domain.ErrQuestionNotInQuiz)
			}
			// total counts each question once, even when it yields several rows.
			if _, ok := counted[question.ID]; !ok {
				counted[question.ID] = struct{}{}
				total += question.Points
			}

			res, err := scoring.Score(question, ua, sub.ID)
			if err != nil {
				return err
			}
			score += res.Score
			details = append(details, res.Details...)
		}

		if len(details) > 0 {
			if err := tx.BulkInsertAnswers(ctx, details); err != nil {
				return fmt.Errorf("insert submission answers: %w", err)
			}
		}

		sub.Score = score
		sub.Total = total
		if err := tx.UpdateSubmissionTotals(ctx, sub); err != nil {
			return fmt.Errorf("finalize submission: %w", err)
		}

		result = domain.SubmissionResult{
			SubmissionID:  sub.ID,
			QuizID:        sub.QuizID,
			TotalScore:    sub.Total,
			ScoreObtained: sub.Score,
		}
		return nil
	})
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	if s.hub != nil {
		s.hub.Publish(result)
	}
	return result, nil
}

func distinctQuestionIDs(answers []domain.UserAnswer) []int64 {
	seen := make(map[int64]struct{}, len(answers))
	ids := make([]int64, 0, len(answers))
	for _, ua := range answers {
		if _, ok := seen[ua.QuestionID]; ok {
			continue
		}
		seen[ua.QuestionID] = struct{}{}
		ids = append(ids, ua.QuestionID)
	}
	return ids
}
