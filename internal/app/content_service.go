package app

import (
	"context"
	"fmt"
	"strings"

	"quiz-submission-service/internal/domain"
)

// ContentStore persists quiz content. Question creation is transactional:
// the question and all its answers land together or not at all.
type ContentStore interface {
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	CreateQuestionWithAnswers(ctx context.Context, question *domain.Question) error
	ListQuestionsWithAnswers(ctx context.Context, quizID int64) ([]domain.Question, error)
}

// ContentService manages quiz and question authoring.
type ContentService struct {
	store ContentStore
}

func NewContentService(store ContentStore) *ContentService {
	return &ContentService{store: store}
}

// CreateQuiz creates an empty quiz.
func (s *ContentService) CreateQuiz(ctx context.Context, title string) (domain.Quiz, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Quiz{}, fmt.Errorf("quiz title must not be empty: %w", domain.ErrInvalidInput)
	}
	quiz := domain.Quiz{Title: title}
	if err := s.store.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// CreateQuestion creates a question together with its candidate answers.
func (s *ContentService) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	if err := validateQuestion(question); err != nil {
		return domain.Question{}, err
	}
	if err := s.store.CreateQuestionWithAnswers(ctx, &question); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}

// ListQuestions returns the quiz's questions with answers eagerly loaded.
func (s *ContentService) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	return s.store.ListQuestionsWithAnswers(ctx, quizID)
}

func validateQuestion(q domain.Question) error {
	switch {
	case q.QuizID <= 0:
		return fmt.Errorf("question needs a quiz id: %w", domain.ErrInvalidInput)
	case strings.TrimSpace(q.Text) == "":
		return fmt.Errorf("question text must not be empty: %w", domain.ErrInvalidInput)
	case !q.Type.Valid():
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedQuestionType, q.Type)
	case q.Points < 0 || q.NegativePoints < 0:
		return fmt.Errorf("points and negativePoints must be non-negative: %w", domain.ErrInvalidInput)
	case len(q.Answers) == 0:
		return fmt.Errorf("question needs at least one answer: %w", domain.ErrInvalidInput)
	}
	for _, a := range q.Answers {
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("answer text must not be empty: %w", domain.ErrInvalidInput)
		}
	}
	return nil
}
