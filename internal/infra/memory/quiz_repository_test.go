package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-submission-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := domain.Quiz{Title: "General knowledge"}
	if err := store.CreateQuiz(ctx, &quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	loader := &countingLoader{QuizLoader: store}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	repo := NewQuizRepository(NewStore(), time.Minute)

	_, err := repo.GetQuiz(context.Background(), 42)
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}
