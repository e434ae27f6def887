package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-submission-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader loads quiz headers from Postgres over pgx. It backs the quiz
// cache; the transactional store does not go through it.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx, `SELECT id, title, created_at FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}
