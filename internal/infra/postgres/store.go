package postgres

import (
	"context"
	"database/sql"

	"quiz-submission-service/internal/app"
	"quiz-submission-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// OpenDB opens a bun handle for the given Postgres DSN.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store is the Postgres-backed quiz content and submission store.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

var _ app.SubmissionStore = (*Store)(nil)
var _ app.ContentStore = (*Store)(nil)

// InTx runs fn inside one database transaction. bun rolls the transaction
// back whenever fn returns an error, on every exit path.
func (s *Store) InTx(ctx context.Context, fn func(tx app.SubmissionTx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx bun.Tx
}

func (t *pgTx) FindQuestionsWithAnswers(ctx context.Context, quizID int64, questionIDs []int64) ([]domain.Question, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var questions []domain.Question
	err := t.tx.NewSelect().
		Model(&questions).
		Relation("Answers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("a.id ASC")
		}).
		Where("q.quiz_id = ?", quizID).
		Where("q.id IN (?)", bun.In(questionIDs)).
		Order("q.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (t *pgTx) CreateSubmission(ctx context.Context, sub *domain.Submission) error {
	_, err := t.tx.NewInsert().Model(sub).Returning("id").Exec(ctx)
	return err
}

func (t *pgTx) BulkInsertAnswers(ctx context.Context, rows []domain.SubmissionAnswer) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := t.tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (t *pgTx) UpdateSubmissionTotals(ctx context.Context, sub *domain.Submission) error {
	_, err := t.tx.NewUpdate().
		Model(sub).
		Column("score", "total").
		WherePK().
		Exec(ctx)
	return err
}

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	_, err := s.db.NewInsert().Model(quiz).Returning("id").Exec(ctx)
	return err
}

// CreateQuestionWithAnswers inserts the question and its answers in one
// transaction; the answers never land without their question.
func (s *Store) CreateQuestionWithAnswers(ctx context.Context, question *domain.Question) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		answers := question.Answers
		question.Answers = nil
		if _, err := tx.NewInsert().Model(question).Returning("id").Exec(ctx); err != nil {
			return err
		}
		for i := range answers {
			answers[i].QuestionID = question.ID
		}
		if len(answers) > 0 {
			if _, err := tx.NewInsert().Model(&answers).Returning("id").Exec(ctx); err != nil {
				return err
			}
		}
		question.Answers = answers
		return nil
	})
}

func (s *Store) ListQuestionsWithAnswers(ctx context.Context, quizID int64) ([]domain.Question, error) {
	var questions []domain.Question
	err := s.db.NewSelect().
		Model(&questions).
		Relation("Answers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("a.id ASC")
		}).
		Where("q.quiz_id = ?", quizID).
		Order("q.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetSubmission fetches a persisted submission header.
func (s *Store) GetSubmission(ctx context.Context, id int64) (domain.Submission, error) {
	var sub domain.Submission
	err := s.db.NewSelect().Model(&sub).Where("s.id = ?", id).Scan(ctx)
	return sub, err
}

// AnswersForSubmission fetches a submission's detail rows in insertion order.
func (s *Store) AnswersForSubmission(ctx context.Context, submissionID int64) ([]domain.SubmissionAnswer, error) {
	var rows []domain.SubmissionAnswer
	err := s.db.NewSelect().
		Model(&rows).
		Where("sa.submission_id = ?", submissionID).
		Order("sa.id ASC").
		Scan(ctx)
	return rows, err
}

// CountSubmissions reports all persisted submission headers.
func (s *Store) CountSubmissions(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*domain.Submission)(nil)).Count(ctx)
}

// CountSubmissionAnswers reports all persisted detail rows.
func (s *Store) CountSubmissionAnswers(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*domain.SubmissionAnswer)(nil)).Count(ctx)
}
