package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"quiz-submission-service/internal/app"
	"quiz-submission-service/internal/domain"
)

// Store is a map-backed implementation of the storage interfaces, used by
// unit tests and as the DB-less fallback. InTx serializes transactions with
// the store mutex and stages writes so a failed callback leaves no trace,
// mirroring the rollback guarantee of the Postgres store.
type Store struct {
	mu sync.Mutex

	nextQuizID       int64
	nextQuestionID   int64
	nextAnswerID     int64
	nextSubmissionID int64
	nextDetailID     int64

	quizzes           map[int64]domain.Quiz
	questions         map[int64]domain.Question
	submissions       map[int64]domain.Submission
	submissionAnswers []domain.SubmissionAnswer
}

func NewStore() *Store {
	return &Store{
		quizzes:     make(map[int64]domain.Quiz),
		questions:   make(map[int64]domain.Question),
		submissions: make(map[int64]domain.Submission),
	}
}

var _ app.SubmissionStore = (*Store)(nil)
var _ app.ContentStore = (*Store)(nil)

// InTx runs fn against a staged view of the store. Writes become visible
// only when fn returns nil.
func (s *Store) InTx(_ context.Context, fn func(tx app.SubmissionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: make(map[int64]*domain.Submission)}
	if err := fn(tx); err != nil {
		return err
	}

	for _, sub := range tx.staged {
		s.submissions[sub.ID] = *sub
	}
	s.submissionAnswers = append(s.submissionAnswers, tx.stagedAnswers...)
	return nil
}

type memTx struct {
	store         *Store
	staged        map[int64]*domain.Submission
	stagedAnswers []domain.SubmissionAnswer
}

func (t *memTx) FindQuestionsWithAnswers(_ context.Context, quizID int64, questionIDs []int64) ([]domain.Question, error) {
	wanted := make(map[int64]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}

	var out []domain.Question
	for _, q := range t.store.questions {
		if q.QuizID != quizID {
			continue
		}
		if _, ok := wanted[q.ID]; !ok {
			continue
		}
		out = append(out, cloneQuestion(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateSubmission(_ context.Context, sub *domain.Submission) error {
	t.store.nextSubmissionID++
	sub.ID = t.store.nextSubmissionID
	staged := *sub
	t.staged[sub.ID] = &staged
	return nil
}

func (t *memTx) BulkInsertAnswers(_ context.Context, rows []domain.SubmissionAnswer) error {
	for _, row := range rows {
		t.store.nextDetailID++
		row.ID = t.store.nextDetailID
		t.stagedAnswers = append(t.stagedAnswers, row)
	}
	return nil
}

func (t *memTx) UpdateSubmissionTotals(_ context.Context, sub *domain.Submission) error {
	staged, ok := t.staged[sub.ID]
	if !ok {
		return fmt.Errorf("submission %d not part of this transaction", sub.ID)
	}
	staged.Score = sub.Score
	staged.Total = sub.Total
	return nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuizID++
	quiz.ID = s.nextQuizID
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *Store) CreateQuestionWithAnswers(_ context.Context, question *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.nextQuestionID++
	question.ID = s.nextQuestionID
	for i := range question.Answers {
		s.nextAnswerID++
		question.Answers[i].ID = s.nextAnswerID
		question.Answers[i].QuestionID = question.ID
	}
	s.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (s *Store) ListQuestionsWithAnswers(_ context.Context, quizID int64) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadQuiz makes the store usable as a cache loader.
func (s *Store) LoadQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// SubmissionCount reports persisted submission headers; test inspection hook.
func (s *Store) SubmissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submissions)
}

// GetSubmission returns a persisted submission header.
func (s *Store) GetSubmission(id int64) (domain.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	return sub, ok
}

// AnswersForSubmission returns the persisted detail rows in insertion order.
func (s *Store) AnswersForSubmission(id int64) []domain.SubmissionAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SubmissionAnswer
	for _, row := range s.submissionAnswers {
		if row.SubmissionID == id {
			out = append(out, row)
		}
	}
	return out
}

// AnswerRowCount reports all persisted detail rows; test inspection hook.
func (s *Store) AnswerRowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submissionAnswers)
}

func cloneQuestion(q domain.Question) domain.Question {
	out := q
	out.Answers = make([]domain.Answer, len(q.Answers))
	copy(out.Answers, q.Answers)
	return out
}
