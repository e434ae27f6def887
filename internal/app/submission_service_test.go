package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-submission-service/internal/app"
	"quiz-submission-service/internal/domain"
	"quiz-submission-service/internal/infra/memory"
)

type fixture struct {
	service *app.SubmissionService
	store   *memory.Store
	hub     *app.ResultsHub
	quizID  int64
	q1      domain.Question // single_choice, 3 points, 1 penalty, correct answer "Paris"
	q2      domain.Question // multiple_choice, 6 points, 2 penalty, two correct answers
	q3      domain.Question // text, 2 points, 0.5 penalty, accepts "blue"
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	content := app.NewContentService(store)

	quiz, err := content.CreateQuiz(ctx, "Geography")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	q1, err := content.CreateQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Text: "Capital of France?", Type: domain.SingleChoice,
		Points: 3, NegativePoints: 1,
		Answers: []domain.Answer{
			{Text: "Paris", IsCorrect: true},
			{Text: "Lyon"},
		},
	})
	if err != nil {
		t.Fatalf("create q1: %v", err)
	}
	q2, err := content.CreateQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Text: "Which are EU members?", Type: domain.MultipleChoice,
		Points: 6, NegativePoints: 2,
		Answers: []domain.Answer{
			{Text: "France", IsCorrect: true},
			{Text: "Spain", IsCorrect: true},
			{Text: "Norway"},
		},
	})
	if err != nil {
		t.Fatalf("create q2: %v", err)
	}
	q3, err := content.CreateQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Text: "Color of the sky?", Type: domain.Text,
		Points: 2, NegativePoints: 0.5,
		Answers: []domain.Answer{{Text: "blue", IsCorrect: true}},
	})
	if err != nil {
		t.Fatalf("create q3: %v", err)
	}

	hub := app.NewResultsHub()
	quizzes := memory.NewQuizRepository(store, time.Minute)
	return &fixture{
		service: app.NewSubmissionService(store, quizzes, hub),
		store:   store,
		hub:     hub,
		quizID:  quiz.ID,
		q1:      q1,
		q2:      q2,
		q3:      q3,
	}
}

func TestCreateSubmissionAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.CreateSubmission(ctx, f.quizID, []domain.UserAnswer{
		{QuestionID: f.q1.ID, SelectedAnswerIDs: []int64{f.q1.Answers[0].ID}},
		{QuestionID: f.q2.ID, SelectedAnswerIDs: []int64{f.q2.Answers[0].ID}},
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}

	if result.TotalScore != 9 {
		t.Fatalf("expected total 9, got %v", result.TotalScore)
	}
	// 3 for the correct single choice + 6/2 for one of two correct options.
	if result.ScoreObtained != 6 {
		t.Fatalf("expected score 6, got %v", result.ScoreObtained)
	}

	sub, ok := f.store.GetSubmission(result.SubmissionID)
	if !ok || sub.Score != 6 || sub.Total != 9 {
		t.Fatalf("expected finalized header, got %+v (ok=%v)", sub, ok)
	}
	rows := f.store.AnswersForSubmission(result.SubmissionID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 detail rows, got %d", len(rows))
	}
}

func TestCreateSubmissionWrongOptionPenalizedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wrong := f.q2.Answers[2].ID
	result, err := f.service.CreateSubmission(ctx, f.quizID, []domain.UserAnswer{
		{QuestionID: f.q2.ID, SelectedAnswerIDs: []int64{f.q2.Answers[0].ID, wrong}},
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if result.ScoreObtained != -2 {
		t.Fatalf("expected single -2 penalty, got %v", result.ScoreObtained)
	}
	if result.TotalScore != 6 {
		t.Fatalf("expected total 6, got %v", result.TotalScore)
	}

	rows := f.store.AnswersForSubmission(result.SubmissionID)
	if len(rows) != 2 {
		t.Fatalf("expected one row per submitted id, got %d", len(rows))
	}
	if !rows[0].IsPrimary || rows[0].Score != -2 || rows[1].IsPrimary || rows[1].Score != 0 {
		t.Fatalf("primary-row convention violated: %+v", rows)
	}
}

func TestCreateSubmissionCountsRepeatedQuestionOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.CreateSubmission(ctx, f.quizID, []domain.UserAnswer{
		{QuestionID: f.q3.ID, TextAnswer: strPtr(" Blue ")},
		{QuestionID: f.q3.ID, TextAnswer: strPtr("green")},
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if result.TotalScore != 2 {
		t.Fatalf("total must count a question once, got %v", result.TotalScore)
	}
	if result.ScoreObtained != 1.5 {
		t.Fatalf("expected 2 - 0.5, got %v", result.ScoreObtained)
	}
}

func TestCreateSubmissionUnknownQuestionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateSubmission(ctx, f.quizID, []domain.UserAnswer{
		{QuestionID: f.q1.ID, SelectedAnswerIDs: []int64{f.q1.Answers[0].ID}},
		{QuestionID: 9999, SelectedAnswerIDs: []int64{1}},
	})
	if !errors.Is(err, domain.ErrQuestionNotInQuiz) {
		t.Fatalf("expected referential error, got %v", err)
	}
	if !domain.IsBadRequest(err) {
		t.Fatalf("referential error must classify as bad request")
	}

	if f.store.SubmissionCount() != 0 || f.store.AnswerRowCount() != 0 {
		t.Fatalf("failed attempt must persist nothing: %d submissions, %d rows",
			f.store.SubmissionCount(), f.store.AnswerRowCount())
	}
}

func TestCreateSubmissionForeignQuestionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content := app.NewContentService(f.store)
	other, err := content.CreateQuiz(ctx, "Other quiz")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	foreign, err := content.CreateQuestion(ctx, domain.Question{
		QuizID: other.ID, Text: "intruder", Type: domain.Text, Points: 1,
		Answers: []domain.Answer{{Text: "x", IsCorrect: true}},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	_, err = f.service.CreateSubmission(ctx, f.quizID, []domain.UserAnswer{
		{QuestionID: foreign.ID, TextAnswer: strPtr("x")},
	})
	if !errors.Is(err, domain.ErrQuestionNotInQuiz) {
		t.Fatalf("question of another quiz must be rejected, got %v", err)
	}
}

func TestCreateSubmissionMisconfiguredQuestionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content := app.NewContentService(f.store)
	broken, err := content.CreateQuestion(ctx, domain.Question{
		QuizID: f.quizID, Text: "no correct answers", Type: domain.MultipleChoice,
		Points: 4, NegativePoints: 1,
		Answers: []domain.Answer{{Text: "a"}, {Text: "b"}},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	_, err = f.service.CreateSubmission(ctx, f.quizID, []domain.UserAnswer{
		{QuestionID: f.q1.ID, SelectedAnswerIDs: []int64{f.q1.Answers[0].ID}},
		{QuestionID: broken.ID, SelectedAnswerIDs: []int64{broken.Answers[0].ID}},
	})
	if !errors.Is(err, domain.ErrQuestionMisconfigured) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if domain.IsBadRequest(err) {
		t.Fatalf("configuration errors are server-side, not bad requests")
	}
	if f.store.SubmissionCount() != 0 {
		t.Fatalf("failed attempt must persist nothing")
	}
}

func TestCreateSubmissionUnknownQuiz(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateSubmission(context.Background(), 404, []domain.UserAnswer{
		{QuestionID: f.q1.ID, SelectedAnswerIDs: []int64{1}},
	})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestResultsHubReceivesCommittedResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, cancel := f.hub.Subscribe(f.quizID)
	defer cancel()

	want, err := f.service.CreateSubmission(ctx, f.quizID, []domain.UserAnswer{
		{QuestionID: f.q3.ID, TextAnswer: strPtr("blue")},
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}

	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for result event")
	}
}

func strPtr(s string) *string { return &s }
