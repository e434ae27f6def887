package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotInQuiz indicates a submitted question ID does not belong
	// to the quiz being scored.
	ErrQuestionNotInQuiz = errors.New("question not found for quiz")
	// ErrUnsupportedQuestionType indicates a question type outside the known kinds.
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
	// ErrQuestionMisconfigured indicates stored question data the scorer cannot
	// work with, e.g. a multiple-choice question with no correct answers.
	ErrQuestionMisconfigured = errors.New("question has no correct answers configured")
	// ErrQuestionNotFound indicates a question lookup by ID failed.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidInput indicates caller-supplied content that fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// IsBadRequest reports whether err is caused by invalid caller input rather
// than a server-side failure. Misconfigured questions and persistence
// failures are deliberately excluded; those are internal.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrQuestionNotInQuiz) ||
		errors.Is(err, ErrUnsupportedQuestionType) ||
		errors.Is(err, ErrInvalidInput)
}
