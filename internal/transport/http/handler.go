package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"quiz-submission-service/internal/app"
	"quiz-submission-service/internal/domain"
)

// Handler exposes the REST API.
type Handler struct {
	submissions *app.SubmissionService
	content     *app.ContentService
	quizzes     app.QuizRepository
}

func NewHandler(submissions *app.SubmissionService, content *app.ContentService, quizzes app.QuizRepository) *Handler {
	return &Handler{submissions: submissions, content: content, quizzes: quizzes}
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quizzes", h.createQuiz)
	mux.HandleFunc("GET /quizzes/{id}", h.getQuiz)
	mux.HandleFunc("POST /questions", h.createQuestion)
	mux.HandleFunc("GET /questions", h.listQuestions)
	mux.HandleFunc("POST /submissions", h.createSubmission)
}

type createQuizRequest struct {
	Title string `json:"title"`
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz, err := h.content.CreateQuiz(r.Context(), req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Quiz created successfully", quiz)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "quiz id must be a positive number")
		return
	}
	quiz, err := h.quizzes.GetQuiz(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Quiz fetched successfully", quiz)
}

type createQuestionRequest struct {
	QuizID         int64   `json:"quizId"`
	Text           string  `json:"text"`
	Type           string  `json:"type"`
	Points         float64 `json:"points"`
	NegativePoints float64 `json:"negativePoints"`
	Answers        []struct {
		Text      string `json:"text"`
		IsCorrect bool   `json:"isCorrect"`
	} `json:"answers"`
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question := domain.Question{
		QuizID:         req.QuizID,
		Text:           req.Text,
		Type:           domain.QuestionType(req.Type),
		Points:         req.Points,
		NegativePoints: req.NegativePoints,
	}
	for _, a := range req.Answers {
		question.Answers = append(question.Answers, domain.Answer{Text: a.Text, IsCorrect: a.IsCorrect})
	}

	created, err := h.content.CreateQuestion(r.Context(), question)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Question created successfully", created)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.URL.Query().Get("quizId"), 10, 64)
	if err != nil || quizID <= 0 {
		writeError(w, http.StatusBadRequest, "quizId must be a positive number")
		return
	}
	questions, err := h.content.ListQuestions(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Questions fetched successfully", questions)
}

// answerSelection accepts a single id or an array of ids, the two shapes
// clients submit for selectedAnswerId.
type answerSelection []int64

func (s *answerSelection) UnmarshalJSON(data []byte) error {
	var single int64
	if err := json.Unmarshal(data, &single); err == nil {
		*s = answerSelection{single}
		return nil
	}
	var many []int64
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("selectedAnswerId must be a number or an array of numbers")
	}
	*s = answerSelection(many)
	return nil
}

type submitRequest struct {
	QuizID  int64          `json:"quizId"`
	Answers []submitAnswer `json:"answers"`
}

type submitAnswer struct {
	QuestionID       int64            `json:"questionId"`
	SelectedAnswerID *answerSelection `json:"selectedAnswerId"`
	TextAnswer       *string          `json:"textAnswer"`
}

func (h *Handler) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answers, err := validateSubmitRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.submissions.CreateSubmission(r.Context(), req.QuizID, answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Submission recorded successfully", result)
}

func validateSubmitRequest(req submitRequest) ([]domain.UserAnswer, error) {
	if req.QuizID <= 0 {
		return nil, errors.New("quizId is required and must be a positive number")
	}
	if len(req.Answers) == 0 {
		return nil, errors.New("answers must be a non-empty array")
	}

	answers := make([]domain.UserAnswer, 0, len(req.Answers))
	for i, ans := range req.Answers {
		if ans.QuestionID <= 0 {
			return nil, fmt.Errorf("answer at index %d missing valid questionId", i)
		}
		hasSelection := ans.SelectedAnswerID != nil
		hasText := ans.TextAnswer != nil
		if !hasSelection && !hasText {
			return nil, fmt.Errorf("answer at index %d must have either selectedAnswerId or textAnswer", i)
		}
		if hasSelection && hasText {
			return nil, fmt.Errorf("answer at index %d cannot have both selectedAnswerId and textAnswer", i)
		}
		if hasText && strings.TrimSpace(*ans.TextAnswer) == "" {
			return nil, fmt.Errorf("textAnswer at index %d must be a non-empty string", i)
		}

		ua := domain.UserAnswer{QuestionID: ans.QuestionID, TextAnswer: ans.TextAnswer}
		if hasSelection {
			ua.SelectedAnswerIDs = []int64(*ans.SelectedAnswerID)
		}
		answers = append(answers, ua)
	}
	return answers, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsBadRequest(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}
