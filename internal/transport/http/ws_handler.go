package http

import (
	"log"
	"net/http"
	"strconv"

	"quiz-submission-service/internal/app"
	"quiz-submission-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams finalized submission results for a quiz to websocket
// clients. The feed is read-only: submissions are made over REST, and a
// result only reaches the feed after its transaction committed.
type WSHandler struct {
	hub      *app.ResultsHub
	quizzes  app.QuizRepository
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *app.ResultsHub, quizzes app.QuizRepository) *WSHandler {
	return &WSHandler{
		hub:     hub,
		quizzes: quizzes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string                  `json:"type"`
	Payload domain.SubmissionResult `json:"payload"`
}

// ServeWS upgrades the request and forwards the quiz's result events until
// the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.URL.Query().Get("quizId"), 10, 64)
	if err != nil || quizID <= 0 {
		http.Error(w, "quizId must be a positive number", http.StatusBadRequest)
		return
	}
	if _, err := h.quizzes.GetQuiz(r.Context(), quizID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(quizID)
	defer cancel()

	// Reader only detects disconnects; inbound frames are discarded.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case result, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "submissionResult", Payload: result}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
