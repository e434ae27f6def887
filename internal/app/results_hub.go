package app

import (
	"sync"

	"quiz-submission-service/internal/domain"
)

// ResultsHub fans finalized submission results out to per-quiz subscribers.
// Results are published only after the scoring transaction commits, so the
// feed never observes a submission that later rolled back.
type ResultsHub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan domain.SubmissionResult]struct{}
}

func NewResultsHub() *ResultsHub {
	return &ResultsHub{
		subscribers: make(map[int64]map[chan domain.SubmissionResult]struct{}),
	}
}

// Subscribe returns a channel that receives results for one quiz. The caller
// must invoke the returned cancel function to avoid leaks.
func (h *ResultsHub) Subscribe(quizID int64) (<-chan domain.SubmissionResult, func()) {
	ch := make(chan domain.SubmissionResult, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.SubmissionResult]struct{})
		h.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[quizID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, quizID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a result to the quiz's subscribers. Slow consumers lose
// the oldest buffered result instead of blocking the publisher.
func (h *ResultsHub) Publish(result domain.SubmissionResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[result.QuizID] {
		select {
		case ch <- result:
		default:
			// Drop the oldest buffered result to make room; never block.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- result:
			default:
			}
		}
	}
}
