package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // bot -> set of channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

func (sm *StreamManager) Subscribe(bot string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[bot]; !ok {
		sm.subscribers[bot] = make(map[chan<- string]struct{})
	}
	sm.subscribers[bot][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[bot]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, bot)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of bot. Slow clients miss messages.
func (sm *StreamManager) Broadcast(bot string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[bot] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "bot", bot)
		}
	}
}

// Subscribers returns the number of open streams for bot.
func (sm *StreamManager) Subscribers(bot string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[bot])
}

// SubscribeEvents handles the GET /bots/{bot}/events request (SSE). The
// stream opens with the full graph as an "added everything" diff, then
// carries one diff per change made through this server.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	bot := chi.URLParam(r, "bot")

	ch, cancel := s.Streams.Subscribe(bot)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	g := ed.Graph()
	initial := domain.Diff(nil, &g)
	if initial == nil {
		initial = &domain.GraphDiff{}
	}
	if bytes, err := json.Marshal(initial); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", bytes)
	}
	flusher.Flush()
	s.logger.Info("SSE: subscribed", "bot", bot)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "bot", bot)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
