package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"agentdash/internal"
)

// Progress event types
const (
	EventProgress = "progress"
	EventDone     = "done"
	EventError    = "error"
)

// defaultKeepAlive is how often an idle stream gets a ping
const defaultKeepAlive = 30 * time.Second

// SSEClient represents a connected SSE client
type SSEClient struct {
	SessionID string
	Channel   chan ProgressEvent
}

// ProgressEvent is one batch progress update for SSE streaming
type ProgressEvent struct {
	SessionID string    `json:"session_id"`
	EventType string    `json:"event_type"`
	BatchID   string    `json:"batch_id,omitempty"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SSEHub fans batch progress out to the browsers watching a session
type SSEHub struct {
	clients    map[string]map[chan ProgressEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan ProgressEvent
	quit       chan struct{}
	closeOnce  sync.Once
	keepAlive  time.Duration
	logger     *internal.Logger
}

// NewSSEHub creates a hub and starts its dispatch loop. Call Close to stop it.
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan ProgressEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan ProgressEvent, 100),
		quit:       make(chan struct{}),
		keepAlive:  defaultKeepAlive,
		logger:     internal.DefaultLogger.Named("SSE"),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case <-h.quit:
			h.clientsMu.Lock()
			for sessionID, clients := range h.clients {
				for ch := range clients {
					close(ch)
				}
				delete(h.clients, sessionID)
			}
			h.clientsMu.Unlock()
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[chan ProgressEvent]bool)
			}
			h.clients[client.SessionID][client.Channel] = true
			h.logger.Debug("Client registered for session %s (total clients: %d)",
				client.SessionID, len(h.clients[client.SessionID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.SessionID]; exists && clients[client.Channel] {
				delete(clients, client.Channel)
				close(client.Channel)
				h.logger.Debug("Client unregistered from session %s (remaining clients: %d)",
					client.SessionID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.SessionID] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("Client channel full for session %s, skipping %s event",
						event.SessionID, event.EventType)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Close stops the dispatch loop and ends every open stream
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Broadcast sends an event to all clients listening to a session
func (h *SSEHub) Broadcast(event ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	case <-h.quit:
	default:
		h.logger.Warn("Broadcast channel full, dropping %s event", event.EventType)
	}
}

// HandleSSE streams the events of the session named by the session_id
// query parameter until the client disconnects
func (h *SSEHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, `{"error":"session_id parameter required"}`, http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	clientChan := make(chan ProgressEvent, 10)
	select {
	case h.register <- SSEClient{SessionID: sessionID, Channel: clientChan}:
	default:
		http.Error(w, `{"error":"SSE hub registration failed"}`, http.StatusServiceUnavailable)
		return
	}
	defer func() {
		select {
		case h.unregister <- SSEClient{SessionID: sessionID, Channel: clientChan}:
		case <-h.quit:
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case event, open := <-clientChan:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
			flusher.Flush()

		case now := <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"status\":\"alive\",\"timestamp\":%q}\n\n", now.Format(time.RFC3339))
			flusher.Flush()

		case <-ctx.Done():
			return

		case <-h.quit:
			return
		}
	}
}

// GetActiveSessions returns sessions with active SSE clients
func (h *SSEHub) GetActiveSessions() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	sessions := make([]string, 0, len(h.clients))
	for sessionID := range h.clients {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// GetClientCount returns the number of active clients for a session
func (h *SSEHub) GetClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}
