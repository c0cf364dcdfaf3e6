package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/entrepeneur4lyf/mak/internal/chat"
	"github.com/entrepeneur4lyf/mak/internal/orchestrator"
	"github.com/gorilla/mux"
)

// ChatRequest is a user turn submission. Images and audio arrive already
// base64-encoded by the browser's file picker and recorder.
type ChatRequest struct {
	Text   string            `json:"text"`
	Images []chat.InlineData `json:"images,omitempty"`
	Audio  *chat.InlineData  `json:"audio,omitempty"`
}

// EditRequest replaces a past user message's content with plain text.
type EditRequest struct {
	Text string `json:"text"`
}

// handleChatState reports the active conversation so a reloading browser
// can resync: session id, state machine position, transcript, last error.
func (s *Server) handleChatState(w http.ResponseWriter, r *http.Request) {
	c := s.app.Controller
	state := map[string]interface{}{
		"session_id": c.CurrentSessionID(),
		"state":      c.State().String(),
		"messages":   c.Messages(),
	}
	if err := c.Err(); err != nil {
		state["error"] = err.Error()
	}
	s.writeJSON(w, state)
}

// handleNewChat snapshots the current conversation and starts a fresh one.
func (s *Server) handleNewChat(w http.ResponseWriter, r *http.Request) {
	s.app.Controller.NewChat()
	s.app.State.LastSessionID = ""
	if err := s.app.SaveState(); err != nil {
		log.Printf("Warning: could not save ui state: %v", err)
	}
	s.writeJSON(w, map[string]interface{}{"session_id": ""})
}

// handleLoadChat activates a stored session and rebuilds the adapter from
// its transcript.
func (s *Server) handleLoadChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.app.Controller.LoadChat(r.Context(), id); err != nil {
		if errors.Is(err, chat.ErrUserInput) {
			s.writeError(w, "Session not found", http.StatusNotFound)
			return
		}
		// Transcript loaded, adapter open failed; the client sees both.
		s.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.app.State.LastSessionID = id
	if err := s.app.SaveState(); err != nil {
		log.Printf("Warning: could not save ui state: %v", err)
	}
	s.writeJSON(w, map[string]interface{}{"session_id": id})
}

// handleSendMessage runs one turn and streams the reply as Server-Sent
// Events: "fragment" per cumulative update, then "done" with the committed
// message, or "error".
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flusher, ok := s.beginSSE(w)
	if !ok {
		return
	}

	final, err := s.app.Controller.Submit(r.Context(), req.Text, req.Images, req.Audio, func(f orchestrator.Fragment) {
		s.writeSSEEvent(w, flusher, "fragment", f)
	})
	s.finishSSE(w, flusher, final, err)
}

// handleEditMessage truncates at the edited message, regenerates, and
// streams the replacement reply exactly like handleSendMessage.
func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["id"]

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flusher, ok := s.beginSSE(w)
	if !ok {
		return
	}

	final, err := s.app.Controller.EditMessage(r.Context(), messageID, req.Text, func(f orchestrator.Fragment) {
		s.writeSSEEvent(w, flusher, "fragment", f)
	})
	s.finishSSE(w, flusher, final, err)
}

// beginSSE switches the response into Server-Sent Events mode.
func (s *Server) beginSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// finishSSE terminates the event stream with a "done" or "error" event.
func (s *Server) finishSSE(w http.ResponseWriter, flusher http.Flusher, final chat.Message, err error) {
	if err != nil {
		s.writeSSEEvent(w, flusher, "error", map[string]string{"error": err.Error()})
		return
	}
	s.writeSSEEvent(w, flusher, "done", map[string]interface{}{
		"message":    final,
		"session_id": s.app.Controller.CurrentSessionID(),
	})
}

// writeSSEEvent writes one SSE frame and flushes it to the client.
func (s *Server) writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE event %s: %v", event, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
