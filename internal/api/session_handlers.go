package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/entrepeneur4lyf/mak/internal/chat"
	"github.com/gorilla/mux"
)

// handleListSessions returns the session collection, optionally filtered.
// `q` matches case-insensitively against titles and message text; `fuzzy=1`
// switches to rank-ordered fuzzy title matching instead.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var sessions []chat.Session
	if r.URL.Query().Get("fuzzy") == "1" {
		sessions = s.app.Store.FuzzyList(query)
	} else {
		sessions = s.app.Store.List(query)
	}

	s.writeJSON(w, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// handleGetSession returns one session with its full transcript.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, ok := s.app.Store.Get(id)
	if !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, session)
}

// handleDeleteSession removes a session. Deleting the active session also
// clears the working transcript and adapter.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.app.Store.Get(id); !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	if err := s.app.Controller.DeleteChat(id); err != nil {
		// The session is gone from memory either way; report, don't fail.
		s.writeJSON(w, map[string]interface{}{"deleted": id, "warning": err.Error()})
		return
	}
	s.writeJSON(w, map[string]interface{}{"deleted": id})
}

// handleRenameSession sets a session title. An empty title becomes the
// fallback label, never the empty string.
func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, ok := s.app.Store.Get(id); !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	if err := s.app.Store.Rename(id, req.Title); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	session, _ := s.app.Store.Get(id)
	s.writeJSON(w, session)
}

// handleExportSession serves a session transcript as a plain-text download
// named after the sanitized session title.
func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, ok := s.app.Store.Get(id)
	if !ok {
		s.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	filename := chat.ExportFilename(session.Title) + ".txt"
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	fmt.Fprint(w, chat.ExportTranscript(session))
}

// handleTheme reads or updates the stored theme preference.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.writeJSON(w, map[string]string{"theme": s.app.Theme()})
	case "PUT":
		var req struct {
			Theme string `json:"theme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.app.SetTheme(req.Theme); err != nil {
			s.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSON(w, map[string]string{"theme": req.Theme})
	}
}
