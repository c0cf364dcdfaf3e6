package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/entrepeneur4lyf/mak/internal/app"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server exposes the conversation engine over a localhost HTTP API: session
// management, turn streaming via SSE, and a WebSocket channel.
type Server struct {
	app        *app.App
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// NewServer creates an API server over the application.
func NewServer(makApp *app.App) *Server {
	return &Server{
		app: makApp,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return isLocalhostOrigin(r)
			},
		},
	}
}

// isLocalhostOrigin checks that a WebSocket origin is local.
func isLocalhostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost:") ||
		strings.HasPrefix(origin, "http://127.0.0.1:") ||
		strings.HasPrefix(origin, "http://[::1]:")
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start(port int) error {
	router := s.setupRoutes()
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting MAK API server on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.corsMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session collection
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/rename", s.handleRenameSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/export", s.handleExportSession).Methods("GET")

	// Active conversation
	api.HandleFunc("/chat/state", s.handleChatState).Methods("GET")
	api.HandleFunc("/chat/new", s.handleNewChat).Methods("POST")
	api.HandleFunc("/chat/load/{id}", s.handleLoadChat).Methods("POST")
	api.HandleFunc("/chat/message", s.handleSendMessage).Methods("POST")
	api.HandleFunc("/chat/messages/{id}/edit", s.handleEditMessage).Methods("POST")

	// WebSocket for real-time chat
	api.HandleFunc("/chat/ws", s.handleChatWebSocket)

	// Preferences
	api.HandleFunc("/theme", s.handleTheme).Methods("GET", "PUT")

	return router
}

// corsMiddleware adds CORS headers restricted to localhost origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || isLocalhostOrigin(r) {
			if origin == "" {
				origin = fmt.Sprintf("http://localhost:%d", s.app.Config.Port)
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}
