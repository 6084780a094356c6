// Package api provides the HTTP API for the news aggregation service.
//
// It exposes the conversational query endpoint, session management, source
// status, and a WebSocket channel for interactive chat.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/pipeline"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/session"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	orch   *pipeline.Orchestrator
	wsHub  *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, orch *pipeline.Orchestrator) *Server {
	srv := &Server{
		cfg:   cfg,
		orch:  orch,
		wsHub: NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/query", s.handleQuery)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}/history", s.handleHistory)
			r.Delete("/{id}", s.handleDeleteSession)
		})

		r.Get("/sources", s.handleSources)

		r.Get("/ws", s.handleWebSocket)
		r.Get("/ws/chat", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QueryBody is the body for POST /api/query.
type QueryBody struct {
	SessionID       string  `json:"session_id,omitempty"`
	Message         string  `json:"message"`
	Company         string  `json:"company,omitempty"`
	Style           string  `json:"style,omitempty"`
	TimeRange       string  `json:"time_range,omitempty"`
	ImpactThreshold float64 `json:"impact_threshold,omitempty"`
}

// SourceInfo describes one configured source for GET /api/sources.
type SourceInfo struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Enabled     bool    `json:"enabled"`
	Credibility float64 `json:"credibility"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":   "ok",
			"version":  "dev",
			"sources":  s.orch.SourceIDs(),
			"sessions": s.orch.Sessions().Count(),
		},
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body QueryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Message == "" && body.Company == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := s.orch.Query(r.Context(), models.QueryRequest{
		SessionID:       body.SessionID,
		UserInput:       body.Message,
		Company:         body.Company,
		Style:           body.Style,
		TimeRange:       body.TimeRange,
		ImpactThreshold: body.ImpactThreshold,
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.orch.Sessions().Create()
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: sess})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.orch.Sessions().Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"session_id": sess.ID,
			"state":      sess.State,
			"company":    sess.LastResolvedCompany,
			"history":    s.orch.Sessions().History(sess),
		},
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.orch.Sessions().Delete(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	infos := make([]SourceInfo, 0, len(s.cfg.Sources))
	for _, src := range s.cfg.Sources {
		infos = append(infos, SourceInfo{
			ID:          src.ID,
			Kind:        src.Kind,
			Enabled:     src.Enabled,
			Credibility: src.Credibility,
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: infos})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
