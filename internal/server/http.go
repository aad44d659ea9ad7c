// Package server exposes the game engine over a JSON REST API with a
// WebSocket feed of session snapshots.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golazo/once-server-go/internal/auth"
	"github.com/golazo/once-server-go/internal/config"
	"github.com/golazo/once-server-go/internal/directory"
	"github.com/golazo/once-server-go/internal/game"
	"github.com/golazo/once-server-go/internal/metrics"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Server wires the HTTP API to the session manager.
type Server struct {
	cfg     *config.Config
	manager *game.Manager
	tokens  *auth.TokenStore
	creds   directory.CredentialStore
	metrics *metrics.Metrics
	logger  *zap.Logger
	version string
	hub     *hub
	router  *httprouter.Router
}

// New builds the server and its routes.
func New(cfg *config.Config, manager *game.Manager, tokens *auth.TokenStore,
	creds directory.CredentialStore, m *metrics.Metrics, version string, logger *zap.Logger) *Server {

	s := &Server{
		cfg:     cfg,
		manager: manager,
		tokens:  tokens,
		creds:   creds,
		metrics: m,
		logger:  logger,
		version: version,
		hub:     newHub(cfg.Server.WebSocket, logger),
	}

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/api/health", s.handleHealth)
	router.HandlerFunc(http.MethodPost, "/api/login", s.handleLogin)
	router.HandlerFunc(http.MethodPost, "/api/sessions", s.handleCreateSession)
	router.Handle(http.MethodGet, "/api/sessions/:id", s.handleGetSession)
	router.Handle(http.MethodPost, "/api/sessions/:id/submit", s.handleSubmit)
	router.Handle(http.MethodPost, "/api/sessions/:id/resolve", s.handleResolve)
	router.Handle(http.MethodPost, "/api/sessions/:id/cancel", s.handleCancel)
	router.Handle(http.MethodPost, "/api/sessions/:id/reset", s.handleReset)
	router.Handle(http.MethodDelete, "/api/sessions/:id", s.handleDeleteSession)
	router.Handle(http.MethodGet, "/api/sessions/:id/ws", s.handleWebSocket)
	router.Handler(http.MethodGet, "/metrics", m.Handler())
	s.router = router

	return s
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   s.version,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := s.creds.PasswordHash(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("credential lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := auth.CheckPassword(hash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := s.tokens.Issue(req.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"username": req.Username,
	})
}

// userFromRequest resolves the optional bearer token. Anonymous play is
// allowed; an invalid token is treated as anonymous rather than rejected.
func (s *Server) userFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return ""
	}
	username, valid := s.tokens.Validate(token)
	if !valid {
		return ""
	}
	return username
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	user := s.userFromRequest(r)

	session, err := s.manager.CreateSession(r.Context(), user)
	if err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.metrics.SessionsCreated.Inc()
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (s *Server) session(w http.ResponseWriter, ps httprouter.Params) (*game.Session, bool) {
	session, ok := s.manager.GetSession(ps.ByName("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, ps)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type submitRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, ps)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Game.LookupTimeout)
	defer cancel()

	outcome, err := session.Submit(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		s.logger.Error("submission failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "player lookup failed, try again")
		return
	}

	s.recordOutcome(session, outcome)
	writeJSON(w, http.StatusOK, outcomeResponse(outcome, session))
}

type resolveRequest struct {
	SlotID int `json:"slotId"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, ps)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "slotId is required")
		return
	}

	outcome, err := session.Resolve(req.SlotID)
	if err != nil {
		s.logger.Error("resolve failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.recordOutcome(session, outcome)
	writeJSON(w, http.StatusOK, outcomeResponse(outcome, session))
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, ps)
	if !ok {
		return
	}

	outcome := session.CancelDisambiguation()
	s.recordOutcome(session, outcome)
	writeJSON(w, http.StatusOK, outcomeResponse(outcome, session))
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, ps)
	if !ok {
		return
	}

	session.Reset()
	s.hub.broadcast(session.ID, session.Snapshot())
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if _, ok := s.manager.GetSession(id); !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.manager.RemoveSession(id)
	s.hub.closeSession(id)
	w.WriteHeader(http.StatusNoContent)
}

// recordOutcome updates metrics and pushes a fresh snapshot to WebSocket
// listeners after any call that may have mutated the session.
func (s *Server) recordOutcome(session *game.Session, outcome game.Outcome) {
	s.metrics.Submissions.WithLabelValues(outcome.Kind.String()).Inc()
	if outcome.Kind == game.OutcomeCompleted {
		s.metrics.SessionsCompleted.Inc()
		s.metrics.CompletionSeconds.Observe(outcome.ElapsedSeconds)
	}

	switch outcome.Kind {
	case game.OutcomeAssigned, game.OutcomeCompleted, game.OutcomeAmbiguous, game.OutcomeCancelled:
		s.hub.broadcast(session.ID, session.Snapshot())
	}
}

// outcomeResponse maps an engine outcome onto the wire shape. Game
// outcomes, including rejections, are HTTP 200: they are answers, not
// transport failures.
func outcomeResponse(outcome game.Outcome, session *game.Session) map[string]any {
	resp := map[string]any{
		"outcome": outcome.Kind.String(),
		"session": session.Snapshot(),
	}

	switch outcome.Kind {
	case game.OutcomeAssigned:
		resp["slotId"] = outcome.SlotID
		resp["player"] = outcome.Player
		resp["club"] = outcome.Club
		resp["nextClub"] = outcome.NextClub
	case game.OutcomeCompleted:
		resp["slotId"] = outcome.SlotID
		resp["player"] = outcome.Player
		resp["club"] = outcome.Club
		resp["elapsedSeconds"] = outcome.ElapsedSeconds
	case game.OutcomeAmbiguous:
		resp["options"] = outcome.Options
	case game.OutcomeWrongClub:
		resp["actualClub"] = outcome.Club
		resp["message"] = fmt.Sprintf("that player plays for %s", outcome.Club)
	case game.OutcomeClubAlreadyUsed:
		resp["club"] = outcome.Club
		resp["message"] = fmt.Sprintf("you already used a player from %s", outcome.Club)
	case game.OutcomeInvalidChoice:
		if len(outcome.Options) > 0 {
			resp["options"] = outcome.Options
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
