// Package mailstub serves a local stand-in for the Gmail token and message
// endpoints so the OTP workflow can run without Google.
package mailstub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	TokenPath    = "/token"
	MessagesPath = "/gmail/v1/users/me/messages/"
)

// Route names an endpoint for hit counting and forced failures.
type Route string

const (
	RouteToken   Route = "token"
	RouteList    Route = "list"
	RouteMessage Route = "message"
)

// Config holds the credentials the stub accepts and the token it issues.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
}

// Message is a stored inbox item.
type Message struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Snippet  string `json:"snippet"`
}

// Stub is an in-memory inbox behind Gmail-shaped routes.
type Stub struct {
	cfg Config

	mu       sync.Mutex
	seq      int
	messages []Message
	forced   map[Route]int
	hits     map[Route]int
}

func New(cfg Config) *Stub {
	if cfg.AccessToken == "" {
		cfg.AccessToken = "stub-access-token"
	}
	return &Stub{
		cfg:    cfg,
		forced: make(map[Route]int),
		hits:   make(map[Route]int),
	}
}

// Deliver puts a new message at the top of the inbox.
func (s *Stub) Deliver(snippet string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("18f%013x", s.seq)
	msg := Message{ID: id, ThreadID: id, Snippet: snippet}
	s.messages = append([]Message{msg}, s.messages...)
	slog.Info("mailstub message delivered", "id", id)
	return msg
}

// ForceStatus makes route answer with status until ClearForced.
func (s *Stub) ForceStatus(r Route, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[r] = status
}

func (s *Stub) ClearForced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = make(map[Route]int)
}

// Hits returns how many requests reached route.
func (s *Stub) Hits(r Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[r]
}

// hit counts a request and returns the forced status for the route, if any.
func (s *Stub) hit(ctx context.Context, r Route) int {
	s.mu.Lock()
	s.hits[r]++
	status := s.forced[r]
	s.mu.Unlock()
	if n := noteFrom(ctx); n != nil {
		n.route = r
		n.forced = status
	}
	return status
}

func (s *Stub) authorized(header string) bool {
	return header == "Bearer "+s.cfg.AccessToken
}

// Handler returns the HTTP handler serving the stub routes.
func (s *Stub) Handler() http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)

	router.Post(TokenPath, s.handleToken)

	cfg := huma.DefaultConfig("Mail Provider Stub", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	registerHealth(api)
	s.registerMessages(api)
	s.registerAdmin(api)
	return router
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("mailstub response write failed", "error", err)
	}
}

// handleToken implements the OAuth2 refresh_token grant with form parameters.
func (s *Stub) handleToken(w http.ResponseWriter, r *http.Request) {
	if status := s.hit(r.Context(), RouteToken); status != 0 {
		writeJSON(w, status, tokenError{Error: "server_error", ErrorDescription: "forced status " + strconv.Itoa(status)})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, tokenError{Error: "invalid_request", ErrorDescription: err.Error()})
		return
	}
	if r.PostForm.Get("grant_type") != "refresh_token" {
		writeJSON(w, http.StatusBadRequest, tokenError{Error: "unsupported_grant_type", ErrorDescription: "only refresh_token is supported"})
		return
	}
	if r.PostForm.Get("client_id") != s.cfg.ClientID || r.PostForm.Get("client_secret") != s.cfg.ClientSecret {
		writeJSON(w, http.StatusUnauthorized, tokenError{Error: "invalid_client", ErrorDescription: "The OAuth client was not found."})
		return
	}
	if r.PostForm.Get("refresh_token") != s.cfg.RefreshToken {
		writeJSON(w, http.StatusBadRequest, tokenError{Error: "invalid_grant", ErrorDescription: "Token has been expired or revoked."})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: s.cfg.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   3599,
		Scope:       "https://www.googleapis.com/auth/gmail.readonly",
	})
}
