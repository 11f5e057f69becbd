// Package fakeapi is an in-process backend that issues and renews token pairs
// the way the real API does. Tests and the load generator mount its Handler on
// an httptest.Server.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	LoginPath   = "/api/token/"
	RenewalPath = "/api/token/refresh/"

	// ExpiredCode is the "code" field of expiry-shaped 401 responses.
	ExpiredCode = "token_not_valid"
)

// Pair is an access/refresh token pair as issued by the server.
type Pair struct {
	Access  string
	Refresh string
}

// TokenStats counts protected calls per bearer token.
type TokenStats struct {
	Accepted int
	Rejected int
}

// Server is safe for concurrent use.
type Server struct {
	mu          sync.Mutex
	access      string
	refresh     string
	queue       []Pair
	issued      int
	username    string
	password    string
	renewStatus int
	renewDelay  time.Duration
	renewGate   <-chan struct{}
	omitRefresh bool
	renewals    int
	logins      int
	tokens      map[string]*TokenStats
	router      chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithValidPair makes p the currently accepted pair.
func WithValidPair(p Pair) Option {
	return func(s *Server) {
		s.access = p.Access
		s.refresh = p.Refresh
	}
}

// WithRefreshOnly accepts refresh for renewal while no access token is valid,
// i.e. every outstanding access token has expired.
func WithRefreshOnly(refresh string) Option {
	return func(s *Server) {
		s.access = ""
		s.refresh = refresh
	}
}

// WithNextPairs queues the pairs handed out by successive logins and renewals.
// When the queue is empty the server mints "A<n>"/"R<n>".
func WithNextPairs(pairs ...Pair) Option {
	return func(s *Server) {
		s.queue = append(s.queue, pairs...)
	}
}

// WithLogin sets the accepted login credentials.
func WithLogin(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithRenewalStatus makes every renewal answer with status and no tokens.
func WithRenewalStatus(status int) Option {
	return func(s *Server) {
		s.renewStatus = status
	}
}

// WithRenewalDelay delays each renewal response.
func WithRenewalDelay(d time.Duration) Option {
	return func(s *Server) {
		s.renewDelay = d
	}
}

// WithRenewalGate blocks each renewal until gate is closed.
func WithRenewalGate(gate <-chan struct{}) Option {
	return func(s *Server) {
		s.renewGate = gate
	}
}

// WithoutRotation makes renewals return only an access token.
func WithoutRotation() Option {
	return func(s *Server) {
		s.omitRefresh = true
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		username: "user",
		password: "secret",
		tokens:   make(map[string]*TokenStats),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Post(LoginPath, s.handleLogin)
	r.Post(RenewalPath, s.handleRenewal)
	r.Get("/api/public", s.handlePublic)
	r.Route("/api/items", func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/", s.handleListItems)
		r.Get("/{id}", s.handleGetItem)
		r.Post("/", s.handleCreateItem)
	})
	r.Get("/api/forbidden", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "forbidden"})
	})
	r.Get("/api/broken", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	})
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Expire invalidates the current access token while keeping the refresh token.
func (s *Server) Expire() {
	s.mu.Lock()
	s.access = ""
	s.mu.Unlock()
}

// Current returns the pair the server accepts right now.
func (s *Server) Current() Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Pair{Access: s.access, Refresh: s.refresh}
}

func (s *Server) Renewals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renewals
}

func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Token returns the protected-call counts for a bearer token.
func (s *Server) Token(token string) TokenStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.tokens[token]; ok {
		return *st
	}
	return TokenStats{}
}

// Rejected returns the total number of protected calls answered with 401.
func (s *Server) Rejected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.tokens {
		n += st.Rejected
	}
	return n
}

func (s *Server) nextPairLocked() Pair {
	s.issued++
	if len(s.queue) > 0 {
		p := s.queue[0]
		s.queue = s.queue[1:]
		return p
	}
	return Pair{
		Access:  fmt.Sprintf("A%d", s.issued),
		Refresh: fmt.Sprintf("R%d", s.issued),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.Username != s.username || body.Password != s.password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	s.logins++
	p := s.nextPairLocked()
	s.access, s.refresh = p.Access, p.Refresh
	writeJSON(w, http.StatusOK, map[string]string{"access": p.Access, "refresh": p.Refresh})
}

func (s *Server) handleRenewal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	s.mu.Lock()
	s.renewals++
	gate, delay, status := s.renewGate, s.renewDelay, s.renewStatus
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		writeJSON(w, status, map[string]string{"detail": "renewal refused"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.Refresh == "" || body.Refresh != s.refresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": ExpiredCode})
		return
	}
	p := s.nextPairLocked()
	resp := map[string]string{"access": p.Access}
	s.access = p.Access
	if !s.omitRefresh {
		s.refresh = p.Refresh
		resp["refresh"] = p.Refresh
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}

		s.mu.Lock()
		st := s.tokens[token]
		if st == nil {
			st = &TokenStats{}
			s.tokens[token] = st
		}
		valid := s.access != "" && token == s.access
		if valid {
			st.Accepted++
		} else {
			st.Rejected++
		}
		s.mu.Unlock()

		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   ExpiredCode,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePublic(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"public":        true,
		"authorization": r.Header.Get("Authorization"),
	})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items":      []string{"1", "2"},
		"request_id": r.Header.Get("X-Request-ID"),
	})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         chi.URLParam(r, "id"),
		"request_id": r.Header.Get("X-Request-ID"),
	})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	body["created"] = true
	writeJSON(w, http.StatusCreated, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
