// Package mock serves an in-memory FitTogether API for local runs and tests.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Fault replaces the normal response of a route
type Fault struct {
	Status int
	// Detail becomes the JSON error body {"detail": ...}; empty omits it
	Detail string
	// Body, when set, is written verbatim instead of a JSON error
	Body  string
	Delay time.Duration
}

// Server is the mock FitTogether API
type Server struct {
	store     *store
	port      int
	delay     time.Duration
	verbose   bool
	unhealthy bool
	faults    map[string]Fault
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose enables request logging
func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// WithUnhealthy makes the health endpoint report an unhealthy status
func WithUnhealthy() Option {
	return func(s *Server) {
		s.unhealthy = true
	}
}

// WithFault forces the named route to respond with f
func WithFault(route string, f Fault) Option {
	return func(s *Server) {
		s.faults[route] = f
	}
}

// NewServer creates a new mock server
func NewServer(opts ...Option) *Server {
	s := &Server{
		store:  newStore(),
		port:   8001,
		faults: make(map[string]Fault),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves on the configured port until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Mock FitTogether API listening on http://localhost:%d", s.port)
	if s.verbose {
		for _, route := range s.routes() {
			log.Printf("  %-6s %s", route.Method, route.Pattern)
		}
	}

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Routes returns the endpoints the server exposes
func (s *Server) Routes() []*Route {
	return s.routes()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Server) withFault(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.delay > 0 {
			if !sleep(r.Context(), s.delay) {
				return
			}
		}

		f, ok := s.faults[route]
		if !ok {
			next(w, r)
			return
		}
		if f.Delay > 0 && !sleep(r.Context(), f.Delay) {
			return
		}
		if f.Status == 0 && f.Body == "" && f.Detail == "" {
			next(w, r)
			return
		}

		status := f.Status
		if status == 0 {
			status = http.StatusOK
		}
		switch {
		case f.Body != "":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(f.Body))
		case f.Detail != "":
			respondError(w, f.Detail, status)
		default:
			respondJSON(w, map[string]string{}, status)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type userKey struct{}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respondError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		u, ok := s.store.userForToken(token)
		if !ok {
			respondError(w, "Invalid authentication credentials", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	}
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(userKey{}).(*user)
	return u
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if s.unhealthy {
		status = "unhealthy"
	}
	respondJSON(w, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		FullName     string `json:"full_name"`
		AgeGroup     string `json:"age_group"`
		FitnessLevel string `json:"fitness_level"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		respondError(w, "email, password and full_name are required", http.StatusUnprocessableEntity)
		return
	}

	u, token, err := s.store.register(req.Email, req.Password, req.FullName, req.AgeGroup, req.FitnessLevel)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, tokenResponse(u, token), http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	u, token, err := s.store.login(req.Email, req.Password)
	if err != nil {
		respondError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	respondJSON(w, tokenResponse(u, token), http.StatusOK)
}

func tokenResponse(u *user, token string) map[string]string {
	return map[string]string{
		"access_token": token,
		"token_type":   "bearer",
		"user_id":      u.ID,
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, currentUser(r), http.StatusOK)
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var c challenge
	if !decode(w, r, &c) {
		return
	}
	if c.Name == "" || c.TargetValue <= 0 || c.DurationDays <= 0 {
		respondError(w, "name, positive target_value and duration_days are required", http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, s.store.createChallenge(&c, currentUser(r).ID), http.StatusOK)
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.store.listChallenges(r.URL.Query().Get("age_group")), http.StatusOK)
}

func (s *Server) handleMyChallenges(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.store.joinedChallenges(currentUser(r).ID), http.StatusOK)
}

func (s *Server) handleJoinChallenge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.joinChallenge(id, currentUser(r).ID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]string{
		"message":      "Successfully joined challenge",
		"challenge_id": id,
	}, http.StatusOK)
}

func (s *Server) handleLogProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChallengeID string   `json:"challenge_id"`
		Value       *float64 `json:"value"`
		Notes       string   `json:"notes"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.ChallengeID == "" || req.Value == nil || *req.Value < 0 {
		respondError(w, "challenge_id and a non-negative value are required", http.StatusUnprocessableEntity)
		return
	}

	entry, err := s.store.logProgress(req.ChallengeID, currentUser(r).ID, *req.Value, req.Notes)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, entry, http.StatusOK)
}

func (s *Server) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.store.userProgress(chi.URLParam(r, "id"), currentUser(r).ID), http.StatusOK)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := s.store.leaderboard(id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]any{
		"challenge_id": id,
		"leaderboard":  entries,
	}, http.StatusOK)
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.store.warnings(currentUser(r)), http.StatusOK)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func respondStoreError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errNoChallenge) {
		status = http.StatusNotFound
	}
	respondError(w, err.Error(), status)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, detail string, status int) {
	respondJSON(w, map[string]string{"detail": detail}, status)
}
