package mock

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Route names accepted by WithFault
const (
	RouteHealth          = "health"
	RouteRegister        = "register"
	RouteLogin           = "login"
	RouteMe              = "me"
	RouteCreateChallenge = "create_challenge"
	RouteListChallenges  = "list_challenges"
	RouteMyChallenges    = "my_challenges"
	RouteJoinChallenge   = "join_challenge"
	RouteLogProgress     = "log_progress"
	RouteUserProgress    = "user_progress"
	RouteLeaderboard     = "leaderboard"
	RouteWarnings        = "warnings"
)

// Route describes one endpoint of the mock API
type Route struct {
	Name    string
	Method  string
	Pattern string
	Auth    bool
	handler http.HandlerFunc
}

func (s *Server) routes() []*Route {
	return []*Route{
		{Name: RouteHealth, Method: http.MethodGet, Pattern: "/api/health", handler: s.handleHealth},
		{Name: RouteRegister, Method: http.MethodPost, Pattern: "/api/auth/register", handler: s.handleRegister},
		{Name: RouteLogin, Method: http.MethodPost, Pattern: "/api/auth/login", handler: s.handleLogin},
		{Name: RouteMe, Method: http.MethodGet, Pattern: "/api/auth/me", Auth: true, handler: s.handleMe},
		{Name: RouteCreateChallenge, Method: http.MethodPost, Pattern: "/api/challenges", Auth: true, handler: s.handleCreateChallenge},
		{Name: RouteListChallenges, Method: http.MethodGet, Pattern: "/api/challenges", handler: s.handleListChallenges},
		{Name: RouteMyChallenges, Method: http.MethodGet, Pattern: "/api/challenges/my", Auth: true, handler: s.handleMyChallenges},
		{Name: RouteJoinChallenge, Method: http.MethodPost, Pattern: "/api/challenges/{id}/join", Auth: true, handler: s.handleJoinChallenge},
		{Name: RouteLogProgress, Method: http.MethodPost, Pattern: "/api/progress", Auth: true, handler: s.handleLogProgress},
		{Name: RouteUserProgress, Method: http.MethodGet, Pattern: "/api/progress/{id}", Auth: true, handler: s.handleUserProgress},
		{Name: RouteLeaderboard, Method: http.MethodGet, Pattern: "/api/leaderboard/{id}", handler: s.handleLeaderboard},
		{Name: RouteWarnings, Method: http.MethodPost, Pattern: "/api/warnings/check", Auth: true, handler: s.handleWarnings},
	}
}

// Handler builds the chi router serving every route
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.verbose {
		r.Use(s.logRequests)
	}

	for _, route := range s.routes() {
		h := route.handler
		if route.Auth {
			h = s.requireAuth(h)
		}
		r.Method(route.Method, route.Pattern, s.withFault(route.Name, h))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Not Found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	return r
}
