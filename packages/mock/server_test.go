package mock

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t     *testing.T
	base  string
	token string
}

func newClient(t *testing.T, opts ...Option) *client {
	t.Helper()
	server := httptest.NewServer(NewServer(opts...).Handler())
	t.Cleanup(server.Close)
	return &client{t: t, base: server.URL}
}

func (c *client) do(method, path string, body any) (int, map[string]any, []any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&raw))
	var obj map[string]any
	var list []any
	if json.Unmarshal(raw, &obj) != nil {
		require.NoError(c.t, json.Unmarshal(raw, &list))
	}
	return resp.StatusCode, obj, list
}

func (c *client) register(email string) {
	c.t.Helper()
	status, body, _ := c.do("POST", "/api/auth/register", map[string]string{
		"email": email, "password": "pw", "full_name": "Test User", "age_group": "adults", "fitness_level": "beginner",
	})
	require.Equal(c.t, http.StatusOK, status)
	c.token = body["access_token"].(string)
}

func (c *client) createChallenge(target float64, days int) string {
	c.t.Helper()
	status, body, _ := c.do("POST", "/api/challenges", map[string]any{
		"name": "Walk", "goal_type": "steps", "target_value": target, "duration_days": days,
		"age_groups": []string{"adults"}, "difficulty_level": "easy",
	})
	require.Equal(c.t, http.StatusOK, status)
	return body["challenge_id"].(string)
}

func TestHealth(t *testing.T) {
	status, body, _ := newClient(t).do("GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	_, body, _ = newClient(t, WithUnhealthy()).do("GET", "/api/health", nil)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	c := newClient(t)
	c.register("a@example.com")

	status, body, _ := c.do("POST", "/api/auth/register", map[string]string{
		"email": "A@example.com", "password": "pw", "full_name": "Dup",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already registered", body["detail"])

	status, body, _ = c.do("POST", "/api/auth/login", map[string]string{"email": "a@example.com", "password": "pw"})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, _, _ = c.do("POST", "/api/auth/login", map[string]string{"email": "a@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginRevokesEarlierTokens(t *testing.T) {
	c := newClient(t)
	c.register("revoke@example.com")
	registrationToken := c.token

	status, body, _ := c.do("POST", "/api/auth/login", map[string]string{"email": "revoke@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, status)
	loginToken := body["access_token"].(string)
	assert.NotEqual(t, registrationToken, loginToken)

	status, body, _ = c.do("GET", "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid authentication credentials", body["detail"])

	c.token = loginToken
	status, _, _ = c.do("GET", "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestMe_RequiresAuth(t *testing.T) {
	c := newClient(t)
	status, body, _ := c.do("GET", "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", body["detail"])

	c.register("me@example.com")
	status, body, _ = c.do("GET", "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "me@example.com", body["email"])
	assert.Equal(t, "adults", body["age_group"])
	assert.NotContains(t, body, "password")
}

func TestChallengeLifecycle(t *testing.T) {
	c := newClient(t)
	c.register("walker@example.com")
	id := c.createChallenge(70000, 7)

	_, _, list := c.do("GET", "/api/challenges?age_group=adults", nil)
	assert.Len(t, list, 1)
	_, _, list = c.do("GET", "/api/challenges?age_group=kids", nil)
	assert.Len(t, list, 0)

	status, body, _ := c.do("POST", "/api/progress", map[string]any{"challenge_id": id, "value": 100})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Not a participant in this challenge", body["detail"])

	status, body, _ = c.do("POST", "/api/challenges/"+id+"/join", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["challenge_id"])

	status, _, _ = c.do("POST", "/api/challenges/"+id+"/join", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	_, body, _ = c.do("POST", "/api/progress", map[string]any{"challenge_id": id, "value": 8500, "notes": "walk"})
	assert.InDelta(t, 12.142857, body["completion_percentage"], 0.0001)

	_, _, list = c.do("GET", "/api/progress/"+id, nil)
	assert.Len(t, list, 1)

	_, _, list = c.do("GET", "/api/challenges/my", nil)
	assert.Len(t, list, 1)

	_, body, _ = c.do("GET", "/api/leaderboard/"+id, nil)
	board := body["leaderboard"].([]any)
	require.Len(t, board, 1)
	assert.Equal(t, float64(1), board[0].(map[string]any)["rank"])

	status, _, _ = c.do("GET", "/api/leaderboard/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCompletionIsCapped(t *testing.T) {
	c := newClient(t)
	c.register("fast@example.com")
	id := c.createChallenge(1000, 1)
	c.do("POST", "/api/challenges/"+id+"/join", nil)

	_, body, _ := c.do("POST", "/api/progress", map[string]any{"challenge_id": id, "value": 5000})
	assert.Equal(t, float64(100), body["completion_percentage"])
}

func TestWarnings(t *testing.T) {
	c := newClient(t)
	c.register("eager@example.com")
	id := c.createChallenge(7000, 7)
	c.do("POST", "/api/challenges/"+id+"/join", nil)

	_, _, list := c.do("POST", "/api/warnings/check", nil)
	assert.Len(t, list, 0)

	c.do("POST", "/api/progress", map[string]any{"challenge_id": id, "value": 2500})
	_, _, list = c.do("POST", "/api/warnings/check", nil)
	require.Len(t, list, 1)

	w := list[0].(map[string]any)
	assert.Equal(t, "high", w["severity"])
	assert.Equal(t, "overexertion", w["warning_type"])
	assert.Equal(t, id, w["challenge_id"])
	assert.NotEmpty(t, w["age_specific_risks"])
}

func TestWithFault(t *testing.T) {
	c := newClient(t,
		WithFault(RouteHealth, Fault{Status: http.StatusServiceUnavailable}),
		WithFault(RouteRegister, Fault{Status: http.StatusConflict, Detail: "nope"}),
	)

	status, _, _ := c.do("GET", "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, body, _ := c.do("POST", "/api/auth/register", map[string]string{"email": "x@y.z"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "nope", body["detail"])
}

func TestNotFound(t *testing.T) {
	status, body, _ := newClient(t).do("GET", "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["detail"])
}

func TestRoutes(t *testing.T) {
	routes := NewServer().Routes()
	assert.Len(t, routes, 12)
}
