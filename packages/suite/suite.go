package suite

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"

	"github.com/abdul-hamid-achik/fitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/fitcheck/packages/capture"
	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
	"github.com/abdul-hamid-achik/fitcheck/packages/http"
)

// Case names as they appear in reports
const (
	CaseHealth           = "Health Check"
	CaseRegister         = "User Registration"
	CaseLogin            = "User Login"
	CaseUserInfo         = "Get User Info"
	CaseCreateChallenge  = "Create Challenge"
	CaseListChallenges   = "Get All Challenges"
	CaseFilterChallenges = "Get Challenges (Age Filter)"
	CaseJoinChallenge    = "Join Challenge"
	CaseLogProgress      = "Log Progress"
	CaseUserProgress     = "Get User Progress"
	CaseLeaderboard      = "Get Leaderboard"
	CaseMyChallenges     = "Get My Challenges"
	CaseHealthWarnings   = "Health Warnings Check"
	CaseWarningStructure = "Health Warning Structure"

	DetailNoChallengeID = "No challenge ID available"
	healthyStatus       = "healthy"
	filterAgeGroup      = "adults"
)

//go:embed schemas/health_warning.json
var healthWarningSchema []byte

var (
	tokenCapture     = capture.Body("token", "access_token")
	userIDCapture    = capture.Body("user_id", "user_id")
	challengeCapture = capture.Body("challenge_id", "challenge_id")
)

type Suite struct {
	fixtures *Fixtures
}

func New(fixtures *Fixtures) *Suite {
	return &Suite{fixtures: fixtures}
}

// Steps returns the ordered test list
func (s *Suite) Steps() []runner.Step {
	return []runner.Step{
		{Name: CaseHealth, Critical: true, Abort: "Health check failed", Run: s.healthCheck},
		{Name: CaseRegister, Critical: true, Abort: "User registration failed", Run: s.register},
		{Name: CaseLogin, Critical: true, Abort: "User login failed", Run: s.login},
		{Name: CaseUserInfo, Critical: true, Abort: "Get user info failed", Run: s.userInfo},
		{Name: CaseCreateChallenge, Critical: true, Abort: "Challenge creation failed", Run: s.createChallenge},
		{Name: "Get Challenges", Run: s.listChallenges},
		{Name: CaseJoinChallenge, Critical: true, Abort: "Join challenge failed", Run: s.joinChallenge},
		{Name: CaseLogProgress, Run: s.logProgress},
		{Name: CaseUserProgress, Run: s.userProgress},
		{Name: CaseLeaderboard, Run: s.leaderboard},
		{Name: CaseMyChallenges, Run: s.myChallenges},
		{Name: CaseHealthWarnings, Run: s.healthWarnings},
	}
}

func (s *Suite) expect(ctx context.Context, st *runner.State, call http.Call, checks ...assertions.Check) *assertions.Outcome {
	resp, err := st.Call(ctx, call)
	return assertions.Classify(resp, err, 200, checks...)
}

// fail records a failed case with the detail derived from the outcome
func fail(st *runner.State, name string, o *assertions.Outcome) bool {
	st.Record(name, false, o.Detail())
	return false
}

// identifiers captures values later cases depend on. A null or empty
// identifier fails the case like a missing field.
func identifiers(st *runner.State, name string, o *assertions.Outcome, captures ...*capture.Capture) (map[string]string, bool) {
	ids, err := capture.NewExtractor(o.Response).Required(captures...)
	if err != nil {
		st.Record(name, false, assertions.DetailFor(err))
		return nil, false
	}
	return ids, true
}

func (s *Suite) healthCheck(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "GET", Endpoint: "api/health"},
		assertions.Equals("status", healthyStatus))

	if o.Response == nil {
		return fail(st, CaseHealth, o)
	}
	if o.Response.StatusCode != 200 {
		st.Record(CaseHealth, false, fmt.Sprintf("Status code: %d", o.Response.StatusCode))
		return false
	}

	st.Record(CaseHealth, o.Passed(), "Status: "+or(o.String("status"), "unknown"))
	return o.Passed()
}

func (s *Suite) register(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "POST", Endpoint: "api/auth/register", Body: s.fixtures.User},
		registerShape.checks()...)
	if !o.Passed() {
		return fail(st, CaseRegister, o)
	}

	ids, ok := identifiers(st, CaseRegister, o, tokenCapture, userIDCapture)
	if !ok {
		return false
	}

	st.Session.SetToken(ids[tokenCapture.Name])
	if err := st.Session.SetUserID(ids[userIDCapture.Name]); err != nil {
		st.Record(CaseRegister, false, err.Error())
		return false
	}
	st.Record(CaseRegister, true, "User ID: "+ids[userIDCapture.Name])
	return true
}

func (s *Suite) login(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "POST", Endpoint: "api/auth/login", Body: s.fixtures.Login()},
		loginShape.checks()...)
	if !o.Passed() {
		return fail(st, CaseLogin, o)
	}

	ids, ok := identifiers(st, CaseLogin, o, tokenCapture)
	if !ok {
		return false
	}
	st.Session.SetToken(ids[tokenCapture.Name])
	st.Record(CaseLogin, true, "Token received")
	return true
}

func (s *Suite) userInfo(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "GET", Endpoint: "api/auth/me", Auth: true},
		userShape.checks()...)
	if !o.Passed() {
		return fail(st, CaseUserInfo, o)
	}

	if id := o.String("user_id"); st.Session.UserID != "" && id != st.Session.UserID {
		st.Warnf("profile user id %q differs from registered user id %q", id, st.Session.UserID)
	}
	st.Record(CaseUserInfo, true, "Email: "+or(o.String("email"), "N/A"))
	return true
}

func (s *Suite) createChallenge(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "POST", Endpoint: "api/challenges", Body: s.fixtures.Challenge, Auth: true},
		challengeShape.checks()...)
	if !o.Passed() {
		return fail(st, CaseCreateChallenge, o)
	}

	ids, ok := identifiers(st, CaseCreateChallenge, o, challengeCapture)
	if !ok {
		return false
	}
	id := ids[challengeCapture.Name]
	if err := st.Session.SetChallengeID(id); err != nil {
		st.Record(CaseCreateChallenge, false, err.Error())
		return false
	}
	st.Record(CaseCreateChallenge, true, "Challenge ID: "+id)
	return true
}

func (s *Suite) listChallenges(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "GET", Endpoint: "api/challenges"},
		assertions.IsArray(""))
	if !o.Passed() {
		return fail(st, CaseListChallenges, o)
	}
	st.Record(CaseListChallenges, true, fmt.Sprintf("Found %d challenges", len(o.Body.Array())))

	o = s.expect(ctx, st, http.Call{
		Method:   "GET",
		Endpoint: "api/challenges",
		Query:    map[string]string{"age_group": filterAgeGroup},
	}, assertions.IsArray(""))
	if !o.Passed() {
		return fail(st, CaseFilterChallenges, o)
	}
	st.Record(CaseFilterChallenges, true, fmt.Sprintf("Found %d adult challenges", len(o.Body.Array())))
	return true
}

// challengeID returns the session challenge id, recording a failed case
// when there is none
func challengeID(st *runner.State, name string) (string, bool) {
	if st.Session.ChallengeID == "" {
		st.Record(name, false, DetailNoChallengeID)
		return "", false
	}
	return url.PathEscape(st.Session.ChallengeID), true
}

func (s *Suite) joinChallenge(ctx context.Context, st *runner.State) bool {
	id, ok := challengeID(st, CaseJoinChallenge)
	if !ok {
		return false
	}

	o := s.expect(ctx, st, http.Call{Method: "POST", Endpoint: "api/challenges/" + id + "/join", Auth: true},
		joinShape.checks()...)
	if !o.Passed() {
		return fail(st, CaseJoinChallenge, o)
	}
	st.Record(CaseJoinChallenge, true, o.String("message"))
	return true
}

func (s *Suite) logProgress(ctx context.Context, st *runner.State) bool {
	if _, ok := challengeID(st, CaseLogProgress); !ok {
		return false
	}

	entry := s.fixtures.Progress
	entry.ChallengeID = st.Session.ChallengeID

	checks := append(progressShape.checks(), assertions.Between("completion_percentage", 0, 100))

	o := s.expect(ctx, st, http.Call{Method: "POST", Endpoint: "api/progress", Body: entry, Auth: true}, checks...)
	if !o.Passed() {
		return fail(st, CaseLogProgress, o)
	}

	st.Record(CaseLogProgress, true, fmt.Sprintf("Completion: %.1f%%", o.Body.Get("completion_percentage").Float()))
	return true
}

func (s *Suite) userProgress(ctx context.Context, st *runner.State) bool {
	id, ok := challengeID(st, CaseUserProgress)
	if !ok {
		return false
	}

	o := s.expect(ctx, st, http.Call{Method: "GET", Endpoint: "api/progress/" + id, Auth: true},
		assertions.IsArray(""))
	if !o.Passed() {
		return fail(st, CaseUserProgress, o)
	}
	st.Record(CaseUserProgress, true, fmt.Sprintf("Found %d progress entries", len(o.Body.Array())))
	return true
}

func (s *Suite) leaderboard(ctx context.Context, st *runner.State) bool {
	id, ok := challengeID(st, CaseLeaderboard)
	if !ok {
		return false
	}

	checks := append(leaderboardShape.checks(), assertions.IsArray("leaderboard"))
	o := s.expect(ctx, st, http.Call{Method: "GET", Endpoint: "api/leaderboard/" + id}, checks...)
	if !o.Passed() {
		return fail(st, CaseLeaderboard, o)
	}
	st.Record(CaseLeaderboard, true, fmt.Sprintf("Found %d entries", len(o.Body.Get("leaderboard").Array())))
	return true
}

func (s *Suite) myChallenges(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "GET", Endpoint: "api/challenges/my", Auth: true},
		assertions.IsArray(""))
	if !o.Passed() {
		return fail(st, CaseMyChallenges, o)
	}
	st.Record(CaseMyChallenges, true, fmt.Sprintf("Found %d joined challenges", len(o.Body.Array())))
	return true
}

func (s *Suite) healthWarnings(ctx context.Context, st *runner.State) bool {
	o := s.expect(ctx, st, http.Call{Method: "POST", Endpoint: "api/warnings/check", Auth: true},
		assertions.IsArray(""))
	if !o.Passed() {
		return fail(st, CaseHealthWarnings, o)
	}

	n := len(o.Body.Array())
	st.Record(CaseHealthWarnings, true, fmt.Sprintf("Found %d warnings", n))
	if n == 0 {
		return true
	}

	result := assertions.NewEvaluator(o.Response).Evaluate(assertions.MatchesSchema("0", healthWarningSchema))
	if result.Passed {
		st.Record(CaseWarningStructure, true, "Severity: "+or(o.String("0.severity"), "N/A"))
	} else {
		st.Record(CaseWarningStructure, false, result.Message)
	}
	return true
}
