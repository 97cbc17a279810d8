package suite

import "github.com/abdul-hamid-achik/fitcheck/packages/assertions"

// shape lists the fields an endpoint's success body must carry. Shapes are
// permissive: presence is all that is checked, so a field may be null or of
// any type, and extra fields are ignored. Identifiers fed forward to later
// cases are checked again when captured.
type shape []string

var (
	registerShape    = shape{"access_token", "user_id"}
	loginShape       = shape{"access_token"}
	userShape        = shape{"user_id", "email", "full_name", "age_group", "fitness_level"}
	challengeShape   = shape{"challenge_id"}
	joinShape        = shape{"message", "challenge_id"}
	progressShape    = shape{"progress_id", "user_id", "challenge_id", "value", "completion_percentage"}
	leaderboardShape = shape{"leaderboard", "challenge_id"}
)

func (s shape) checks() []assertions.Check {
	return assertions.Fields(s...)
}

// or returns v, or fallback when v is empty
func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
