package suite

import (
	"fmt"
	"time"
)

const (
	DefaultPassword     = "TestPass123!"
	DefaultFullName     = "Test User"
	DefaultAgeGroup     = "adults"
	DefaultFitnessLevel = "intermediate"
)

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	AgeGroup     string `json:"age_group"`
	FitnessLevel string `json:"fitness_level"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChallengeRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	GoalType        string   `json:"goal_type"`
	TargetValue     float64  `json:"target_value"`
	DurationDays    int      `json:"duration_days"`
	AgeGroups       []string `json:"age_groups"`
	DifficultyLevel string   `json:"difficulty_level"`
}

type ProgressRequest struct {
	ChallengeID string  `json:"challenge_id"`
	Value       float64 `json:"value"`
	Notes       string  `json:"notes,omitempty"`
}

// Fixtures is the test data for one run
type Fixtures struct {
	User      RegisterRequest
	Challenge ChallengeRequest
	Progress  ProgressRequest
}

// NewTestUser returns a registration payload whose email embeds the unix
// time so repeated runs do not collide.
func NewTestUser(now time.Time) RegisterRequest {
	return RegisterRequest{
		Email:        fmt.Sprintf("test_user_%d@example.com", now.Unix()),
		Password:     DefaultPassword,
		FullName:     DefaultFullName,
		AgeGroup:     DefaultAgeGroup,
		FitnessLevel: DefaultFitnessLevel,
	}
}

func NewTestChallenge() ChallengeRequest {
	return ChallengeRequest{
		Name:            "Test Walking Challenge",
		Description:     "A test challenge for walking 10,000 steps daily",
		GoalType:        "steps",
		TargetValue:     70000,
		DurationDays:    7,
		AgeGroups:       []string{"adults", "youth"},
		DifficultyLevel: "medium",
	}
}

// NewTestProgress returns a progress entry; the challenge id is filled in
// from the session when the case runs.
func NewTestProgress() ProgressRequest {
	return ProgressRequest{
		Value: 8500.0,
		Notes: "Great morning walk!",
	}
}

func NewFixtures(now time.Time) *Fixtures {
	return &Fixtures{
		User:      NewTestUser(now),
		Challenge: NewTestChallenge(),
		Progress:  NewTestProgress(),
	}
}

func (f *Fixtures) Login() LoginRequest {
	return LoginRequest{Email: f.User.Email, Password: f.User.Password}
}
