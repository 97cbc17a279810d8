package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadySet is returned when an identifier that may only be set once per
// run is assigned a second, different value.
var ErrAlreadySet = errors.New("session value already set")

type Session struct {
	BaseURL     string
	AuthToken   string
	UserID      string
	ChallengeID string
	TestsRun    int
	TestsPassed int
}

func New(baseURL string) *Session {
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetToken stores the bearer token. Login replaces the token issued at
// registration, so the token is the one value allowed to change.
func (s *Session) SetToken(token string) {
	s.AuthToken = token
}

func (s *Session) HasToken() bool {
	return s.AuthToken != ""
}

func (s *Session) SetUserID(id string) error {
	if s.UserID != "" && s.UserID != id {
		return fmt.Errorf("user id: %w", ErrAlreadySet)
	}
	s.UserID = id
	return nil
}

func (s *Session) SetChallengeID(id string) error {
	if s.ChallengeID != "" && s.ChallengeID != id {
		return fmt.Errorf("challenge id: %w", ErrAlreadySet)
	}
	s.ChallengeID = id
	return nil
}

// Record counts one executed test case.
func (s *Session) Record(passed bool) {
	s.TestsRun++
	if passed {
		s.TestsPassed++
	}
}

func (s *Session) TestsFailed() int {
	return s.TestsRun - s.TestsPassed
}

// AllPassed reports whether every executed case passed. A run with no
// executed cases counts as passing.
func (s *Session) AllPassed() bool {
	return s.TestsPassed == s.TestsRun
}
