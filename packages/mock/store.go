package mock

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	errEmailTaken     = errors.New("Email already registered")
	errBadCredentials = errors.New("Invalid email or password")
	errNoChallenge    = errors.New("Challenge not found")
	errAlreadyJoined  = errors.New("Already joined this challenge")
	errNotParticipant = errors.New("Not a participant in this challenge")
)

type user struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	AgeGroup     string    `json:"age_group"`
	FitnessLevel string    `json:"fitness_level"`
	CreatedAt    time.Time `json:"created_at"`
	password     string
}

type challenge struct {
	ID                string    `json:"challenge_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	GoalType          string    `json:"goal_type"`
	TargetValue       float64   `json:"target_value"`
	DurationDays      int       `json:"duration_days"`
	AgeGroups         []string  `json:"age_groups"`
	DifficultyLevel   string    `json:"difficulty_level"`
	CreatedBy         string    `json:"created_by"`
	ParticipantsCount int       `json:"participants_count"`
	CreatedAt         time.Time `json:"created_at"`
	participants      []string
}

type progressEntry struct {
	ID                   string    `json:"progress_id"`
	UserID               string    `json:"user_id"`
	ChallengeID          string    `json:"challenge_id"`
	Value                float64   `json:"value"`
	Notes                string    `json:"notes"`
	CompletionPercentage float64   `json:"completion_percentage"`
	LoggedAt             time.Time `json:"logged_at"`
}

type leaderboardEntry struct {
	UserID               string  `json:"user_id"`
	FullName             string  `json:"full_name"`
	TotalProgress        float64 `json:"total_progress"`
	CompletionPercentage float64 `json:"completion_percentage"`
	Rank                 int     `json:"rank"`
}

type healthWarning struct {
	ID               string    `json:"warning_id"`
	UserID           string    `json:"user_id"`
	ChallengeID      string    `json:"challenge_id"`
	WarningType      string    `json:"warning_type"`
	Message          string    `json:"message"`
	Severity         string    `json:"severity"`
	AgeSpecificRisks []string  `json:"age_specific_risks"`
	CreatedAt        time.Time `json:"created_at"`
}

// ageRisks lists the risks attached to warnings per age group
var ageRisks = map[string][]string{
	"kids":    {"growth plate stress", "dehydration"},
	"youth":   {"overuse injuries", "burnout"},
	"adults":  {"joint strain", "muscle fatigue"},
	"seniors": {"fall risk", "cardiovascular strain", "joint strain"},
}

// overexertionFactor is how far above the daily pace a single entry may go
// before a warning is raised
const overexertionFactor = 1.5

// store is the in-memory state behind the mock API
type store struct {
	mu         sync.RWMutex
	users      map[string]*user
	byEmail    map[string]string
	tokens     map[string]string
	challenges []*challenge
	progress   []*progressEntry
	now        func() time.Time
}

func newStore() *store {
	return &store{
		users:   make(map[string]*user),
		byEmail: make(map[string]string),
		tokens:  make(map[string]string),
		now:     time.Now,
	}
}

func (s *store) register(email, password, fullName, ageGroup, fitnessLevel string) (*user, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.byEmail[key]; ok {
		return nil, "", errEmailTaken
	}

	u := &user{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		AgeGroup:     ageGroup,
		FitnessLevel: fitnessLevel,
		CreatedAt:    s.now(),
		password:     password,
	}
	s.users[u.ID] = u
	s.byEmail[key] = u.ID
	return u, s.issueToken(u.ID), nil
}

func (s *store) login(email, password string) (*user, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok || s.users[id].password != password {
		return nil, "", errBadCredentials
	}
	// a login supersedes every token issued to the user before
	for token, owner := range s.tokens {
		if owner == id {
			delete(s.tokens, token)
		}
	}
	return s.users[id], s.issueToken(id), nil
}

func (s *store) issueToken(userID string) string {
	token := uuid.NewString()
	s.tokens[token] = userID
	return token
}

func (s *store) userForToken(token string) (*user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

func (s *store) createChallenge(c *challenge, creator string) *challenge {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedBy = creator
	c.CreatedAt = s.now()
	if c.AgeGroups == nil {
		c.AgeGroups = []string{}
	}
	s.challenges = append(s.challenges, c)
	return c
}

func (s *store) findChallenge(id string) *challenge {
	for _, c := range s.challenges {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *store) listChallenges(ageGroup string) []*challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		if ageGroup != "" && !contains(c.AgeGroups, ageGroup) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *store) joinChallenge(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findChallenge(id)
	if c == nil {
		return errNoChallenge
	}
	if contains(c.participants, userID) {
		return errAlreadyJoined
	}
	c.participants = append(c.participants, userID)
	c.ParticipantsCount = len(c.participants)
	return nil
}

func (s *store) joinedChallenges(userID string) []*challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*challenge, 0)
	for _, c := range s.challenges {
		if contains(c.participants, userID) {
			out = append(out, c)
		}
	}
	return out
}

func (s *store) logProgress(challengeID, userID string, value float64, notes string) (*progressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findChallenge(challengeID)
	if c == nil {
		return nil, errNoChallenge
	}
	if !contains(c.participants, userID) {
		return nil, errNotParticipant
	}

	entry := &progressEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		ChallengeID: challengeID,
		Value:       value,
		Notes:       notes,
		LoggedAt:    s.now(),
	}
	s.progress = append(s.progress, entry)
	entry.CompletionPercentage = completion(s.total(challengeID, userID), c.TargetValue)
	return entry, nil
}

// completion is total/target as a percentage, capped at 100
func completion(total, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(total/target*100, 100)
}

func (s *store) total(challengeID, userID string) float64 {
	var sum float64
	for _, p := range s.progress {
		if p.ChallengeID == challengeID && p.UserID == userID {
			sum += p.Value
		}
	}
	return sum
}

func (s *store) userProgress(challengeID, userID string) []*progressEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*progressEntry, 0)
	for _, p := range s.progress {
		if p.ChallengeID == challengeID && p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

func (s *store) leaderboard(challengeID string) ([]leaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.findChallenge(challengeID)
	if c == nil {
		return nil, errNoChallenge
	}

	entries := make([]leaderboardEntry, 0, len(c.participants))
	for _, id := range c.participants {
		total := s.total(challengeID, id)
		entries = append(entries, leaderboardEntry{
			UserID:               id,
			FullName:             s.users[id].FullName,
			TotalProgress:        total,
			CompletionPercentage: completion(total, c.TargetValue),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalProgress > entries[j].TotalProgress
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// warnings flags progress entries well above the daily pace a challenge
// implies. Entries more than twice the pace are high severity.
func (s *store) warnings(u *user) []*healthWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*healthWarning, 0)
	for _, p := range s.progress {
		if p.UserID != u.ID {
			continue
		}
		c := s.findChallenge(p.ChallengeID)
		if c == nil || c.DurationDays <= 0 {
			continue
		}
		pace := c.TargetValue / float64(c.DurationDays)
		if p.Value <= pace*overexertionFactor {
			continue
		}

		severity := "medium"
		if p.Value > pace*2 {
			severity = "high"
		}
		risks := ageRisks[u.AgeGroup]
		if risks == nil {
			risks = []string{}
		}
		out = append(out, &healthWarning{
			ID:               uuid.NewString(),
			UserID:           u.ID,
			ChallengeID:      c.ID,
			WarningType:      "overexertion",
			Message:          "Logged " + c.GoalType + " far exceed the daily pace for " + c.Name,
			Severity:         severity,
			AgeSpecificRisks: risks,
			CreatedAt:        s.now(),
		})
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
