package model

import (
	"fmt"
	"time"
)

// Pair is the explainer/listener couple of the turn in progress.
type Pair struct {
	Explainer string `json:"explainer"`
	Listener  string `json:"listener"`
}

// Session is the shared game record for one room, as read from the store.
type Session struct {
	Code                string         `json:"code"`
	Host                string         `json:"host"`
	Players             []string       `json:"players"`
	Scores              map[string]int `json:"scores"`
	Phase               Phase          `json:"phase"`
	TotalRounds         int            `json:"totalRounds"`
	TurnDurationSeconds int            `json:"turnDurationSeconds"`
	CurrentRound        int            `json:"currentRound"`
	Pair                *Pair          `json:"pair,omitempty"`
	Word                string         `json:"word,omitempty"`
	TurnDeadline        *time.Time     `json:"turnDeadline,omitempty"`
	Version             int64          `json:"version"`
	CreatedAt           time.Time      `json:"createdAt"`
}

type CreateSessionParams struct {
	Code                string
	Host                string
	TotalRounds         int
	TurnDurationSeconds int
	CreatedAt           time.Time
}

// BeginTurnParams carries a host's pair selection. The store commits it only
// while the room is still awaiting a pair.
type BeginTurnParams struct {
	Actor    string
	Pair     Pair
	Word     string
	Deadline time.Time
}

// WordChangeParams carries an explainer's guessed/skip click. SeenWord is the
// word the explainer was looking at; the store refuses the change if the word
// has moved on since.
type WordChangeParams struct {
	Actor    string
	SeenWord string
	NewWord  string
	Now      time.Time
}

func (s *Session) HasPlayer(name string) bool {
	for _, p := range s.Players {
		if p == name {
			return true
		}
	}
	return false
}

func (s *Session) IsHost(name string) bool {
	return name != "" && s.Host == name
}

func (s *Session) TurnDuration() time.Duration {
	return time.Duration(s.TurnDurationSeconds) * time.Second
}

func (s *Session) TurnActive() bool {
	return s.Pair != nil
}

// CheckInvariants verifies the structural rules every stored session must obey.
func (s *Session) CheckInvariants() error {
	if s.Pair != nil {
		if s.Pair.Explainer == "" || s.Pair.Listener == "" {
			return fmt.Errorf("pair has an empty member: %+v", *s.Pair)
		}
		if s.Pair.Explainer == s.Pair.Listener {
			return fmt.Errorf("explainer and listener are both %q", s.Pair.Explainer)
		}
		if !s.HasPlayer(s.Pair.Explainer) || !s.HasPlayer(s.Pair.Listener) {
			return fmt.Errorf("pair %+v is not a subset of players", *s.Pair)
		}
	}
	if (s.Word != "") != (s.Pair != nil) {
		return fmt.Errorf("word set=%t but pair set=%t", s.Word != "", s.Pair != nil)
	}
	if (s.TurnDeadline != nil) != (s.Pair != nil) {
		return fmt.Errorf("deadline set=%t but pair set=%t", s.TurnDeadline != nil, s.Pair != nil)
	}
	if s.Phase == PhaseActive && s.CurrentRound > s.TotalRounds {
		return fmt.Errorf("round %d exceeds total %d while active", s.CurrentRound, s.TotalRounds)
	}
	for _, p := range s.Players {
		if _, ok := s.Scores[p]; !ok {
			return fmt.Errorf("player %q has no score entry", p)
		}
	}
	return nil
}
