package game

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
)

// LocalGame is a single-device game: teams take turns on one screen, in
// order, and nothing is shared with other clients.
type LocalGame struct {
	ID           string
	Teams        []string
	Scores       []int
	Active       int
	Round        int
	TotalRounds  int
	TurnDuration time.Duration
	Word         string
	Deadline     time.Time
	LastActivity time.Time
}

// NewLocalGame validates the setup form and returns a game ready for the
// first team. Zero rounds or seconds take the defaults.
func NewLocalGame(id string, params model.CreateLocalGameParams, now time.Time) (*LocalGame, error) {
	if len(params.Teams) < config.MinLocalTeams || len(params.Teams) > config.MaxLocalTeams {
		return nil, apperrors.InvalidInput("teams", "need between 2 and 6 teams")
	}

	teams := make([]string, len(params.Teams))
	for i, t := range params.Teams {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, apperrors.MissingRequired("team name")
		}
		if utf8.RuneCountInString(t) > config.MaxNicknameLength {
			return nil, apperrors.InvalidInput("team name", "too long")
		}
		if slices.Contains(teams[:i], t) {
			return nil, apperrors.InvalidInput("team name", "duplicate "+t)
		}
		teams[i] = t
	}

	rounds, seconds := params.Rounds, params.Seconds
	if rounds == 0 {
		rounds = config.DefaultTotalRounds
	}
	if seconds == 0 {
		seconds = config.DefaultTurnSeconds
	}
	if err := ValidateSettings(rounds, seconds); err != nil {
		return nil, err
	}

	return &LocalGame{
		ID:           id,
		Teams:        teams,
		Scores:       make([]int, len(teams)),
		Round:        1,
		TotalRounds:  rounds,
		TurnDuration: time.Duration(seconds) * time.Second,
		LastActivity: now,
	}, nil
}

func (g *LocalGame) Finished() bool {
	return g.Round > g.TotalRounds
}

func (g *LocalGame) TurnActive() bool {
	return !g.Deadline.IsZero()
}

// Tick ends the running turn once its deadline has passed and hands the
// device to the next team. A full cycle of teams completes a round.
func (g *LocalGame) Tick(now time.Time) {
	if !g.TurnActive() || now.Before(g.Deadline) {
		return
	}
	g.Word = ""
	g.Deadline = time.Time{}
	g.Active = (g.Active + 1) % len(g.Teams)
	if g.Active == 0 {
		g.Round++
	}
}

// Ready starts the active team's turn with word.
func (g *LocalGame) Ready(now time.Time, word string) error {
	g.Tick(now)
	g.LastActivity = now
	if g.Finished() {
		return apperrors.InvalidPhase("start a turn", "finished")
	}
	if g.TurnActive() {
		return apperrors.InvalidPhase("start a turn", "turn in progress")
	}
	g.Word = word
	g.Deadline = now.Add(g.TurnDuration)
	return nil
}

// Guessed scores a point for the active team and shows word next.
func (g *LocalGame) Guessed(now time.Time, word string) error {
	if err := g.changeWord(now, "mark guessed"); err != nil {
		return err
	}
	g.Scores[g.Active]++
	g.Word = word
	return nil
}

// Skip shows word next without scoring.
func (g *LocalGame) Skip(now time.Time, word string) error {
	if err := g.changeWord(now, "skip"); err != nil {
		return err
	}
	g.Word = word
	return nil
}

func (g *LocalGame) changeWord(now time.Time, action string) error {
	g.Tick(now)
	g.LastActivity = now
	if g.Finished() {
		return apperrors.InvalidPhase(action, "finished")
	}
	if !g.TurnActive() {
		return apperrors.InvalidPhase(action, "between turns")
	}
	return nil
}

// View projects the game after applying any pending expiry.
func (g *LocalGame) View(now time.Time) model.LocalView {
	g.Tick(now)

	v := model.LocalView{
		ID:                  g.ID,
		Teams:               slices.Clone(g.Teams),
		Active:              g.Teams[g.Active],
		CurrentRound:        min(g.Round, g.TotalRounds),
		TotalRounds:         g.TotalRounds,
		TurnDurationSeconds: int(g.TurnDuration / time.Second),
		TurnActive:          g.TurnActive(),
		Word:                g.Word,
		Finished:            g.Finished(),
		Actions:             []model.ActionType{},
		PollAfterMs:         config.PollLobby.Milliseconds(),
	}

	for i, t := range g.Teams {
		v.Scores = append(v.Scores, model.ScoreEntry{Player: t, Score: g.Scores[i], Active: i == g.Active})
	}

	switch {
	case v.Finished:
		slices.SortStableFunc(v.Scores, func(a, b model.ScoreEntry) int {
			return b.Score - a.Score
		})
		v.PollAfterMs = config.PollFinished.Milliseconds()
	case v.TurnActive:
		remaining := g.Deadline.Sub(now)
		v.RemainingSeconds = int((remaining + time.Second - 1) / time.Second)
		v.Actions = append(v.Actions, model.ActionMarkGuessed, model.ActionSkip)
		v.PollAfterMs = config.PollTurnInProgress.Milliseconds()
	default:
		v.Actions = append(v.Actions, model.ActionReady)
	}
	return v
}
