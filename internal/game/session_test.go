package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func lobby(players ...string) *model.Session {
	scores := map[string]int{}
	for _, p := range players {
		scores[p] = 0
	}
	return &model.Session{
		Code:                "AB12CD",
		Host:                players[0],
		Players:             players,
		Scores:              scores,
		Phase:               model.PhaseLobby,
		TotalRounds:         3,
		TurnDurationSeconds: 60,
		CurrentRound:        1,
	}
}

func active(players ...string) *model.Session {
	s := lobby(players...)
	s.Phase = model.PhaseActive
	return s
}

func inTurn(deadline time.Time, players ...string) *model.Session {
	s := active(players...)
	s.Pair = &model.Pair{Explainer: players[0], Listener: players[1]}
	s.Word = "Рошан"
	s.TurnDeadline = &deadline
	return s
}

func TestStageOf(t *testing.T) {
	tests := []struct {
		name    string
		session *model.Session
		want    model.Stage
	}{
		{"lobby", lobby("Ann"), model.StageLobby},
		{"awaiting pair", active("Ann", "Bob"), model.StageAwaitingPair},
		{"turn in progress", inTurn(t0.Add(time.Second), "Ann", "Bob"), model.StageTurnInProgress},
		{"turn expired at deadline", inTurn(t0, "Ann", "Bob"), model.StageTurnExpired},
		{"turn expired after deadline", inTurn(t0.Add(-time.Second), "Ann", "Bob"), model.StageTurnExpired},
		{"finished phase", func() *model.Session {
			s := active("Ann", "Bob")
			s.Phase = model.PhaseFinished
			return s
		}(), model.StageFinished},
		{"round past total reads as finished", func() *model.Session {
			s := active("Ann", "Bob")
			s.CurrentRound = 4
			return s
		}(), model.StageFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StageOf(tt.session, t0))
		})
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, time.Duration(0), Remaining(active("Ann", "Bob"), t0))
	assert.Equal(t, 5*time.Second, Remaining(inTurn(t0.Add(5*time.Second), "Ann", "Bob"), t0))
	assert.Equal(t, time.Duration(0), Remaining(inTurn(t0.Add(-5*time.Second), "Ann", "Bob"), t0))
}

func TestNeedsExpiry(t *testing.T) {
	assert.True(t, NeedsExpiry(inTurn(t0.Add(-time.Millisecond), "Ann", "Bob"), t0))
	assert.False(t, NeedsExpiry(inTurn(t0.Add(time.Millisecond), "Ann", "Bob"), t0))
	assert.False(t, NeedsExpiry(active("Ann", "Bob"), t0))
}

func TestAuthorize(t *testing.T) {
	running := inTurn(t0.Add(time.Minute), "Ann", "Bob", "Cid")
	expired := inTurn(t0.Add(-time.Minute), "Ann", "Bob", "Cid")
	finished := active("Ann", "Bob")
	finished.Phase = model.PhaseFinished

	tests := []struct {
		name    string
		session *model.Session
		actor   string
		action  model.ActionType
		code    apperrors.ErrorCode
	}{
		{"anyone joins a lobby", lobby("Ann"), "Bob", model.ActionJoin, ""},
		{"anyone joins mid game", running, "Dan", model.ActionJoin, ""},
		{"no joining a finished game", finished, "Dan", model.ActionJoin, apperrors.ErrCodeInvalidPhase},
		{"unknown action", lobby("Ann"), "Ann", model.ActionReady, apperrors.ErrCodeInvalidInput},
		{"non member cannot leave", lobby("Ann"), "Bob", model.ActionLeave, apperrors.ErrCodeForbidden},
		{"member leaves", running, "Cid", model.ActionLeave, ""},
		{"host configures lobby", lobby("Ann", "Bob"), "Ann", model.ActionConfigure, ""},
		{"guest cannot configure", lobby("Ann", "Bob"), "Bob", model.ActionConfigure, apperrors.ErrCodeForbidden},
		{"no configure once active", active("Ann", "Bob"), "Ann", model.ActionConfigure, apperrors.ErrCodeInvalidPhase},
		{"host starts", lobby("Ann", "Bob"), "Ann", model.ActionStart, ""},
		{"guest cannot start", lobby("Ann", "Bob"), "Bob", model.ActionStart, apperrors.ErrCodeForbidden},
		{"host begins turn", active("Ann", "Bob"), "Ann", model.ActionBeginTurn, ""},
		{"guest cannot begin turn", active("Ann", "Bob"), "Bob", model.ActionBeginTurn, apperrors.ErrCodeForbidden},
		{"begin turn alone", active("Ann"), "Ann", model.ActionBeginTurn, apperrors.ErrCodeNotEnoughPlayers},
		{"begin turn during turn", running, "Ann", model.ActionBeginTurn, apperrors.ErrCodeInvalidPhase},
		{"explainer marks guessed", running, "Ann", model.ActionMarkGuessed, ""},
		{"listener cannot mark guessed", running, "Bob", model.ActionMarkGuessed, apperrors.ErrCodeForbidden},
		{"observer cannot skip", running, "Cid", model.ActionSkip, apperrors.ErrCodeForbidden},
		{"no clicks after expiry", expired, "Ann", model.ActionSkip, apperrors.ErrCodeInvalidPhase},
		{"host ends running turn", running, "Ann", model.ActionAdvanceRound, ""},
		{"host ends expired turn", expired, "Ann", model.ActionAdvanceRound, ""},
		{"guest cannot end turn", running, "Bob", model.ActionAdvanceRound, apperrors.ErrCodeForbidden},
		{"no ending a turn that is not there", active("Ann", "Bob"), "Ann", model.ActionAdvanceRound, apperrors.ErrCodeInvalidPhase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.session, tt.actor, tt.action, t0)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSelectPair(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))

	t.Run("fewer than two players", func(t *testing.T) {
		_, err := SelectPair([]string{"Ann"}, rng)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotEnoughPlayers))
		_, err = SelectPair(nil, rng)
		assert.Error(t, err)
	})

	t.Run("two players give a permutation", func(t *testing.T) {
		for range 50 {
			p, err := SelectPair([]string{"Ann", "Bob"}, rng)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"Ann", "Bob"}, []string{p.Explainer, p.Listener})
		}
	})

	t.Run("distinct members and every ordered pair reachable", func(t *testing.T) {
		players := []string{"Ann", "Bob", "Cid"}
		seen := map[model.Pair]int{}
		for range 3000 {
			p, err := SelectPair(players, rng)
			require.NoError(t, err)
			require.NotEqual(t, p.Explainer, p.Listener)
			seen[p]++
		}
		assert.Len(t, seen, 6)
		for pair, n := range seen {
			assert.Greater(t, n, 300, "pair %v under-represented", pair)
		}
	})
}

func TestWaitingTip(t *testing.T) {
	s := active("Ann", "Bob")
	s.CurrentRound = 2

	first := BuildView(s, "Bob", t0).Tip
	assert.Equal(t, WaitingTip(2), first)
	assert.Equal(t, first, BuildView(s, "Bob", t0.Add(time.Minute)).Tip)
	assert.NotEqual(t, WaitingTip(2), WaitingTip(3))
	assert.Equal(t, WaitingTip(1), WaitingTip(0))
	assert.Contains(t, BuildView(s, "Ann", t0).Tip, WaitingTip(2))
}

func TestValidateSettings(t *testing.T) {
	assert.NoError(t, ValidateSettings(1, 10))
	assert.NoError(t, ValidateSettings(20, 120))
	assert.Error(t, ValidateSettings(0, 60))
	assert.Error(t, ValidateSettings(21, 60))
	assert.Error(t, ValidateSettings(3, 9))
	assert.Error(t, ValidateSettings(3, 121))
}

func TestBuildView(t *testing.T) {
	t.Run("only the explainer sees the word", func(t *testing.T) {
		s := inTurn(t0.Add(30*time.Second), "Ann", "Bob", "Cid")

		ann := BuildView(s, "Ann", t0)
		assert.Equal(t, model.RoleExplainer, ann.Role)
		assert.Equal(t, "Рошан", ann.Word)
		assert.Equal(t, []model.ActionType{model.ActionLeave, model.ActionMarkGuessed, model.ActionSkip, model.ActionAdvanceRound}, ann.Actions)

		bob := BuildView(s, "Bob", t0)
		assert.Equal(t, model.RoleListener, bob.Role)
		assert.Equal(t, model.MaskedWord, bob.Word)
		assert.Equal(t, []model.ActionType{model.ActionLeave}, bob.Actions)

		cid := BuildView(s, "Cid", t0)
		assert.Equal(t, model.RoleObserver, cid.Role)
		assert.Equal(t, model.MaskedWord, cid.Word)

		eve := BuildView(s, "Eve", t0)
		assert.Equal(t, model.RoleSpectator, eve.Role)
		assert.Equal(t, []model.ActionType{model.ActionJoin}, eve.Actions)

		assert.Equal(t, 30, ann.RemainingSeconds)
		assert.Equal(t, "Ann", bob.Explainer)
		assert.Equal(t, "Bob", bob.Listener)
		assert.Equal(t, config.PollTurnInProgress.Milliseconds(), ann.PollAfterMs)
	})

	t.Run("remaining seconds round up", func(t *testing.T) {
		s := inTurn(t0.Add(1500*time.Millisecond), "Ann", "Bob")
		assert.Equal(t, 2, BuildView(s, "Bob", t0).RemainingSeconds)
	})

	t.Run("expired turn hides pair and word", func(t *testing.T) {
		s := inTurn(t0.Add(-time.Second), "Ann", "Bob")
		v := BuildView(s, "Ann", t0)
		assert.Equal(t, model.StageTurnExpired, v.Stage)
		assert.Empty(t, v.Word)
		assert.Empty(t, v.Explainer)
		assert.Zero(t, v.RemainingSeconds)
	})

	t.Run("lobby host", func(t *testing.T) {
		v := BuildView(lobby("Ann", "Bob"), "Ann", t0)
		assert.Equal(t, []model.ActionType{model.ActionLeave, model.ActionStart, model.ActionConfigure}, v.Actions)
		assert.Equal(t, int64(2000), v.PollAfterMs)
		assert.NotEmpty(t, v.Tip)
	})

	t.Run("finished view ranks scores and caps the round", func(t *testing.T) {
		s := active("Ann", "Bob")
		s.CurrentRound = 4
		s.Scores = map[string]int{"Ann": 1, "Bob": 3, "Old": 2}

		v := BuildView(s, "Ann", t0)
		assert.Equal(t, model.PhaseFinished, v.Phase)
		assert.Equal(t, 3, v.CurrentRound)
		assert.Equal(t, []model.ScoreEntry{
			{Player: "Bob", Score: 3, Active: true},
			{Player: "Old", Score: 2},
			{Player: "Ann", Score: 1, Active: true},
		}, v.Scores)
		assert.Empty(t, v.Actions)
	})
}
