// Package game holds the rules of Alias: how a stored session is read,
// who may do what in which stage, and how pairs are chosen. It performs no
// I/O; callers persist the transitions it allows.
package game

import (
	"slices"
	"strings"
	"time"

	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
	"github.com/wezaxes/alias-server-go/internal/wordbank"
)

// StageOf derives the fine-grained stage from a session snapshot. A game
// whose round counter has passed the total reads as finished even before
// the phase field catches up.
func StageOf(s *model.Session, now time.Time) model.Stage {
	switch s.Phase {
	case model.PhaseLobby:
		return model.StageLobby
	case model.PhaseFinished:
		return model.StageFinished
	}
	if s.CurrentRound > s.TotalRounds {
		return model.StageFinished
	}
	if s.Pair == nil {
		return model.StageAwaitingPair
	}
	if s.TurnDeadline == nil || !now.Before(*s.TurnDeadline) {
		return model.StageTurnExpired
	}
	return model.StageTurnInProgress
}

// Remaining is the time left in the current turn, never negative.
func Remaining(s *model.Session, now time.Time) time.Duration {
	if s.TurnDeadline == nil {
		return 0
	}
	if d := s.TurnDeadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// NeedsExpiry reports whether a reader of this snapshot should clear the
// turn. The store applies the clear conditionally, so every reader may try.
func NeedsExpiry(s *model.Session, now time.Time) bool {
	return StageOf(s, now) == model.StageTurnExpired
}

func stageLabel(stage model.Stage) string {
	return strings.ReplaceAll(string(stage), "_", " ")
}

// Authorize checks whether actor may perform action on the session as it
// stands at now. It mirrors the checks the store re-applies atomically.
func Authorize(s *model.Session, actor string, action model.ActionType, now time.Time) error {
	if !action.In(model.RemoteActions) {
		return apperrors.InvalidInput("action", string(action))
	}

	stage := StageOf(s, now)
	member := s.HasPlayer(actor)

	switch action {
	case model.ActionJoin:
		if stage == model.StageFinished && !member {
			return apperrors.InvalidPhase("join", stageLabel(stage))
		}
		return nil
	}

	if !member {
		return apperrors.Forbidden("You are not a player in this room")
	}

	switch action {
	case model.ActionLeave:
		if stage == model.StageFinished {
			return apperrors.InvalidPhase("leave", stageLabel(stage))
		}
	case model.ActionConfigure, model.ActionStart:
		if !s.IsHost(actor) {
			return apperrors.Forbidden("Only the host can " + string(action) + " the game")
		}
		if stage != model.StageLobby {
			return apperrors.InvalidPhase(string(action), stageLabel(stage))
		}
	case model.ActionBeginTurn:
		if !s.IsHost(actor) {
			return apperrors.Forbidden("Only the host can choose the next pair")
		}
		if stage != model.StageAwaitingPair {
			return apperrors.InvalidPhase("begin a turn", stageLabel(stage))
		}
		if len(s.Players) < 2 {
			return apperrors.NotEnoughPlayers(len(s.Players), 2)
		}
	case model.ActionMarkGuessed, model.ActionSkip:
		if stage != model.StageTurnInProgress {
			return apperrors.InvalidPhase(string(action), stageLabel(stage))
		}
		if s.Pair.Explainer != actor {
			return apperrors.Forbidden("Only the explainer can change the word")
		}
	case model.ActionAdvanceRound:
		if !s.IsHost(actor) {
			return apperrors.Forbidden("Only the host can end the turn")
		}
		if stage != model.StageTurnInProgress && stage != model.StageTurnExpired {
			return apperrors.InvalidPhase("end the turn", stageLabel(stage))
		}
	}
	return nil
}

// SelectPair picks two distinct players uniformly at random. The first is
// the explainer.
func SelectPair(players []string, rng wordbank.Rand) (model.Pair, error) {
	n := len(players)
	if n < 2 {
		return model.Pair{}, apperrors.NotEnoughPlayers(n, 2)
	}
	i := rng.IntN(n)
	j := rng.IntN(n - 1)
	if j >= i {
		j++
	}
	return model.Pair{Explainer: players[i], Listener: players[j]}, nil
}

// ValidateSettings checks round and timer bounds for configure.
func ValidateSettings(rounds, seconds int) error {
	if rounds < config.MinTotalRounds || rounds > config.MaxTotalRounds {
		return apperrors.InvalidInput("rounds", "must be between 1 and 20")
	}
	if seconds < config.MinTurnSeconds || seconds > config.MaxTurnSeconds {
		return apperrors.InvalidInput("seconds", "must be between 10 and 120")
	}
	return nil
}

// RoleOf tells what viewer is in the current turn.
func RoleOf(s *model.Session, viewer string) model.Role {
	if !s.HasPlayer(viewer) {
		return model.RoleSpectator
	}
	if s.Pair != nil {
		switch viewer {
		case s.Pair.Explainer:
			return model.RoleExplainer
		case s.Pair.Listener:
			return model.RoleListener
		}
	}
	return model.RoleObserver
}

// PollInterval is how long a client should wait before reading again.
func PollInterval(stage model.Stage) time.Duration {
	switch stage {
	case model.StageAwaitingPair:
		return config.PollAwaitingPair
	case model.StageTurnInProgress:
		return config.PollTurnInProgress
	case model.StageTurnExpired:
		return config.PollAfterWrite
	case model.StageFinished:
		return config.PollFinished
	}
	return config.PollLobby
}

// AvailableActions lists what viewer may do right now.
func AvailableActions(s *model.Session, viewer string, now time.Time) []model.ActionType {
	actions := []model.ActionType{}
	for _, a := range model.RemoteActions {
		if a == model.ActionJoin && s.HasPlayer(viewer) {
			continue
		}
		if viewer == "" && a != model.ActionJoin {
			continue
		}
		if Authorize(s, viewer, a, now) == nil {
			actions = append(actions, a)
		}
	}
	return actions
}

// ScoreTable lists current players in join order, then former players.
// Once the game is finished the table is ranked by score.
func ScoreTable(s *model.Session, finished bool) []model.ScoreEntry {
	entries := make([]model.ScoreEntry, 0, len(s.Scores))
	for _, p := range s.Players {
		entries = append(entries, model.ScoreEntry{Player: p, Score: s.Scores[p], Active: true})
	}

	var former []string
	for p := range s.Scores {
		if !s.HasPlayer(p) {
			former = append(former, p)
		}
	}
	slices.Sort(former)
	for _, p := range former {
		entries = append(entries, model.ScoreEntry{Player: p, Score: s.Scores[p]})
	}

	if finished {
		slices.SortStableFunc(entries, func(a, b model.ScoreEntry) int {
			return b.Score - a.Score
		})
	}
	return entries
}

// waitingTips rotate by round while players wait for the next pair.
var waitingTips = []string{
	"Explain with synonyms, not with the word itself.",
	"No gestures that spell the word out.",
	"Skipping costs nothing, so skip a word that is not working.",
	"Listeners may shout as many guesses as they like.",
	"Same-root words are off limits.",
}

// WaitingTip is stable for a whole round.
func WaitingTip(round int) string {
	if round < 1 {
		round = 1
	}
	return waitingTips[(round-1)%len(waitingTips)]
}

func tipFor(s *model.Session, stage model.Stage, role model.Role, host bool) string {
	switch stage {
	case model.StageLobby:
		if host {
			return "Share the room code, set rounds and timer, then start the game."
		}
		return "Waiting for the host to start the game."
	case model.StageAwaitingPair:
		if host {
			return "Choose the next pair. " + WaitingTip(s.CurrentRound)
		}
		return WaitingTip(s.CurrentRound)
	case model.StageTurnInProgress:
		switch role {
		case model.RoleExplainer:
			return "Explain the word without saying it."
		case model.RoleListener:
			return "Guess the word!"
		}
		return "Watch the round."
	case model.StageTurnExpired:
		return "Time is up."
	case model.StageFinished:
		return "Game over."
	}
	return ""
}

// BuildView projects the session for one viewer. Only the explainer sees the
// word; everyone else gets MaskedWord while a turn is running.
func BuildView(s *model.Session, viewer string, now time.Time) model.View {
	stage := StageOf(s, now)
	role := RoleOf(s, viewer)

	v := model.View{
		Code:                s.Code,
		Phase:               s.Phase,
		Stage:               stage,
		Host:                s.Host,
		You:                 viewer,
		Role:                role,
		CurrentRound:        min(s.CurrentRound, s.TotalRounds),
		TotalRounds:         s.TotalRounds,
		TurnDurationSeconds: s.TurnDurationSeconds,
		Players:             slices.Clone(s.Players),
		Scores:              ScoreTable(s, stage == model.StageFinished),
		Actions:             AvailableActions(s, viewer, now),
		Tip:                 tipFor(s, stage, role, s.IsHost(viewer)),
		PollAfterMs:         PollInterval(stage).Milliseconds(),
		Version:             s.Version,
	}
	if stage == model.StageFinished {
		v.Phase = model.PhaseFinished
	}

	if stage == model.StageTurnInProgress {
		v.Explainer = s.Pair.Explainer
		v.Listener = s.Pair.Listener
		v.RemainingSeconds = int((Remaining(s, now) + time.Second - 1) / time.Second)
		if role == model.RoleExplainer {
			v.Word = s.Word
		} else {
			v.Word = model.MaskedWord
		}
	}
	return v
}
