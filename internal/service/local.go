package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/game"
	"github.com/wezaxes/alias-server-go/internal/model"
	"github.com/wezaxes/alias-server-go/internal/util"
	"github.com/wezaxes/alias-server-go/internal/wordbank"
)

// LocalService keeps single-device games in memory. They do not survive a
// restart and are reaped once idle.
type LocalService struct {
	mu    sync.Mutex
	games map[string]*game.LocalGame
	bank  *wordbank.Bank
	clock game.Clock
	rng   wordbank.Rand
}

func NewLocalService(bank *wordbank.Bank) *LocalService {
	return &LocalService{
		games: make(map[string]*game.LocalGame),
		bank:  bank,
		clock: game.SystemClock,
		rng:   wordbank.Global,
	}
}

func (s *LocalService) Create(params model.CreateLocalGameParams) (model.LocalView, error) {
	id, err := util.NewGameID()
	if err != nil {
		return model.LocalView{}, apperrors.Internal("Failed to create game").WithCause(err)
	}

	now := s.clock.Now()
	g, err := game.NewLocalGame(id, params, now)
	if err != nil {
		return model.LocalView{}, err
	}

	s.mu.Lock()
	s.games[id] = g
	count := len(s.games)
	s.mu.Unlock()

	log.Info().
		Str("gameId", id).
		Int("teams", len(g.Teams)).
		Int("rounds", g.TotalRounds).
		Int("activeGames", count).
		Msg("local game created")

	return g.View(now), nil
}

func (s *LocalService) Get(id string) (model.LocalView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return model.LocalView{}, apperrors.NotFound("Game")
	}
	now := s.clock.Now()
	g.LastActivity = now
	return g.View(now), nil
}

func (s *LocalService) Act(id string, action model.ActionType) (model.LocalView, error) {
	if !action.In(model.LocalActions) {
		return model.LocalView{}, apperrors.InvalidInput("action", string(action))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return model.LocalView{}, apperrors.NotFound("Game")
	}

	now := s.clock.Now()
	var err error
	switch action {
	case model.ActionReady:
		err = g.Ready(now, s.bank.Draw(s.rng))
	case model.ActionMarkGuessed:
		err = g.Guessed(now, s.bank.DrawNext(s.rng, g.Word))
	case model.ActionSkip:
		err = g.Skip(now, s.bank.DrawNext(s.rng, g.Word))
	}
	if err != nil {
		return model.LocalView{}, err
	}
	return g.View(now), nil
}

func (s *LocalService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return apperrors.NotFound("Game")
	}
	delete(s.games, id)
	return nil
}

// DeleteIdle drops games untouched for longer than maxIdle.
func (s *LocalService) DeleteIdle(_ context.Context, maxIdle time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, g := range s.games {
		if g.LastActivity.Before(cutoff) {
			delete(s.games, id)
			removed++
		}
	}
	return removed, nil
}

func (s *LocalService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}
