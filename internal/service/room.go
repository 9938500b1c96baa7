package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wezaxes/alias-server-go/internal/audit"
	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/game"
	"github.com/wezaxes/alias-server-go/internal/model"
	"github.com/wezaxes/alias-server-go/internal/repository"
	"github.com/wezaxes/alias-server-go/internal/sse"
	"github.com/wezaxes/alias-server-go/internal/util"
	"github.com/wezaxes/alias-server-go/internal/wordbank"
)

// Notifier wakes pollers of a room after a write.
type Notifier interface {
	Publish(ctx context.Context, event sse.Event) error
}

type CreateRoomParams struct {
	Nickname string `json:"nickname"`
	Rounds   int    `json:"rounds,omitempty"`
	Seconds  int    `json:"seconds,omitempty"`
}

type CreateRoomResult struct {
	Code string     `json:"code"`
	View model.View `json:"view"`
}

// RoomService runs the polling protocol for remote rooms. Every method is
// one read, at most one conditional write, and a fresh read for the view.
type RoomService struct {
	repo     repository.SessionRepository
	bank     *wordbank.Bank
	notifier Notifier
	clock    game.Clock
	rng      wordbank.Rand
}

func NewRoomService(repo repository.SessionRepository, bank *wordbank.Bank, notifier Notifier) *RoomService {
	return &RoomService{
		repo:     repo,
		bank:     bank,
		notifier: notifier,
		clock:    game.SystemClock,
		rng:      wordbank.Global,
	}
}

func (s *RoomService) Create(ctx context.Context, params CreateRoomParams) (*CreateRoomResult, error) {
	host, err := util.NormalizeNickname(params.Nickname)
	if err != nil {
		return nil, err
	}

	rounds, seconds := params.Rounds, params.Seconds
	if rounds == 0 {
		rounds = config.DefaultTotalRounds
	}
	if seconds == 0 {
		seconds = config.DefaultTurnSeconds
	}
	if err := game.ValidateSettings(rounds, seconds); err != nil {
		return nil, err
	}

	var code string
	for attempt := 0; attempt < config.RoomCodeAttempts; attempt++ {
		candidate := generateRoomCode()
		created, err := s.repo.Create(ctx, model.CreateSessionParams{
			Code:                candidate,
			Host:                host,
			TotalRounds:         rounds,
			TurnDurationSeconds: seconds,
			CreatedAt:           s.clock.Now(),
		})
		if err != nil {
			return nil, storeError(err, "create room")
		}
		if created {
			code = candidate
			break
		}
		log.Debug().Str("roomCode", candidate).Msg("room code taken, retrying")
	}
	if code == "" {
		return nil, apperrors.Conflict("Could not allocate a free room code, try again")
	}

	log.Info().
		Str("roomCode", code).
		Str("actor", host).
		Int("rounds", rounds).
		Int("seconds", seconds).
		Msg("room created")

	view, err := s.view(ctx, code, host)
	if err != nil {
		return nil, err
	}
	return &CreateRoomResult{Code: code, View: *view}, nil
}

// Poll is one polling cycle: read the room, clear an expired turn if this
// reader is the first to notice, and project the result for viewer.
func (s *RoomService) Poll(ctx context.Context, rawCode, viewer string) (*model.View, error) {
	code, err := resolveCode(rawCode)
	if err != nil {
		return nil, err
	}
	viewer = strings.TrimSpace(viewer)
	session, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if game.NeedsExpiry(session, now) {
		applied, err := s.repo.ExpireTurn(ctx, code, *session.TurnDeadline, now)
		if err != nil {
			log.Error().Err(err).Str("roomCode", code).Msg("failed to expire turn")
			v := game.BuildView(session, viewer, now)
			return &v, nil
		}
		if applied {
			log.Info().
				Str("roomCode", code).
				Str("actor", viewer).
				Int("round", session.CurrentRound).
				Msg("turn expired")
			s.notify(ctx, code, session.Version)
		}
		return s.view(ctx, code, viewer)
	}

	v := game.BuildView(session, viewer, now)
	return &v, nil
}

// Act applies one presentation action and returns the actor's fresh view.
func (s *RoomService) Act(ctx context.Context, rawCode string, action model.Action) (*model.View, error) {
	code, err := resolveCode(rawCode)
	if err != nil {
		return nil, err
	}
	actor, err := util.NormalizeNickname(action.Player)
	if err != nil {
		return nil, err
	}

	session, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if action.Type == model.ActionConfigure {
		if err := game.ValidateSettings(action.Rounds, action.Seconds); err != nil {
			return nil, err
		}
	}
	if err := game.Authorize(session, actor, action.Type, now); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeForbidden) {
			log.Warn().Str("roomCode", code).Str("actor", actor).Str("action", string(action.Type)).Msg("action refused")
			audit.Log(ctx, audit.Event{
				Type:    audit.EventForbiddenAction,
				Room:    code,
				Player:  actor,
				Details: map[string]interface{}{"action": string(action.Type)},
			})
		}
		return nil, err
	}

	if err := s.apply(ctx, session, actor, action, now); err != nil {
		return nil, err
	}

	log.Info().
		Str("roomCode", code).
		Str("actor", actor).
		Str("action", string(action.Type)).
		Msg("room updated")
	s.notify(ctx, code, session.Version)

	return s.view(ctx, code, actor)
}

func (s *RoomService) apply(ctx context.Context, session *model.Session, actor string, action model.Action, now time.Time) error {
	code := session.Code

	switch action.Type {
	case model.ActionJoin:
		if _, err := s.repo.AddPlayer(ctx, code, actor); err != nil {
			return storeError(err, "join")
		}
	case model.ActionLeave:
		if _, err := s.repo.RemovePlayer(ctx, code, actor); err != nil {
			return storeError(err, "leave")
		}
	case model.ActionConfigure:
		if err := s.repo.Configure(ctx, code, actor, action.Rounds, action.Seconds); err != nil {
			return storeError(err, "configure")
		}
	case model.ActionStart:
		if err := s.repo.Start(ctx, code, actor); err != nil {
			return storeError(err, "start")
		}
	case model.ActionBeginTurn:
		pair, err := game.SelectPair(session.Players, s.rng)
		if err != nil {
			return err
		}
		err = s.repo.BeginTurn(ctx, code, model.BeginTurnParams{
			Actor:    actor,
			Pair:     pair,
			Word:     s.bank.Draw(s.rng),
			Deadline: now.Add(session.TurnDuration()),
		})
		if err != nil {
			return storeError(err, "begin turn")
		}
	case model.ActionMarkGuessed, model.ActionSkip:
		seen := action.Word
		if seen == "" {
			seen = session.Word
		}
		err := s.repo.ChangeWord(ctx, code, model.WordChangeParams{
			Actor:    actor,
			SeenWord: seen,
			NewWord:  s.bank.DrawNext(s.rng, session.Word),
			Now:      now,
		}, action.Type == model.ActionMarkGuessed)
		if err != nil {
			return storeError(err, string(action.Type))
		}
	case model.ActionAdvanceRound:
		if err := s.repo.ForceEndTurn(ctx, code, actor); err != nil {
			return storeError(err, "end turn")
		}
	}
	return nil
}

func (s *RoomService) notify(ctx context.Context, code string, version int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, sse.Event{Code: code, Version: version + 1}); err != nil {
		log.Debug().Err(err).Str("roomCode", code).Msg("failed to publish room event")
	}
}

func (s *RoomService) view(ctx context.Context, code, viewer string) (*model.View, error) {
	session, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	v := game.BuildView(session, viewer, s.clock.Now())
	return &v, nil
}

func (s *RoomService) load(ctx context.Context, code string) (*model.Session, error) {
	session, err := s.repo.Find(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("roomCode", code).Msg("failed to read room")
		return nil, apperrors.External("room store", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Room")
	}
	return session, nil
}

// resolveCode normalizes typed input. Malformed codes are reported as
// unknown rooms without a store round trip.
func resolveCode(raw string) (string, error) {
	code := NormalizeRoomCode(raw)
	if code == "" {
		return "", apperrors.MissingRequired("room code")
	}
	if !ValidRoomCode(code) {
		return "", apperrors.NotFound("Room")
	}
	return code, nil
}

// storeError translates a refused conditional write. The caller's snapshot
// passed the same checks, so a refusal means the room moved on meanwhile.
func storeError(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return apperrors.NotFound("Room")
	case errors.Is(err, repository.ErrNotAllowed):
		return apperrors.Forbidden("You can no longer " + action + " in this room")
	case errors.Is(err, repository.ErrWrongPhase), errors.Is(err, repository.ErrStale):
		return apperrors.Conflict("The room changed, refresh and try again").WithCause(err)
	case errors.Is(err, repository.ErrNotMember):
		return apperrors.Conflict("A player of this turn has left the room").WithCause(err)
	}
	log.Error().Err(err).Str("action", action).Msg("room store write failed")
	return apperrors.External("room store", err)
}
