package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wezaxes/alias-server-go/internal/model"
	redisclient "github.com/wezaxes/alias-server-go/internal/redis"
)

// Outcomes reported by the session scripts. Every mutation is a Lua script so
// the precondition check and the partial write happen as one step.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotAllowed   = errors.New("actor is not allowed to do this")
	ErrWrongPhase   = errors.New("action not legal in current phase")
	ErrStale        = errors.New("observation is stale")
	ErrNotMember    = errors.New("player is not in the room")
)

const (
	statusOK        = 1
	statusNoop      = 0
	statusNotFound  = -1
	statusForbidden = -2
	statusPhase     = -3
	statusStale     = -4
	statusNotMember = -5
)

// Returned by the leave script when the leaver was part of the active pair.
const statusTurnAborted = 2

type SessionRepository interface {
	Find(ctx context.Context, code string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (bool, error)
	AddPlayer(ctx context.Context, code, name string) (bool, error)
	RemovePlayer(ctx context.Context, code, name string) (turnAborted bool, err error)
	Configure(ctx context.Context, code, actor string, totalRounds, turnSeconds int) error
	Start(ctx context.Context, code, actor string) error
	BeginTurn(ctx context.Context, code string, params model.BeginTurnParams) error
	ChangeWord(ctx context.Context, code string, params model.WordChangeParams, award bool) error
	ExpireTurn(ctx context.Context, code string, observedDeadline, now time.Time) (bool, error)
	ForceEndTurn(ctx context.Context, code, actor string) error
	Delete(ctx context.Context, code string) error
}

const scriptPrelude = `
local room, players, scores = KEYS[1], KEYS[2], KEYS[3]
local function touch(ttl)
	redis.call('HINCRBY', room, 'version', 1)
	redis.call('EXPIRE', room, ttl)
	redis.call('EXPIRE', players, ttl)
	redis.call('EXPIRE', scores, ttl)
end
local function clearTurn()
	redis.call('HSET', room, 'explainer', '', 'listener', '', 'word', '', 'turn_deadline', '')
end
`

// ARGV: code, host, total_rounds, turn_duration_seconds, created_at_ms, ttl
var createScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 1 then
	return 0
end
redis.call('DEL', players, scores)
redis.call('HSET', room,
	'code', ARGV[1], 'host', ARGV[2], 'phase', 'lobby',
	'total_rounds', ARGV[3], 'turn_duration_seconds', ARGV[4], 'current_round', 1,
	'version', 0, 'seq', 1, 'created_at', ARGV[5])
clearTurn()
redis.call('ZADD', players, 1, ARGV[2])
redis.call('HSET', scores, ARGV[2], 0)
touch(tonumber(ARGV[6]))
return 1
`)

// ARGV: name, ttl
var joinScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 0 then
	return -1
end
if redis.call('ZSCORE', players, ARGV[1]) then
	return 0
end
if redis.call('HGET', room, 'phase') == 'finished' then
	return -3
end
local seq = redis.call('HINCRBY', room, 'seq', 1)
redis.call('ZADD', players, seq, ARGV[1])
redis.call('HSETNX', scores, ARGV[1], 0)
touch(tonumber(ARGV[2]))
return 1
`)

// ARGV: name, ttl
var leaveScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 0 then
	return -1
end
if not redis.call('ZSCORE', players, ARGV[1]) then
	return 0
end
if redis.call('HGET', room, 'phase') == 'finished' then
	return -3
end
redis.call('ZREM', players, ARGV[1])
local result = 1
local explainer = redis.call('HGET', room, 'explainer')
local listener = redis.call('HGET', room, 'listener')
if ARGV[1] == explainer or ARGV[1] == listener then
	clearTurn()
	result = 2
end
if redis.call('HGET', room, 'host') == ARGV[1] then
	local heir = redis.call('ZRANGE', players, 0, 0)
	if #heir > 0 then
		redis.call('HSET', room, 'host', heir[1])
	end
end
touch(tonumber(ARGV[2]))
return result
`)

// ARGV: actor, total_rounds, turn_duration_seconds, ttl
var configureScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 0 then
	return -1
end
if redis.call('HGET', room, 'host') ~= ARGV[1] then
	return -2
end
if redis.call('HGET', room, 'phase') ~= 'lobby' then
	return -3
end
redis.call('HSET', room, 'total_rounds', ARGV[2], 'turn_duration_seconds', ARGV[3])
touch(tonumber(ARGV[4]))
return 1
`)

// ARGV: actor, ttl
var startScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 0 then
	return -1
end
if redis.call('HGET', room, 'host') ~= ARGV[1] then
	return -2
end
if redis.call('HGET', room, 'phase') ~= 'lobby' then
	return -3
end
redis.call('HSET', room, 'phase', 'active', 'current_round', 1)
clearTurn()
touch(tonumber(ARGV[2]))
return 1
`)

// ARGV: actor, explainer, listener, word, deadline_ms, ttl
var beginTurnScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 0 then
	return -1
end
if redis.call('HGET', room, 'host') ~= ARGV[1] then
	return -2
end
if redis.call('HGET', room, 'phase') ~= 'active' then
	return -3
end
local round = tonumber(redis.call('HGET', room, 'current_round'))
local total = tonumber(redis.call('HGET', room, 'total_rounds'))
if round > total then
	return -3
end
if redis.call('HGET', room, 'explainer') ~= '' then
	return -4
end
if ARGV[2] == ARGV[3] then
	return -5
end
if not redis.call('ZSCORE', players, ARGV[2]) or not redis.call('ZSCORE', players, ARGV[3]) then
	return -5
end
redis.call('HSET', room, 'explainer', ARGV[2], 'listener', ARGV[3], 'word', ARGV[4], 'turn_deadline', ARGV[5])
touch(tonumber(ARGV[6]))
return 1
`)

// ARGV: actor, seen_word, new_word, now_ms, award, ttl
var changeWordScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 0 then
	return -1
end
if redis.call('HGET', room, 'phase') ~= 'active' then
	return -3
end
local explainer = redis.call('HGET', room, 'explainer')
if explainer == '' then
	return -3
end
if explainer ~= ARGV[1] then
	return -2
end
if tonumber(redis.call('HGET', room, 'turn_deadline')) <= tonumber(ARGV[4]) then
	return -4
end
if ARGV[2] ~= '' and redis.call('HGET', room, 'word') ~= ARGV[2] then
	return -4
end
if ARGV[5] == '1' then
	redis.call('HINCRBY', scores, ARGV[1], 1)
end
redis.call('HSET', room, 'word', ARGV[3])
touch(tonumber(ARGV[6]))
return 1
`)

// ARGV: observed_deadline_ms, now_ms, actor, force, ttl
//
// Ending a turn clears the pair and advances the round in the same step, so
// however many clients observe one expiry the round moves exactly once.
var endTurnScript = redis.NewScript(scriptPrelude + `
if redis.call('EXISTS', room) == 0 then
	return -1
end
local explainer = redis.call('HGET', room, 'explainer')
if ARGV[4] == '1' then
	if redis.call('HGET', room, 'host') ~= ARGV[3] then
		return -2
	end
	if redis.call('HGET', room, 'phase') ~= 'active' or explainer == '' then
		return -3
	end
else
	if explainer == '' then
		return 0
	end
	local deadline = redis.call('HGET', room, 'turn_deadline')
	if deadline ~= ARGV[1] or tonumber(deadline) > tonumber(ARGV[2]) then
		return 0
	end
end
clearTurn()
local round = redis.call('HINCRBY', room, 'current_round', 1)
if round > tonumber(redis.call('HGET', room, 'total_rounds')) then
	redis.call('HSET', room, 'phase', 'finished')
end
touch(tonumber(ARGV[5]))
return 1
`)

type sessionRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &sessionRepo{client: client, ttl: ttl}
}

func roomKeys(code string) []string {
	return []string{
		redisclient.RoomKey(code),
		redisclient.RoomPlayersKey(code),
		redisclient.RoomScoresKey(code),
	}
}

func (r *sessionRepo) ttlSeconds() int64 {
	return int64(r.ttl.Seconds())
}

func (r *sessionRepo) run(ctx context.Context, script *redis.Script, code string, args ...any) (int64, error) {
	status, err := script.Run(ctx, r.client, roomKeys(code), args...).Int64()
	if err != nil {
		return 0, fmt.Errorf("run session script: %w", err)
	}
	return status, statusError(status)
}

func statusError(status int64) error {
	switch status {
	case statusNotFound:
		return ErrRoomNotFound
	case statusForbidden:
		return ErrNotAllowed
	case statusPhase:
		return ErrWrongPhase
	case statusStale:
		return ErrStale
	case statusNotMember:
		return ErrNotMember
	}
	return nil
}

func (r *sessionRepo) Find(ctx context.Context, code string) (*model.Session, error) {
	keys := roomKeys(code)

	var (
		fieldsCmd  *redis.MapStringStringCmd
		playersCmd *redis.StringSliceCmd
		scoresCmd  *redis.MapStringStringCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fieldsCmd = pipe.HGetAll(ctx, keys[0])
		playersCmd = pipe.ZRange(ctx, keys[1], 0, -1)
		scoresCmd = pipe.HGetAll(ctx, keys[2])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	fields := fieldsCmd.Val()
	if len(fields) == 0 {
		return nil, nil
	}

	return decodeSession(fields, playersCmd.Val(), scoresCmd.Val())
}

func decodeSession(fields map[string]string, players []string, rawScores map[string]string) (*model.Session, error) {
	s := &model.Session{
		Code:    fields["code"],
		Host:    fields["host"],
		Phase:   model.Phase(fields["phase"]),
		Word:    fields["word"],
		Players: players,
		Scores:  make(map[string]int, len(rawScores)),
	}
	if s.Players == nil {
		s.Players = []string{}
	}
	if !s.Phase.Valid() {
		return nil, fmt.Errorf("session %s has unknown phase %q", s.Code, fields["phase"])
	}

	ints := []struct {
		field string
		dst   *int
	}{
		{"total_rounds", &s.TotalRounds},
		{"turn_duration_seconds", &s.TurnDurationSeconds},
		{"current_round", &s.CurrentRound},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(fields[f.field])
		if err != nil {
			return nil, fmt.Errorf("session %s field %s: %w", s.Code, f.field, err)
		}
		*f.dst = v
	}

	if v, err := strconv.ParseInt(fields["version"], 10, 64); err == nil {
		s.Version = v
	}
	if ms, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		s.CreatedAt = time.UnixMilli(ms)
	}

	if explainer := fields["explainer"]; explainer != "" {
		s.Pair = &model.Pair{Explainer: explainer, Listener: fields["listener"]}
		ms, err := strconv.ParseInt(fields["turn_deadline"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("session %s field turn_deadline: %w", s.Code, err)
		}
		deadline := time.UnixMilli(ms)
		s.TurnDeadline = &deadline
	}

	for player, raw := range rawScores {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("session %s score of %s: %w", s.Code, player, err)
		}
		s.Scores[player] = v
	}

	return s, nil
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (bool, error) {
	status, err := r.run(ctx, createScript, params.Code,
		params.Code, params.Host, params.TotalRounds, params.TurnDurationSeconds,
		params.CreatedAt.UnixMilli(), r.ttlSeconds())
	if err != nil {
		return false, err
	}
	return status == statusOK, nil
}

func (r *sessionRepo) AddPlayer(ctx context.Context, code, name string) (bool, error) {
	status, err := r.run(ctx, joinScript, code, name, r.ttlSeconds())
	if err != nil {
		return false, err
	}
	return status == statusOK, nil
}

func (r *sessionRepo) RemovePlayer(ctx context.Context, code, name string) (bool, error) {
	status, err := r.run(ctx, leaveScript, code, name, r.ttlSeconds())
	if err != nil {
		return false, err
	}
	if status == statusNoop {
		return false, ErrNotMember
	}
	return status == statusTurnAborted, nil
}

func (r *sessionRepo) Configure(ctx context.Context, code, actor string, totalRounds, turnSeconds int) error {
	_, err := r.run(ctx, configureScript, code, actor, totalRounds, turnSeconds, r.ttlSeconds())
	return err
}

func (r *sessionRepo) Start(ctx context.Context, code, actor string) error {
	_, err := r.run(ctx, startScript, code, actor, r.ttlSeconds())
	return err
}

func (r *sessionRepo) BeginTurn(ctx context.Context, code string, params model.BeginTurnParams) error {
	_, err := r.run(ctx, beginTurnScript, code,
		params.Actor, params.Pair.Explainer, params.Pair.Listener, params.Word,
		params.Deadline.UnixMilli(), r.ttlSeconds())
	return err
}

func (r *sessionRepo) ChangeWord(ctx context.Context, code string, params model.WordChangeParams, award bool) error {
	awardFlag := "0"
	if award {
		awardFlag = "1"
	}
	_, err := r.run(ctx, changeWordScript, code,
		params.Actor, params.SeenWord, params.NewWord, params.Now.UnixMilli(), awardFlag, r.ttlSeconds())
	return err
}

func (r *sessionRepo) ExpireTurn(ctx context.Context, code string, observedDeadline, now time.Time) (bool, error) {
	status, err := r.run(ctx, endTurnScript, code,
		strconv.FormatInt(observedDeadline.UnixMilli(), 10), now.UnixMilli(), "", "0", r.ttlSeconds())
	if err != nil {
		return false, err
	}
	return status == statusOK, nil
}

func (r *sessionRepo) ForceEndTurn(ctx context.Context, code, actor string) error {
	_, err := r.run(ctx, endTurnScript, code, "", 0, actor, "1", r.ttlSeconds())
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, code string) error {
	return r.client.Del(ctx, roomKeys(code)...).Err()
}
