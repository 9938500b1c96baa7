package model

// Phase is the coarse game stage persisted in the session document.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseActive   Phase = "active"
	PhaseFinished Phase = "finished"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseActive, PhaseFinished:
		return true
	}
	return false
}

// Stage refines Phase with what a reader derives from the rest of the document.
type Stage string

const (
	StageLobby          Stage = "lobby"
	StageAwaitingPair   Stage = "awaiting_pair"
	StageTurnInProgress Stage = "turn_in_progress"
	StageTurnExpired    Stage = "turn_expired"
	StageFinished       Stage = "finished"
)

type Role string

const (
	RoleExplainer Role = "explainer"
	RoleListener  Role = "listener"
	RoleObserver  Role = "observer"
	RoleSpectator Role = "spectator" // not a member of the room
)

type ActionType string

const (
	ActionJoin         ActionType = "join"
	ActionLeave        ActionType = "leave"
	ActionStart        ActionType = "start"
	ActionConfigure    ActionType = "configure"
	ActionBeginTurn    ActionType = "begin-turn"
	ActionMarkGuessed  ActionType = "mark-guessed"
	ActionSkip         ActionType = "skip"
	ActionAdvanceRound ActionType = "advance-round"

	// local mode only
	ActionReady ActionType = "ready"
)

// RemoteActions is the fixed action set accepted by a remote room.
var RemoteActions = []ActionType{
	ActionJoin, ActionLeave, ActionStart, ActionConfigure,
	ActionBeginTurn, ActionMarkGuessed, ActionSkip, ActionAdvanceRound,
}

// LocalActions is the fixed action set accepted by a local game.
var LocalActions = []ActionType{ActionReady, ActionMarkGuessed, ActionSkip}

func (a ActionType) In(set []ActionType) bool {
	for _, v := range set {
		if v == a {
			return true
		}
	}
	return false
}
