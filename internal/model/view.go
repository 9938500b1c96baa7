package model

// MaskedWord is what everyone except the explainer sees in place of the word.
const MaskedWord = "???"

type ScoreEntry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
	Active bool   `json:"active"` // false once the player has left the room
}

// View is the per-participant projection of a session for one polling cycle.
type View struct {
	Code                string       `json:"code"`
	Phase               Phase        `json:"phase"`
	Stage               Stage        `json:"stage"`
	Host                string       `json:"host"`
	You                 string       `json:"you"`
	Role                Role         `json:"role"`
	CurrentRound        int          `json:"currentRound"`
	TotalRounds         int          `json:"totalRounds"`
	TurnDurationSeconds int          `json:"turnDurationSeconds"`
	RemainingSeconds    int          `json:"remainingSeconds"`
	Explainer           string       `json:"explainer,omitempty"`
	Listener            string       `json:"listener,omitempty"`
	Word                string       `json:"word,omitempty"`
	Players             []string     `json:"players"`
	Scores              []ScoreEntry `json:"scores"`
	Actions             []ActionType `json:"actions"`
	Tip                 string       `json:"tip,omitempty"`
	PollAfterMs         int64        `json:"pollAfterMs"`
	Version             int64        `json:"version"`
}

// Action is one request from the presentation layer against a remote room.
type Action struct {
	Type    ActionType `json:"type"`
	Player  string     `json:"player"`
	Rounds  int        `json:"rounds,omitempty"`
	Seconds int        `json:"seconds,omitempty"`
	Word    string     `json:"word,omitempty"` // the word the explainer saw, for guessed/skip
}
