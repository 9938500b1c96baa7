package model

// LocalView is the projection of a single-device game.
type LocalView struct {
	ID                  string       `json:"id"`
	Teams               []string     `json:"teams"`
	Active              string       `json:"active"`
	CurrentRound        int          `json:"currentRound"`
	TotalRounds         int          `json:"totalRounds"`
	TurnDurationSeconds int          `json:"turnDurationSeconds"`
	TurnActive          bool         `json:"turnActive"`
	RemainingSeconds    int          `json:"remainingSeconds"`
	Word                string       `json:"word,omitempty"`
	Scores              []ScoreEntry `json:"scores"`
	Finished            bool         `json:"finished"`
	Actions             []ActionType `json:"actions"`
	PollAfterMs         int64        `json:"pollAfterMs"`
}

type CreateLocalGameParams struct {
	Teams   []string `json:"teams"`
	Rounds  int      `json:"rounds"`
	Seconds int      `json:"seconds"`
}
