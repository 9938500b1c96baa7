package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 15 * time.Second
)

// Store ping timeout at startup
const StorePingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Polling cycle sleeps, per stage. The view tells the client how long to wait.
const (
	PollLobby          = 2 * time.Second
	PollAwaitingPair   = 500 * time.Millisecond
	PollTurnInProgress = 100 * time.Millisecond
	PollAfterWrite     = 50 * time.Millisecond
	PollFinished       = 2 * time.Second
)

// Game limits
const (
	DefaultTotalRounds  = 3
	MinTotalRounds      = 1
	MaxTotalRounds      = 20
	DefaultTurnSeconds  = 60
	MinTurnSeconds      = 10
	MaxTurnSeconds      = 120
	MinLocalTeams       = 2
	MaxLocalTeams       = 6
	MaxNicknameLength   = 32
	MaxWordLength       = 64
	RoomCodeAttempts    = 10
	RoomCreateRateLimit = 10
	WordAddRateLimit    = 30
	RateLimitWindow     = time.Minute
)
