package bot

import "time"

// Discord message and command constants
const (
	MaxDiscordMessageLength = 2000
	LeaderboardSize         = 10
	StatsHistorySize        = 5
	StartupRetries          = 5

	SweepInterval        = 5 * time.Second
	PingWarningThreshold = 10 * time.Second
	CommentaryTimeout    = 90 * time.Second
)
