package game

import "time"

// Economy
const (
	StartingBalance int64 = 1000
	DailyReward     int64 = 500

	// MaxAmount bounds a single transfer or admin adjustment.
	MaxAmount int64 = 1_000_000_000_000
	// MaxBalance caps every balance so credits cannot overflow.
	MaxBalance int64 = 1_000_000_000_000_000
)

// Match timing
const (
	MatchTimeout    = 50 * time.Second
	ChallengeExpiry = 60 * time.Second
	LobbyExpiry     = 120 * time.Second
)

// WarningIntervals are the seconds-remaining marks at which a turn warning is
// posted before the turn times out.
var WarningIntervals = []int{45, 40, 35, 30, 25, 20, 15, 10, 5}

// Match mechanics
const (
	StartingHealth      = 100
	MaxMomentum         = 100
	RumbleEntryInterval = 3

	GauntletMinParticipants = 3
	GauntletMaxParticipants = 8
	RumbleMinParticipants   = 4
	RumbleMaxParticipants   = 30
)

// Command names used as cooldown keys.
const (
	CommandChallenge   = "chall"
	Command2v2         = "2v2"
	Command4v4         = "4v4"
	CommandGauntlet    = "gauntlet"
	CommandRoyalRumble = "royalrumble"
	CommandDaily       = "daily"
	CommandGive        = "give"
)

// CooldownTimes is the minimum interval between two uses of a command by the
// same user.
var CooldownTimes = map[string]time.Duration{
	CommandChallenge:   30 * time.Second,
	Command2v2:         60 * time.Second,
	Command4v4:         60 * time.Second,
	CommandGauntlet:    120 * time.Second,
	CommandRoyalRumble: 300 * time.Second,
	CommandDaily:       24 * time.Hour,
	CommandGive:        10 * time.Second,
}

// WarningDurations returns WarningIntervals as durations.
func WarningDurations() []time.Duration {
	out := make([]time.Duration, len(WarningIntervals))
	for i, s := range WarningIntervals {
		out[i] = time.Duration(s) * time.Second
	}
	return out
}
