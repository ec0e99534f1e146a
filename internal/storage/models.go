package storage

import "time"

// Account is a user's persistent economy record.
type Account struct {
	UserID        string    `json:"user_id"`
	Balance       int64     `json:"balance"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	MatchesPlayed int       `json:"matches_played"`
	CoinsEarned   int64     `json:"coins_earned"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MatchRecord is a finished match kept for history and stats.
type MatchRecord struct {
	ID           string           `json:"id"`
	Format       string           `json:"format"`
	GuildID      string           `json:"guild_id"`
	ChannelID    string           `json:"channel_id"`
	Participants []string         `json:"participants"`
	Winners      []string         `json:"winners"`
	Placements   []string         `json:"placements"`
	Payouts      map[string]int64 `json:"payouts"`
	Reason       string           `json:"reason"`
	Turns        int              `json:"turns"`
	StartedAt    time.Time        `json:"started_at"`
	EndedAt      time.Time        `json:"ended_at"`
}

// GuildSettings holds per-guild configuration.
type GuildSettings struct {
	GuildID           string    `json:"guild_id"`
	Prefix            string    `json:"prefix"`
	CommentaryEnabled bool      `json:"commentary_enabled"`
	UpdatedAt         time.Time `json:"updated_at"`
}
