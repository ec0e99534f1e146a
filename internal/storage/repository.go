// Package storage defines the persistence models and the repository
// interface implemented by the JSON file and Redis backends.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// AccountRepository persists user accounts.
type AccountRepository interface {
	// GetAccount returns ErrNotFound for unknown users.
	GetAccount(ctx context.Context, userID string) (*Account, error)

	// UpdateAccounts loads the accounts for userIDs (nil for unknown users),
	// calls fn, and atomically stores every non-nil account left in the map.
	// Nothing is written when fn returns an error.
	UpdateAccounts(ctx context.Context, userIDs []string, fn func(accounts map[string]*Account) error) error

	// TopAccounts returns up to limit accounts ordered by balance, richest first.
	TopAccounts(ctx context.Context, limit int) ([]*Account, error)
}

// MatchRepository persists finished matches.
type MatchRepository interface {
	SaveMatch(ctx context.Context, rec *MatchRecord) error

	// RecentMatches returns up to limit matches the user played, newest first.
	RecentMatches(ctx context.Context, userID string, limit int) ([]*MatchRecord, error)
}

// GuildRepository persists guild settings.
type GuildRepository interface {
	// GetGuildSettings returns ErrNotFound when the guild has no settings yet.
	GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error)
	SaveGuildSettings(ctx context.Context, settings *GuildSettings) error
}

// CooldownRepository persists the last use of a command by a user.
type CooldownRepository interface {
	LastUsed(ctx context.Context, userID, command string) (time.Time, bool, error)
	MarkUsed(ctx context.Context, userID, command string, at time.Time) error
}

// Store is a complete storage backend.
type Store interface {
	AccountRepository
	MatchRepository
	GuildRepository
	CooldownRepository
	Close() error
}
