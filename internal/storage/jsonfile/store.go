// Package jsonfile stores bot data in three JSON files under a data
// directory: user_data.json, match_data.json and guild_settings.json.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

const (
	UserDataFile      = "user_data.json"
	MatchDataFile     = "match_data.json"
	GuildSettingsFile = "guild_settings.json"

	// maxMatchRecords bounds match_data.json; older matches are dropped.
	maxMatchRecords = 5000
)

type userData struct {
	Accounts  map[string]*storage.Account     `json:"accounts"`
	Cooldowns map[string]map[string]time.Time `json:"cooldowns"`
}

type matchData struct {
	Matches []*storage.MatchRecord `json:"matches"`
}

// Store is a storage.Store backed by JSON files. All access is serialized by
// a single mutex; each mutation rewrites the affected file atomically.
type Store struct {
	dir string

	mu     sync.Mutex
	users  userData
	match  matchData
	guilds map[string]*storage.GuildSettings
}

var _ storage.Store = (*Store)(nil)

// Open loads (or creates) the data files in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		dir: dir,
		users: userData{
			Accounts:  make(map[string]*storage.Account),
			Cooldowns: make(map[string]map[string]time.Time),
		},
		guilds: make(map[string]*storage.GuildSettings),
	}

	if err := s.load(UserDataFile, &s.users); err != nil {
		return nil, err
	}
	if err := s.load(MatchDataFile, &s.match); err != nil {
		return nil, err
	}
	if err := s.load(GuildSettingsFile, &s.guilds); err != nil {
		return nil, err
	}

	if s.users.Accounts == nil {
		s.users.Accounts = make(map[string]*storage.Account)
	}
	if s.users.Cooldowns == nil {
		s.users.Cooldowns = make(map[string]map[string]time.Time)
	}
	if s.guilds == nil {
		s.guilds = make(map[string]*storage.GuildSettings)
	}
	return s, nil
}

func (s *Store) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return s.write(name, v)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// write replaces a data file via a temp file and rename.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Close is a no-op; every mutation is already on disk.
func (s *Store) Close() error {
	return nil
}

func copyAccount(a *storage.Account) *storage.Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// GetAccount implements storage.AccountRepository.
func (s *Store) GetAccount(_ context.Context, userID string) (*storage.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.users.Accounts[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyAccount(a), nil
}

// UpdateAccounts implements storage.AccountRepository.
func (s *Store) UpdateAccounts(_ context.Context, userIDs []string, fn func(map[string]*storage.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := make(map[string]*storage.Account, len(userIDs))
	for _, id := range userIDs {
		working[id] = copyAccount(s.users.Accounts[id])
	}
	if err := fn(working); err != nil {
		return err
	}

	previous := make(map[string]*storage.Account, len(working))
	for id, a := range working {
		if a == nil {
			continue
		}
		previous[id] = s.users.Accounts[id]
		s.users.Accounts[id] = copyAccount(a)
	}

	if err := s.write(UserDataFile, &s.users); err != nil {
		// Roll back the in-memory view so it matches the file.
		for id, a := range previous {
			if a == nil {
				delete(s.users.Accounts, id)
			} else {
				s.users.Accounts[id] = a
			}
		}
		return err
	}
	return nil
}

// TopAccounts implements storage.AccountRepository.
func (s *Store) TopAccounts(_ context.Context, limit int) ([]*storage.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*storage.Account, 0, len(s.users.Accounts))
	for _, a := range s.users.Accounts {
		out = append(out, copyAccount(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveMatch implements storage.MatchRepository.
func (s *Store) SaveMatch(_ context.Context, rec *storage.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *rec
	s.match.Matches = append(s.match.Matches, &c)
	if len(s.match.Matches) > maxMatchRecords {
		s.match.Matches = s.match.Matches[len(s.match.Matches)-maxMatchRecords:]
	}
	return s.write(MatchDataFile, &s.match)
}

// RecentMatches implements storage.MatchRepository.
func (s *Store) RecentMatches(_ context.Context, userID string, limit int) ([]*storage.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*storage.MatchRecord
	for i := len(s.match.Matches) - 1; i >= 0; i-- {
		rec := s.match.Matches[i]
		if !contains(rec.Participants, userID) {
			continue
		}
		c := *rec
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// GetGuildSettings implements storage.GuildRepository.
func (s *Store) GetGuildSettings(_ context.Context, guildID string) (*storage.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *g
	return &c, nil
}

// SaveGuildSettings implements storage.GuildRepository.
func (s *Store) SaveGuildSettings(_ context.Context, settings *storage.GuildSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *settings
	s.guilds[settings.GuildID] = &c
	return s.write(GuildSettingsFile, s.guilds)
}

// LastUsed implements storage.CooldownRepository.
func (s *Store) LastUsed(_ context.Context, userID, command string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.users.Cooldowns[userID][command]
	return at, ok, nil
}

// MarkUsed implements storage.CooldownRepository.
func (s *Store) MarkUsed(_ context.Context, userID, command string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.users.Cooldowns[userID] == nil {
		s.users.Cooldowns[userID] = make(map[string]time.Time)
	}
	s.users.Cooldowns[userID][command] = at
	return s.write(UserDataFile, &s.users)
}
