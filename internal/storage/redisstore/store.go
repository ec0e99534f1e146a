// Package redisstore is a storage.Store backed by Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

const (
	keyPrefix       = "wwebot:"
	balancesKey     = keyPrefix + "balances"
	maxTxRetries    = 10
	userMatchLimit  = 100
	connectAttempts = 5
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store implements storage.Store on Redis.
type Store struct {
	client *redis.Client
}

var _ storage.Store = (*Store)(nil)

// Connect dials Redis and pings it with exponential backoff.
func Connect(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectAttempts), ctx)
	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WarnContext(ctx, "redis connection failed, retrying", "addr", opts.Addr, "error", err)
			return err
		}
		return nil
	}, b)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logger.InfoContext(ctx, "connected to redis", "addr", opts.Addr, "db", opts.DB)
	return New(client), nil
}

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func accountKey(userID string) string     { return keyPrefix + "account:" + userID }
func matchKey(matchID string) string      { return keyPrefix + "match:" + matchID }
func userMatchesKey(userID string) string { return keyPrefix + "matches:" + userID }
func guildKey(guildID string) string      { return keyPrefix + "guild:" + guildID }
func cooldownKey(userID string) string    { return keyPrefix + "cooldowns:" + userID }

// GetAccount implements storage.AccountRepository.
func (s *Store) GetAccount(ctx context.Context, userID string) (*storage.Account, error) {
	data, err := s.client.Get(ctx, accountKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var a storage.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &a, nil
}

// UpdateAccounts implements storage.AccountRepository with optimistic
// WATCH/MULTI transactions; fn may run more than once on contention.
func (s *Store) UpdateAccounts(ctx context.Context, userIDs []string, fn func(map[string]*storage.Account) error) error {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = accountKey(id)
	}

	txf := func(tx *redis.Tx) error {
		working := make(map[string]*storage.Account, len(userIDs))
		for _, id := range userIDs {
			data, err := tx.Get(ctx, accountKey(id)).Bytes()
			if errors.Is(err, redis.Nil) {
				working[id] = nil
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to get account: %w", err)
			}
			var a storage.Account
			if err := json.Unmarshal(data, &a); err != nil {
				return fmt.Errorf("failed to unmarshal account: %w", err)
			}
			working[id] = &a
		}

		if err := fn(working); err != nil {
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for id, a := range working {
				if a == nil {
					continue
				}
				data, err := json.Marshal(a)
				if err != nil {
					return fmt.Errorf("failed to marshal account: %w", err)
				}
				pipe.Set(ctx, accountKey(id), data, 0)
				pipe.ZAdd(ctx, balancesKey, redis.Z{Score: float64(a.Balance), Member: id})
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("update accounts: %w", redis.TxFailedErr)
}

// TopAccounts implements storage.AccountRepository.
func (s *Store) TopAccounts(ctx context.Context, limit int) ([]*storage.Account, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, balancesKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = accountKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	out := make([]*storage.Account, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var a storage.Account
		if err := json.Unmarshal([]byte(str), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account: %w", err)
		}
		out = append(out, &a)
	}
	return out, nil
}

// SaveMatch implements storage.MatchRepository.
func (s *Store) SaveMatch(ctx context.Context, rec *storage.MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKey(rec.ID), data, 0)
		for _, id := range rec.Participants {
			pipe.LPush(ctx, userMatchesKey(id), rec.ID)
			pipe.LTrim(ctx, userMatchesKey(id), 0, userMatchLimit-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

// RecentMatches implements storage.MatchRepository.
func (s *Store) RecentMatches(ctx context.Context, userID string, limit int) ([]*storage.MatchRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.LRange(ctx, userMatchesKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read match list: %w", err)
	}

	var out []*storage.MatchRecord
	for _, id := range ids {
		data, err := s.client.Get(ctx, matchKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get match: %w", err)
		}
		var rec storage.MatchRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match: %w", err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

// GetGuildSettings implements storage.GuildRepository.
func (s *Store) GetGuildSettings(ctx context.Context, guildID string) (*storage.GuildSettings, error) {
	data, err := s.client.Get(ctx, guildKey(guildID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}

	var g storage.GuildSettings
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guild settings: %w", err)
	}
	return &g, nil
}

// SaveGuildSettings implements storage.GuildRepository.
func (s *Store) SaveGuildSettings(ctx context.Context, settings *storage.GuildSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal guild settings: %w", err)
	}
	if err := s.client.Set(ctx, guildKey(settings.GuildID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}
	return nil
}

// LastUsed implements storage.CooldownRepository.
func (s *Store) LastUsed(ctx context.Context, userID, command string) (time.Time, bool, error) {
	v, err := s.client.HGet(ctx, cooldownKey(userID), command).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cooldown: %w", err)
	}
	nanos, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid cooldown value %q: %w", v, err)
	}
	return time.Unix(0, nanos), true, nil
}

// MarkUsed implements storage.CooldownRepository.
func (s *Store) MarkUsed(ctx context.Context, userID, command string, at time.Time) error {
	if err := s.client.HSet(ctx, cooldownKey(userID), command, at.UnixNano()).Err(); err != nil {
		return fmt.Errorf("failed to write cooldown: %w", err)
	}
	return nil
}
