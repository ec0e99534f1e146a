package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

// setupTestRedis creates a store on a miniredis instance
func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(client)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestAccountLifecycle(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := s.GetAccount(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateAccounts(ctx, []string{"u1", "u2", "u3"}, func(accts map[string]*storage.Account) error {
		accts["u1"] = &storage.Account{UserID: "u1", Balance: 1000}
		accts["u2"] = &storage.Account{UserID: "u2", Balance: 3000}
		accts["u3"] = &storage.Account{UserID: "u3", Balance: 2000}
		return nil
	})
	require.NoError(t, err)

	a, err := s.GetAccount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), a.Balance)

	top, err := s.TopAccounts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "u2", top[0].UserID)
	assert.Equal(t, "u3", top[1].UserID)
}

func TestUpdateAccountsAbortsOnError(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.UpdateAccounts(ctx, []string{"u1"}, func(accts map[string]*storage.Account) error {
		accts["u1"] = &storage.Account{UserID: "u1", Balance: 1}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetAccount(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateAccountsRetriesOnConflict(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateAccounts(ctx, []string{"u1"}, func(accts map[string]*storage.Account) error {
		accts["u1"] = &storage.Account{UserID: "u1", Balance: 100}
		return nil
	}))

	calls := 0
	err := s.UpdateAccounts(ctx, []string{"u1"}, func(accts map[string]*storage.Account) error {
		calls++
		if calls == 1 {
			// A concurrent writer touches the watched key mid-transaction.
			mr.Set(accountKey("u1"), `{"user_id":"u1","balance":500}`)
		}
		accts["u1"].Balance += 50
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	a, err := s.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(550), a.Balance)
}

func TestMatchesAndGuildSettings(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMatch(ctx, &storage.MatchRecord{ID: "m1", Format: "1v1", Participants: []string{"u1", "u2"}}))
	require.NoError(t, s.SaveMatch(ctx, &storage.MatchRecord{ID: "m2", Format: "2v2", Participants: []string{"u1", "u3", "u4", "u5"}}))

	recent, err := s.RecentMatches(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "m2", recent[0].ID)

	recent, err = s.RecentMatches(ctx, "u2", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "1v1", recent[0].Format)

	_, err = s.GetGuildSettings(ctx, "g1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SaveGuildSettings(ctx, &storage.GuildSettings{GuildID: "g1", Prefix: "?"}))
	g, err := s.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "?", g.Prefix)
}

func TestCooldowns(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	_, ok, err := s.LastUsed(ctx, "u1", "give")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 5, 5, 5, 5, 5, 5, time.UTC)
	require.NoError(t, s.MarkUsed(ctx, "u1", "give", at))

	got, ok, err := s.LastUsed(ctx, "u1", "give")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}
