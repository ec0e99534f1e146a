package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

func TestOpenCreatesDataFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bot_data")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	for _, name := range []string{UserDataFile, MatchDataFile, GuildSettingsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "%s should exist", name)
	}
}

func TestAccountsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.GetAccount(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateAccounts(ctx, []string{"u1", "u2"}, func(accts map[string]*storage.Account) error {
		assert.Nil(t, accts["u1"])
		accts["u1"] = &storage.Account{UserID: "u1", Balance: 1000}
		accts["u2"] = &storage.Account{UserID: "u2", Balance: 2500}
		return nil
	})
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)

	a, err := reopened.GetAccount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), a.Balance)

	top, err := reopened.TopAccounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "u2", top[0].UserID)
}

func TestUpdateAccountsErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.UpdateAccounts(ctx, []string{"u1"}, func(accts map[string]*storage.Account) error {
		accts["u1"] = &storage.Account{UserID: "u1", Balance: 5}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetAccount(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetAccountReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.UpdateAccounts(ctx, []string{"u1"}, func(accts map[string]*storage.Account) error {
		accts["u1"] = &storage.Account{UserID: "u1", Balance: 10}
		return nil
	}))

	a, err := s.GetAccount(ctx, "u1")
	require.NoError(t, err)
	a.Balance = 999

	again, err := s.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), again.Balance)
}

func TestRecentMatches(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for _, rec := range []*storage.MatchRecord{
		{ID: "m1", Participants: []string{"u1", "u2"}},
		{ID: "m2", Participants: []string{"u3", "u4"}},
		{ID: "m3", Participants: []string{"u1", "u3"}},
	} {
		require.NoError(t, s.SaveMatch(ctx, rec))
	}

	got, err := s.RecentMatches(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m3", got[0].ID)
	assert.Equal(t, "m1", got[1].ID)

	got, err = s.RecentMatches(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGuildSettings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.GetGuildSettings(ctx, "g1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SaveGuildSettings(ctx, &storage.GuildSettings{GuildID: "g1", Prefix: "!", CommentaryEnabled: true}))

	reopened, err := Open(dir)
	require.NoError(t, err)
	g, err := reopened.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "!", g.Prefix)
	assert.True(t, g.CommentaryEnabled)
}

func TestCooldowns(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, ok, err := s.LastUsed(ctx, "u1", "daily")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkUsed(ctx, "u1", "daily", at))

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, ok, err := reopened.LastUsed(ctx, "u1", "daily")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}
